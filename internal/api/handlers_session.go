// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"net/http"

	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/validation"
)

// Session returns the current session snapshot. The bearer token is never
// part of the response; it stays inside the daemon.
func (h *Handler) Session(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.session.State())
}

// Login authenticates against the backend and establishes the local session.
// The response is the resulting session snapshot, token excluded.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.LoginRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	state, err := h.session.Login(r.Context(), req)
	if err != nil {
		rw.SessionError(err)
		return
	}
	rw.Success(state)
}

// Register creates a backend account and logs in with the same credentials
// in one step.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.RegisterRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	state, err := h.session.Register(r.Context(), req)
	if err != nil {
		rw.SessionError(err)
		return
	}
	rw.Created(state)
}

// Logout clears the session. It always succeeds: a failed remote token
// invalidation is logged by the session manager, not surfaced here.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	state := h.session.Logout(r.Context())
	NewResponseWriter(w, r).Success(state)
}

// Profile returns the signed-in user's account record. The profile is
// re-fetched from the backend first so review and favorite counts are
// current; if the refresh fails the stored record is served as-is.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	h.session.RefreshProfile(r.Context())

	state := h.session.State()
	if !state.IsAuthenticated {
		rw.AuthRequired()
		return
	}
	rw.Success(state.User)
}

// UpdateProfile pushes a name/email change to the backend and returns the
// updated session snapshot.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.UpdateProfileRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	state, err := h.session.UpdateProfile(r.Context(), req)
	if err != nil {
		rw.SessionError(err)
		return
	}
	rw.Success(state)
}

// ChangePassword verifies the confirmation locally, then forwards the change
// to the backend. The session itself is unaffected.
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req models.ChangePasswordRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	if err := h.session.ChangePassword(r.Context(), req); err != nil {
		rw.SessionError(err)
		return
	}
	rw.Success(models.MessageResponse{Message: "Password changed"})
}
