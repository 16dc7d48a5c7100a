// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/anupam-talentica/bookreview-client/internal/client"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/session"
	"github.com/anupam-talentica/bookreview-client/internal/validation"
)

// BackendError maps a failed backend call to a local response. Normalized
// backend errors pass their status and message through; an open circuit
// breaker becomes 503 so the dashboard can show its "backend down" banner.
func (rw *ResponseWriter) BackendError(err error) {
	if errors.Is(err, client.ErrBackendUnavailable) {
		rw.ServiceUnavailable("The book review backend is unreachable. Try again shortly.")
		return
	}

	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		rw.Error(apiErr.StatusCode, apiErr.Code, apiErr.Message)
		return
	}

	if errors.Is(err, context.DeadlineExceeded) {
		rw.Error(http.StatusGatewayTimeout, ErrCodeBackendError, "The backend took too long to answer.")
		return
	}

	logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Unclassified backend error")
	rw.Error(http.StatusBadGateway, ErrCodeBackendError, "The backend returned an unexpected error.")
}

// SessionError maps session manager failures. Password mismatches are the
// caller's mistake; everything else defers to the backend mapping.
func (rw *ResponseWriter) SessionError(err error) {
	if errors.Is(err, session.ErrPasswordMismatch) {
		rw.BadRequest("New password and confirmation do not match.")
		return
	}
	if errors.Is(err, session.ErrNotAuthenticated) {
		rw.AuthRequired()
		return
	}
	rw.BackendError(err)
}

// RequestValidationError writes the structured 400 produced by a failed
// struct validation.
func (rw *ResponseWriter) RequestValidationError(ve *validation.RequestValidationError) {
	apiErr := ve.ToAPIError()
	rw.ErrorWithDetails(http.StatusBadRequest, apiErr.Code, apiErr.Message, apiErr.Details)
}
