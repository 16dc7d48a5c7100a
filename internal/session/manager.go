// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package session owns the daemon's authentication state.

All state changes funnel through a single transition mechanism: explicit
logout additionally invalidates the token remotely, while the API client's
401 interceptor lands in the same local clearing path, so there is exactly
one way the session ends. Token and user are persisted as one encrypted
record in a single transaction; a token can never outlive its user record.
*/
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/client"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/metrics"
	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// Session errors surfaced to callers.
var (
	// ErrPasswordMismatch is returned before any network call when the new
	// password and its confirmation differ.
	ErrPasswordMismatch = errors.New("new password and confirmation do not match")

	// ErrNotAuthenticated is returned by operations that require a session.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// Operation-specific fallback messages, used when the backend error carries
// no message of its own.
const (
	loginFallbackMessage    = "Login failed. Please try again."
	registerFallbackMessage = "Registration failed. Please try again."
)

// State is an immutable snapshot of the session. The zero value is
// "unauthenticated, not loading".
type State struct {
	User            *models.User `json:"user"`
	Token           string       `json:"-"`
	IsAuthenticated bool         `json:"isAuthenticated"`
	Loading         bool         `json:"loading"`
	Error           string       `json:"error,omitempty"`
}

// Manager is the auth state store. Every mutation flows through apply or
// clearSession, which record metrics, log the transition, and publish a
// session.changed event.
type Manager struct {
	// mu guards state. Backend calls are never made while holding mu: the
	// client's 401 handler calls back into clearSession, which locks it.
	mu    sync.RWMutex
	state State

	backend client.Backend
	store   *Store
	bus     *bus.Bus

	// syncProfileAfterLogin controls the background profile fetch that
	// reconciles the synthesized zero-count user after login.
	syncProfileAfterLogin bool
	profileSyncTimeout    time.Duration
}

// NewManager creates the session manager. eventBus may be nil. The initial
// state is loading until Bootstrap runs.
func NewManager(backend client.Backend, store *Store, eventBus *bus.Bus) *Manager {
	return &Manager{
		state:                 State{Loading: true},
		backend:               backend,
		store:                 store,
		bus:                   eventBus,
		syncProfileAfterLogin: true,
		profileSyncTimeout:    15 * time.Second,
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// apply runs one state mutation and fires the transition side effects.
func (m *Manager) apply(ctx context.Context, transition string, mutate func(*State)) State {
	m.mu.Lock()
	mutate(&m.state)
	snapshot := m.state
	m.mu.Unlock()

	m.afterTransition(ctx, transition, snapshot)
	return snapshot
}

// afterTransition records metrics, logs, and publishes the bus event for a
// completed transition.
func (m *Manager) afterTransition(ctx context.Context, transition string, snapshot State) {
	metrics.RecordSessionTransition(transition)
	metrics.SetSessionAuthenticated(snapshot.IsAuthenticated)

	logging.Ctx(ctx).Debug().
		Str("transition", transition).
		Bool("authenticated", snapshot.IsAuthenticated).
		Msg("Session transition")

	if m.bus == nil {
		return
	}
	var userID int64
	if snapshot.User != nil {
		userID = snapshot.User.ID
	}
	err := m.bus.PublishSessionChanged(ctx, bus.SessionEvent{
		Transition:    transition,
		Authenticated: snapshot.IsAuthenticated,
		UserID:        userID,
	})
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to publish session event")
	}
}

// clearSession is the single local logout path. Explicit logout and the 401
// interceptor both land here; the store and the in-memory state are cleared
// under one lock so no observer sees them diverge.
func (m *Manager) clearSession(ctx context.Context, transition string) State {
	m.mu.Lock()
	if err := m.store.Clear(ctx); err != nil {
		logging.Ctx(ctx).Error().Err(err).Msg("Failed to clear persisted credentials")
	}
	m.state = State{}
	snapshot := m.state
	m.mu.Unlock()

	m.afterTransition(ctx, transition, snapshot)
	return snapshot
}

// Bootstrap restores the session from the persisted record. With a record
// present the token is validated against the backend; a rejected or
// unverifiable token clears the record and the daemon starts out
// unauthenticated. Bootstrap itself never fails the startup.
func (m *Manager) Bootstrap(ctx context.Context) error {
	creds, err := m.store.Load(ctx)
	if errors.Is(err, ErrNoCredentials) {
		m.apply(ctx, "bootstrap", func(s *State) { *s = State{} })
		return nil
	}
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Unreadable credential record, clearing")
		m.clearSession(ctx, "bootstrap")
		return nil
	}
	if creds.Token == "" || creds.User.ID == 0 {
		m.clearSession(ctx, "bootstrap")
		return nil
	}

	// The store-backed token source already serves this token, so the
	// validate call carries it.
	if err := m.backend.ValidateToken(ctx); err != nil {
		logging.Ctx(ctx).Info().Err(err).Msg("Persisted token rejected, starting unauthenticated")
		m.clearSession(ctx, "bootstrap")
		return nil
	}

	// Authenticated with the persisted user record, not a fresh profile.
	user := creds.User
	m.apply(ctx, "bootstrap", func(s *State) {
		s.User = &user
		s.Token = creds.Token
		s.IsAuthenticated = true
		s.Loading = false
		s.Error = ""
	})
	logging.Ctx(ctx).Info().Int64("user_id", user.ID).Msg("Session restored from persisted credentials")
	return nil
}

// Login exchanges credentials for a session. The login response carries only
// identity fields, so the stored user starts with zeroed stats and a
// background profile sync fills them in. Persist and state transition happen
// under one lock, as in adoptUser; a persistence failure fails the login.
func (m *Manager) Login(ctx context.Context, req models.LoginRequest) (State, error) {
	m.apply(ctx, "login_start", func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	resp, err := m.backend.Login(ctx, req)
	if err != nil {
		msg := errorMessage(err, loginFallbackMessage)
		state := m.apply(ctx, "login_failed", func(s *State) {
			*s = State{Error: msg}
		})
		return state, err
	}

	user := synthesizeUser(resp)
	m.mu.Lock()
	if err := m.store.Save(ctx, Credentials{Token: resp.Token, User: user}); err != nil {
		m.state = State{Error: "Could not persist session"}
		snapshot := m.state
		m.mu.Unlock()
		m.afterTransition(ctx, "login_failed", snapshot)
		return snapshot, fmt.Errorf("persist credentials: %w", err)
	}
	u := user
	m.state = State{
		User:            &u,
		Token:           resp.Token,
		IsAuthenticated: true,
	}
	snapshot := m.state
	m.mu.Unlock()
	m.afterTransition(ctx, "login", snapshot)

	if m.syncProfileAfterLogin {
		go m.backgroundProfileSync()
	}
	return snapshot, nil
}

// Register creates an account and, on success, immediately logs in with the
// same credentials: registration does not itself establish a session.
func (m *Manager) Register(ctx context.Context, req models.RegisterRequest) (State, error) {
	m.apply(ctx, "register_start", func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	if _, err := m.backend.Register(ctx, req); err != nil {
		msg := errorMessage(err, registerFallbackMessage)
		state := m.apply(ctx, "register_failed", func(s *State) {
			*s = State{Error: msg}
		})
		return state, err
	}

	return m.Login(ctx, models.LoginRequest{Email: req.Email, Password: req.Password})
}

// Logout invalidates the token remotely on a best-effort basis and then
// unconditionally clears the local session. A failed network call is logged,
// never surfaced: logout always succeeds from the caller's perspective.
func (m *Manager) Logout(ctx context.Context) State {
	if err := m.backend.Logout(ctx); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Remote logout failed, clearing local session anyway")
	}
	return m.clearSession(ctx, "logout")
}

// HandleUnauthorized is the API client's 401 interceptor target. It performs
// a local-only logout through the same path as Logout; no remote call, so a
// dead token cannot cause a loop.
func (m *Manager) HandleUnauthorized(ctx context.Context, path string) {
	logging.Ctx(ctx).Warn().Str("path", path).Msg("Forced logout after unauthorized response")
	m.clearSession(ctx, "forced_logout")
}

// UpdateProfile pushes a profile change and adopts the returned user record.
func (m *Manager) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (State, error) {
	if !m.State().IsAuthenticated {
		return m.State(), ErrNotAuthenticated
	}
	user, err := m.backend.UpdateProfile(ctx, req)
	if err != nil {
		return m.State(), err
	}
	return m.adoptUser(ctx, "profile_updated", user)
}

// ChangePassword verifies the confirmation locally before any network call,
// then forwards to the backend. It does not alter session state.
func (m *Manager) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	if req.NewPassword != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if !m.State().IsAuthenticated {
		return ErrNotAuthenticated
	}
	if err := m.backend.ChangePassword(ctx, req); err != nil {
		return err
	}
	logging.Ctx(ctx).Info().Msg("Password changed")
	return nil
}

// RefreshProfile re-fetches the profile and replaces the cached user record.
// Failures are logged and swallowed: this is best-effort background sync.
func (m *Manager) RefreshProfile(ctx context.Context) {
	if !m.State().IsAuthenticated {
		return
	}
	user, err := m.backend.Profile(ctx)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Profile refresh failed")
		return
	}
	if _, err := m.adoptUser(ctx, "profile_refreshed", user); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Profile refresh not applied")
	}
}

// adoptUser persists and installs a new user record for the current token.
// Persist and state update happen under one lock so a concurrent forced
// logout cannot interleave and resurrect cleared credentials.
func (m *Manager) adoptUser(ctx context.Context, transition string, user *models.User) (State, error) {
	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.Token == "" {
		snapshot := m.state
		m.mu.Unlock()
		return snapshot, ErrNotAuthenticated
	}
	if err := m.store.Save(ctx, Credentials{Token: m.state.Token, User: *user}); err != nil {
		snapshot := m.state
		m.mu.Unlock()
		return snapshot, fmt.Errorf("persist credentials: %w", err)
	}
	m.state.User = user
	snapshot := m.state
	m.mu.Unlock()

	m.afterTransition(ctx, transition, snapshot)
	return snapshot, nil
}

// RefreshTokenIfNeeded rotates the bearer token when its exp claim falls
// within leeway. Opaque tokens (no parseable exp) are left alone.
func (m *Manager) RefreshTokenIfNeeded(ctx context.Context, leeway time.Duration) error {
	snapshot := m.State()
	if !snapshot.IsAuthenticated || snapshot.Token == "" {
		return nil
	}
	expiry, ok := tokenExpiry(snapshot.Token)
	if !ok {
		return nil
	}
	if time.Until(expiry) > leeway {
		return nil
	}

	resp, err := m.backend.RefreshToken(ctx)
	if err != nil {
		metrics.RecordTokenRefresh(false)
		return fmt.Errorf("refresh token: %w", err)
	}

	m.mu.Lock()
	if !m.state.IsAuthenticated || m.state.User == nil {
		// Logged out while the refresh was in flight.
		m.mu.Unlock()
		return nil
	}
	if err := m.store.Save(ctx, Credentials{Token: resp.Token, User: *m.state.User}); err != nil {
		m.mu.Unlock()
		metrics.RecordTokenRefresh(false)
		return fmt.Errorf("persist refreshed token: %w", err)
	}
	m.state.Token = resp.Token
	snapshot = m.state
	m.mu.Unlock()

	metrics.RecordTokenRefresh(true)
	m.afterTransition(ctx, "token_refreshed", snapshot)
	logging.Ctx(ctx).Info().Time("old_expiry", expiry).Msg("Bearer token rotated")
	return nil
}

func (m *Manager) backgroundProfileSync() {
	ctx, cancel := context.WithTimeout(context.Background(), m.profileSyncTimeout)
	defer cancel()
	m.RefreshProfile(ctx)
}

// synthesizeUser builds a User from the identity fields in a login response.
// Stats default to zero until the background profile sync replaces them.
func synthesizeUser(resp *models.AuthResponse) models.User {
	return models.User{
		ID:                 resp.UserID,
		Name:               resp.Name,
		Email:              resp.Email,
		EmailVerified:      true,
		Active:             true,
		ReviewCount:        0,
		FavoriteBooksCount: 0,
	}
}

// tokenExpiry extracts the exp claim without verifying the signature. The
// daemon never trusts the claim for authorization, only for scheduling the
// proactive refresh.
func tokenExpiry(raw string) (time.Time, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// errorMessage prefers the backend's message and falls back to an
// operation-specific default.
func errorMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
