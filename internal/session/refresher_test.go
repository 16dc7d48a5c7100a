// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

func TestNewRefresherAppliesDefaults(t *testing.T) {
	r := NewRefresher(nil, 0, -1)
	if r.interval != defaultRefreshInterval {
		t.Errorf("interval = %v, want %v", r.interval, defaultRefreshInterval)
	}
	if r.leeway != defaultRefreshLeeway {
		t.Errorf("leeway = %v, want %v", r.leeway, defaultRefreshLeeway)
	}
	if r.String() != "token-refresher" {
		t.Errorf("String() = %q, want token-refresher", r.String())
	}
}

func TestRefresherServeRotatesExpiringToken(t *testing.T) {
	oldToken := mintToken(t, time.Minute)
	newToken := mintToken(t, time.Hour)

	backend := &fakeBackend{
		loginFn: okLogin(oldToken),
		refreshFn: func() (*models.AuthResponse, error) {
			return &models.AuthResponse{Token: newToken, UserID: 1, Name: "Test User", Email: "t@e.com"}, nil
		},
	}
	mgr, _ := newTestManager(t, backend)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := mgr.Login(ctx, models.LoginRequest{Email: "t@e.com", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	r := NewRefresher(mgr, 10*time.Millisecond, 2*time.Minute)
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	deadline := time.After(2 * time.Second)
	for mgr.State().Token != newToken {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for token rotation")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestRefresherServeStopsOnContextCancel(t *testing.T) {
	mgr, _ := newTestManager(t, &fakeBackend{})
	ctx, cancel := context.WithCancel(context.Background())

	r := NewRefresher(mgr, time.Hour, time.Minute)
	done := make(chan error, 1)
	go func() { done <- r.Serve(ctx) }()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
