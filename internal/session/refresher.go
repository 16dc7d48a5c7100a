// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package session

import (
	"context"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/logging"
)

const (
	defaultRefreshInterval = time.Minute
	defaultRefreshLeeway   = 2 * time.Minute
)

// Refresher periodically asks the manager to rotate the bearer token before
// it expires. It runs under the supervision tree.
type Refresher struct {
	manager  *Manager
	interval time.Duration
	leeway   time.Duration
}

// NewRefresher creates a token refresher. Non-positive durations fall back
// to the defaults (1 minute interval, 2 minute leeway).
func NewRefresher(manager *Manager, interval, leeway time.Duration) *Refresher {
	if interval <= 0 {
		interval = defaultRefreshInterval
	}
	if leeway <= 0 {
		leeway = defaultRefreshLeeway
	}
	return &Refresher{
		manager:  manager,
		interval: interval,
		leeway:   leeway,
	}
}

// Serve runs the refresh loop until ctx is canceled.
func (r *Refresher) Serve(ctx context.Context) error {
	logging.Info().
		Dur("interval", r.interval).
		Dur("leeway", r.leeway).
		Msg("Token refresher started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("Token refresher stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := r.manager.RefreshTokenIfNeeded(ctx, r.leeway); err != nil {
				logging.Warn().Err(err).Msg("Token refresh failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (r *Refresher) String() string {
	return "token-refresher"
}
