// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package query

import (
	"context"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/logging"
)

const defaultSweepInterval = 5 * time.Minute

// Janitor periodically sweeps stale and expired entries out of the cache.
// It runs as a supervised service.
type Janitor struct {
	cache    *Cache
	interval time.Duration
}

// NewJanitor creates a janitor for cache. A non-positive interval falls
// back to the 5 minute default.
func NewJanitor(cache *Cache, interval time.Duration) *Janitor {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &Janitor{cache: cache, interval: interval}
}

// Serve sweeps on every tick until the context is cancelled.
func (j *Janitor) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := j.cache.Sweep(); evicted > 0 {
				logging.Ctx(ctx).Debug().Int("evicted", evicted).Msg("Cache sweep removed entries")
			}
		}
	}
}

func (j *Janitor) String() string {
	return "cache-janitor"
}
