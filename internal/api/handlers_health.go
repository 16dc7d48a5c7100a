// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"net/http"
	"time"
)

// HealthStatus is the payload of GET /api/v1/health.
type HealthStatus struct {
	Status           string      `json:"status"`
	Version          string      `json:"version"`
	Uptime           float64     `json:"uptime"`
	SessionLoaded    bool        `json:"sessionLoaded"`
	Authenticated    bool        `json:"authenticated"`
	BackendCircuit   string      `json:"backendCircuit,omitempty"`
	WebSocketClients int         `json:"websocketClients"`
	Cache            CacheHealth `json:"cache"`
}

// CacheHealth summarizes query-cache counters for health output.
type CacheHealth struct {
	Keys    int64   `json:"keys"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Health returns full gateway health: session store readiness, backend
// circuit state, cache counters, and uptime. The gateway holds no database
// of its own; "degraded" means the backend circuit is open, and "starting"
// means the persisted session has not finished loading.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	state := h.session.State()

	status := "healthy"
	if state.Loading {
		status = "starting"
	}

	circuit := ""
	if h.breaker != nil {
		circuit = h.breaker.State()
		if circuit == "open" {
			status = "degraded"
		}
	}

	health := HealthStatus{
		Status:         status,
		Version:        "1.0.0",
		Uptime:         time.Since(h.startTime).Seconds(),
		SessionLoaded:  !state.Loading,
		Authenticated:  state.IsAuthenticated,
		BackendCircuit: circuit,
	}
	if h.wsHub != nil {
		health.WebSocketClients = h.wsHub.GetClientCount()
	}
	if h.cache != nil {
		stats := h.cache.GetStats()
		health.Cache = CacheHealth{
			Keys:    stats.TotalKeys,
			Hits:    stats.Hits,
			Misses:  stats.Misses,
			HitRate: h.cache.HitRate(),
		}
	}

	NewResponseWriter(w, r).Success(health)
}

// HealthLive is the liveness probe. It answers 200 whenever the process is
// alive, regardless of dependencies.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"alive":  true,
		"uptime": time.Since(h.startTime).Seconds(),
	})
}

// HealthReady is the readiness probe. The gateway is ready once the
// persisted session has been loaded; an unreachable backend does not block
// readiness because cached and empty-state views still serve.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	state := h.session.State()
	ready := !state.Loading

	data := map[string]interface{}{
		"ready":         ready,
		"sessionLoaded": !state.Loading,
		"uptime":        time.Since(h.startTime).Seconds(),
	}

	if !ready {
		rw.writeJSON(http.StatusServiceUnavailable, APIResponse{Success: false, Data: data})
		return
	}
	rw.Success(data)
}
