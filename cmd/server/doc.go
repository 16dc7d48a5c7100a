// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package main is the entry point for the bookreviewd daemon.

Bookreviewd is a self-hosted, single-user gateway in front of a remote book
review backend. It owns the session with the backend, assembles dashboard
view models (home shelves, catalog, search, favorites, reviews,
recommendations), caches them with stale-time semantics, and pushes
invalidation events to connected clients over WebSocket.

# Application Architecture

The daemon implements a layered architecture with Suture v4 process
supervision:

	RootSupervisor ("bookreviewd")
	├── DataSupervisor ("data-layer")
	│   ├── Janitor (cache sweep)
	│   └── Refresher (proactive token refresh)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket Hub (real-time pushes)
	│   └── Forwarder (event bus -> WebSocket bridge)
	└── APISupervisor ("api-layer")
	    └── HTTP Server (local REST surface)

Component initialization order:

 1. Configuration: Koanf v2 with environment variables and config files
 2. Logging: zerolog with JSON/console output modes
 3. Credential store: BadgerDB with optional AES-GCM encryption at rest
 4. Backend client: typed REST client with retry, rate limit, circuit breaker
 5. Session manager: login/logout/refresh state machine over the client
 6. Query cache: stale-time cache with singleflight deduplication
 7. Event bus: Watermill in-process pub/sub
 8. WebSocket hub and forwarder: real-time invalidation pushes
 9. View builder: dashboard view assembly over cache and session
 10. Supervisor tree: Suture v4 process supervision
 11. HTTP server: Chi router with middleware stack

# Configuration

Configuration is loaded via Koanf v2 with layered sources (highest priority
wins):

	Priority: Environment variables > Config file > Defaults

Core environment variables:

	# Server
	HTTP_PORT=8390               # Local HTTP port
	HTTP_HOST=127.0.0.1          # Bind address (local by default)
	LOG_LEVEL=info               # trace, debug, info, warn, error
	LOG_FORMAT=json              # json or console

	# Backend (required)
	BACKEND_URL=https://bookreview.example.com/api
	BACKEND_TIMEOUT=30s
	BACKEND_MAX_RETRIES=3        # Retry budget for 429 responses
	BACKEND_BREAKER_ENABLED=true

	# Credential store
	DATA_DIR=/data/bookreviewd
	ENCRYPTION_KEY=<base64, decoded >= 16 bytes; empty = plaintext>

	# Cache stale times
	CACHE_DEFAULT_STALE_TIME=1m
	CACHE_RECOMMENDATION_STALE_TIME=5m
	CACHE_AI_RECOMMENDATION_STALE_TIME=10m

See internal/config for the complete reference, including the YAML config
file layout.

# Session Bootstrap

On startup the daemon loads persisted credentials from the store, adopts
them optimistically, and validates the token against the backend in the
background. A stale token clears the session; the dashboard then renders
anonymous views until the next login.

# Signal Handling

The daemon handles graceful shutdown on SIGINT and SIGTERM:

 1. Stops accepting new HTTP connections
 2. Closes WebSocket clients
 3. Waits for in-flight requests (shutdown timeout, default 10s)
 4. Reports any services that failed to stop
 5. Closes the credential store

# Usage Examples

Development:

	export BACKEND_URL=http://localhost:9090/api
	export DATA_DIR=./data
	go run ./cmd/server

Production:

	export BACKEND_URL=https://bookreview.example.com/api
	export ENCRYPTION_KEY=$(openssl rand -base64 32)
	./bookreviewd

Docker:

	docker run -d \
	  -e BACKEND_URL=https://bookreview.example.com/api \
	  -e ENCRYPTION_KEY=$(openssl rand -base64 32) \
	  -v bookreviewd-data:/data/bookreviewd \
	  -p 127.0.0.1:8390:8390 \
	  ghcr.io/anupam-talentica/bookreview-client

# See Also

  - internal/config: Configuration management
  - internal/supervisor: Process supervision
  - internal/api: HTTP handlers and routing
  - internal/session: Session lifecycle and credential persistence
  - internal/views: Dashboard view assembly
*/
package main
