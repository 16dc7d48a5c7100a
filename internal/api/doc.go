// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

// Package api serves the local dashboard surface over HTTP.
//
// The surface is deliberately small: session endpoints that drive the local
// credential lifecycle, view endpoints that return fully assembled view
// models, mutation endpoints that write through to the backend and
// invalidate the query cache, a WebSocket endpoint for pushed session and
// invalidation events, and health/metrics endpoints for operators.
//
// Every response uses one envelope (APIResponse) so the dashboard renders
// success and failure the same way everywhere. Routing is Chi with
// per-group middleware: strict rate limits on the session endpoints,
// permissive ones on cached view reads, and a session gate on everything
// personal.
package api
