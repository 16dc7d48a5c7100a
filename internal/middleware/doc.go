// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package middleware provides per-handler HTTP middleware for the local API
surface.

Both components take and return http.HandlerFunc so they can wrap a single
handler directly or be lifted into a Chi middleware by the api package's
router:

  - Compression: gzip encoding for clients that accept it. View responses
    are JSON book listings that typically shrink 70-90%.
  - PrometheusMetrics: request count, duration histogram, and in-flight
    gauge per endpoint. Endpoint labels use the matched Chi route pattern,
    not the raw path, so book and review IDs do not explode cardinality.

Route-level concerns that need configuration (CORS, rate limit tiers,
security headers, request IDs) live in the api package's ChiMiddleware
factory; metric definitions live in internal/metrics.

Thread Safety:

Both middleware are safe for concurrent use: compression draws writers from
a sync.Pool per request, and the metrics middleware touches only atomic
Prometheus collectors.
*/
package middleware
