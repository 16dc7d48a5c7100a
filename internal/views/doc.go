// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

// Package views assembles dashboard view models from cached backend queries.
//
// A view model is the complete, renderable payload for one dashboard screen:
// the home shelves, the paged catalog, a book detail page, search results,
// the signed-in user's favorites and reviews, and the recommendations tabs.
// Every section of a view resolves to exactly one state (ready, empty, error,
// or unavailable) so the UI never has to guess how to render a partial
// failure: one home shelf can error while its siblings render normally.
//
// All reads flow through the query cache, so repeated renders within a
// resource's stale window cost no backend round trips. Mutations (favorite
// toggles, review writes, recommendation feedback) run against the backend
// and then invalidate the affected cache prefixes; they never refetch.
package views
