// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"net/http"

	"github.com/anupam-talentica/bookreview-client/internal/views"
)

// View endpoints return assembled view models with HTTP 200 regardless of
// section outcome: per-section state ("ready", "empty", "error",
// "unavailable") travels inside the payload so the dashboard renders exactly
// what it receives. Non-2xx answers are reserved for problems with the
// request itself.

// HomeView returns the three home shelves: top rated, popular, recent.
func (h *Handler) HomeView(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.views.Home(r.Context()))
}

// BooksView returns one page of the paginated catalog.
//
// Query parameters:
//   - page: zero-based page index (default 0), matching the backend's and the
//     payload's number field
//   - size: page size, clamped to the configured maximum
//   - sort: backend sort expression, e.g. "title,asc"
func (h *Handler) BooksView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	page := getIntParam(r, "page", 0)
	size := getIntParam(r, "size", 0)
	sort := r.URL.Query().Get("sort")

	view := h.views.Books(r.Context(), page, size, sort)
	rw.SuccessWithPagination(view, PaginationFromPage(view.Page))
}

// BookDetailView returns one book with its reviews, similar books, and, for
// a signed-in user, favorite status. A missing book is a view in the error
// state, not an HTTP 404: the route resolved, the book didn't.
func (h *Handler) BookDetailView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	bookID, err := urlParamInt64(r, "bookID")
	if err != nil {
		rw.BadRequest("Book ID must be a positive integer")
		return
	}
	rw.Success(h.views.BookDetail(r.Context(), bookID))
}

// SearchView searches the catalog by title or author.
//
// Query parameters:
//   - q: search terms; blank returns the empty prompt state without a
//     backend call
//   - page, size: pagination, as in BooksView
func (h *Handler) SearchView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	query := r.URL.Query().Get("q")
	page := getIntParam(r, "page", 0)
	size := getIntParam(r, "size", 0)

	view := h.views.Search(r.Context(), query, page, size)
	rw.SuccessWithPagination(view, PaginationFromPage(view.Page))
}

// FavoritesView returns the signed-in user's favorite books.
func (h *Handler) FavoritesView(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.views.Favorites(r.Context()))
}

// MyReviewsView returns the signed-in user's reviews.
func (h *Handler) MyReviewsView(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(h.views.MyReviews(r.Context()))
}

// RecommendationsView returns one recommendations tab.
//
// Query parameters:
//   - tab: "personalized" (default) or "ai"
func (h *Handler) RecommendationsView(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	tab, err := views.ParseTab(r.URL.Query().Get("tab"))
	if err != nil {
		rw.BadRequest(`Tab must be "personalized" or "ai"`)
		return
	}
	rw.Success(h.views.Recommendations(r.Context(), tab))
}

// RefreshRecommendations discards both recommendation tabs' cached results.
// The next read of either tab fetches fresh data; the refresh itself fetches
// nothing.
func (h *Handler) RefreshRecommendations(w http.ResponseWriter, r *http.Request) {
	seq := h.views.RefreshRecommendations(r.Context())
	NewResponseWriter(w, r).Success(map[string]interface{}{
		"refreshSeq": seq,
	})
}
