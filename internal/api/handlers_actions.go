// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package api

import (
	"net/http"

	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/validation"
)

// Mutation endpoints forward to the backend and, on success, mark the
// affected cached queries stale. They never refetch: the next view read
// does. A failed mutation leaves the cache untouched.

// AddFavorite marks a book as a favorite.
func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

// RemoveFavorite removes a book from favorites.
func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *Handler) setFavorite(w http.ResponseWriter, r *http.Request, favorited bool) {
	rw := NewResponseWriter(w, r)

	bookID, err := urlParamInt64(r, "bookID")
	if err != nil {
		rw.BadRequest("Book ID must be a positive integer")
		return
	}

	if err := h.views.SetFavorite(r.Context(), bookID, favorited); err != nil {
		rw.BackendError(err)
		return
	}
	rw.Success(models.FavoriteStatus{Favorited: favorited})
}

// CreateReview posts a review for a book.
func (h *Handler) CreateReview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	bookID, err := urlParamInt64(r, "bookID")
	if err != nil {
		rw.BadRequest("Book ID must be a positive integer")
		return
	}

	var req models.ReviewRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	review, err := h.views.CreateReview(r.Context(), bookID, req)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Created(review)
}

// UpdateReview replaces the rating and text of an existing review.
func (h *Handler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	reviewID, err := urlParamInt64(r, "reviewID")
	if err != nil {
		rw.BadRequest("Review ID must be a positive integer")
		return
	}

	var req models.ReviewRequest
	if !decodeJSON(rw, r, &req) {
		return
	}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	review, err := h.views.UpdateReview(r.Context(), reviewID, req)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Success(review)
}

// DeleteReview removes a review.
//
// The backend's delete endpoint does not return the affected book, so the
// optional bookId query parameter scopes cache invalidation to that book.
// Without it, every cached book detail is marked stale.
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	reviewID, err := urlParamInt64(r, "reviewID")
	if err != nil {
		rw.BadRequest("Review ID must be a positive integer")
		return
	}
	bookID := int64(getIntParam(r, "bookId", 0))

	if err := h.views.DeleteReview(r.Context(), reviewID, bookID); err != nil {
		rw.BackendError(err)
		return
	}
	rw.NoContent()
}

// RecommendationFeedback records a like or dislike on a recommendation.
// Feedback tunes future recommendation runs server-side; the cached
// recommendations stay as they are until refreshed.
func (h *Handler) RecommendationFeedback(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	recommendationID, err := urlParamInt64(r, "recommendationID")
	if err != nil {
		rw.BadRequest("Recommendation ID must be a positive integer")
		return
	}

	var body struct {
		Type string `json:"type"`
	}
	if !decodeJSON(rw, r, &body) {
		return
	}

	req := models.FeedbackRequest{Type: body.Type, RecommendationID: recommendationID}
	if ve := validation.ValidateStruct(&req); ve != nil {
		rw.RequestValidationError(ve)
		return
	}

	resp, err := h.views.SubmitFeedback(r.Context(), req)
	if err != nil {
		rw.BackendError(err)
		return
	}
	rw.Success(resp)
}
