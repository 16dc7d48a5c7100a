// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import (
	"context"

	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/query"
)

// Mutations run the backend write and then invalidate the cache prefixes
// that write made stale. Invalidation marks entries; the refetch happens on
// the next read of the affected view. A failed write invalidates nothing.

// favoritePrefixes is what a favorite toggle makes stale: the toggled
// book's status, the favorites shelf, and the personalized picks that are
// derived from favorites.
func favoritePrefixes(bookID int64) []string {
	return []string{
		query.Prefix(favoriteStatusResource(bookID)),
		query.Prefix(resourceFavorites),
		query.Prefix(resourceRecommendations),
	}
}

// reviewPrefixes is what a review write makes stale: the book's review list,
// the book record (its average rating and review count shift), the user's
// review history, and the rating-ordered home shelf.
func reviewPrefixes(bookID int64) []string {
	return []string{
		query.Prefix(bookReviewsResource(bookID)),
		query.Prefix(bookResource(bookID)),
		query.Prefix(resourceMyReviews),
		query.Prefix(resourceTopRated),
	}
}

// reviewFamilyPrefixes covers a review write whose book is unknown: every
// per-book entry is swept instead of one.
func reviewFamilyPrefixes() []string {
	return []string{
		"book-reviews/",
		"book/",
		query.Prefix(resourceMyReviews),
		query.Prefix(resourceTopRated),
	}
}

// SetFavorite adds or removes a favorite.
func (b *Builder) SetFavorite(ctx context.Context, bookID int64, favorited bool) error {
	call := b.backend.RemoveFavorite
	if favorited {
		call = b.backend.AddFavorite
	}
	return b.cache.Mutate(ctx, func(ctx context.Context) error {
		return call(ctx, bookID)
	}, favoritePrefixes(bookID)...)
}

// CreateReview posts a new review for a book.
func (b *Builder) CreateReview(ctx context.Context, bookID int64, req models.ReviewRequest) (*models.Review, error) {
	return query.Mutate(ctx, b.cache, func(ctx context.Context) (*models.Review, error) {
		return b.backend.CreateReview(ctx, bookID, req)
	}, reviewPrefixes(bookID)...)
}

// UpdateReview edits an existing review. The affected book is taken from
// the updated record, so invalidation waits for the backend to answer.
func (b *Builder) UpdateReview(ctx context.Context, reviewID int64, req models.ReviewRequest) (*models.Review, error) {
	review, err := b.backend.UpdateReview(ctx, reviewID, req)
	if err != nil {
		return nil, err
	}
	b.cache.InvalidateAll(ctx, reviewPrefixes(review.BookID)...)
	return review, nil
}

// DeleteReview removes a review. bookID scopes the invalidation; pass zero
// when the caller does not know which book the review belonged to.
func (b *Builder) DeleteReview(ctx context.Context, reviewID, bookID int64) error {
	prefixes := reviewPrefixes(bookID)
	if bookID <= 0 {
		prefixes = reviewFamilyPrefixes()
	}
	return b.cache.Mutate(ctx, func(ctx context.Context) error {
		return b.backend.DeleteReview(ctx, reviewID)
	}, prefixes...)
}

// SubmitFeedback records a like or dislike on a recommendation. Feedback
// tunes future batches; the current batch stays cached, so nothing is
// invalidated.
func (b *Builder) SubmitFeedback(ctx context.Context, req models.FeedbackRequest) (*models.MessageResponse, error) {
	return b.backend.SubmitRecommendationFeedback(ctx, req)
}
