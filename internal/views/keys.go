// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import "fmt"

// Cache resource names. Per-book resources embed the book ID in the resource
// itself ("book/42") so a mutation can invalidate one book's entries without
// evicting its siblings, while the bare family prefix ("book/") still sweeps
// them all when the book is unknown.
const (
	resourceTopRated          = "top-rated"
	resourcePopular           = "popular"
	resourceRecent            = "recent"
	resourceBooks             = "books"
	resourceSearch            = "search"
	resourceFavorites         = "favorites"
	resourceMyReviews         = "my-reviews"
	resourceRecommendations   = "recommendations"
	resourceAIRecommendations = "ai-recommendations"
)

func bookResource(bookID int64) string {
	return fmt.Sprintf("book/%d", bookID)
}

func bookReviewsResource(bookID int64) string {
	return fmt.Sprintf("book-reviews/%d", bookID)
}

func similarBooksResource(bookID int64) string {
	return fmt.Sprintf("similar-books/%d", bookID)
}

func favoriteStatusResource(bookID int64) string {
	return fmt.Sprintf("favorite-status/%d", bookID)
}

// Query parameter records hashed into cache keys. Field order is fixed so
// identical parameters always produce identical keys.

type limitParams struct {
	Limit int `json:"limit"`
}

type pageParams struct {
	Page int    `json:"page"`
	Size int    `json:"size"`
	Sort string `json:"sort,omitempty"`
}

type searchParams struct {
	Query string `json:"query"`
	Page  int    `json:"page"`
	Size  int    `json:"size"`
}

type idParams struct {
	ID int64 `json:"id"`
}

// seqParams salts recommendation keys with the refresh counter; bumping the
// counter makes a fresh key, which forces a refetch on the next read.
type seqParams struct {
	Seq int64 `json:"seq"`
}
