// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package models

// Book is a read-only catalog entry. Genres is a comma-joined tag string as
// delivered by the backend (e.g. "Fantasy, Adventure").
type Book struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Genres        string  `json:"genres"`
	Description   string  `json:"description,omitempty"`
	CoverImageURL string  `json:"coverImageUrl,omitempty"`
	PublishedYear int     `json:"publishedYear,omitempty"`
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// BookPage is the backend's paginated book listing.
type BookPage struct {
	Content       []Book `json:"content"`
	TotalElements int64  `json:"totalElements"`
	TotalPages    int    `json:"totalPages"`
	Number        int    `json:"number"` // zero-based page index
	Size          int    `json:"size"`
	First         bool   `json:"first"`
	Last          bool   `json:"last"`
}

// FavoriteStatus reports whether the current user has favorited a book.
type FavoriteStatus struct {
	Favorited bool `json:"favorited"`
}
