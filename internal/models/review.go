// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package models

import "time"

// Review is a (user, book) rating pairing with optional free text. Only the
// owning user may edit or delete it; the backend enforces ownership.
type Review struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"bookId"`
	UserID    int64     `json:"userId"`
	UserName  string    `json:"userName,omitempty"`
	BookTitle string    `json:"bookTitle,omitempty"` // populated on my-reviews listings
	Rating    int       `json:"rating"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// ReviewRequest is the payload for creating or updating a review.
type ReviewRequest struct {
	Rating int    `json:"rating" validate:"required,min=1,max=5"`
	Text   string `json:"text" validate:"max=5000"`
}
