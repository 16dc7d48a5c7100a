// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package models

import "time"

// Recommendation is a transient, server-computed projection. The daemon
// never mutates one; the only reaction is like/dislike feedback keyed by the
// recommended book's id.
type Recommendation struct {
	Book          Book      `json:"book"`
	Explanation   string    `json:"explanation"`
	Type          string    `json:"type"` // e.g. "genre-match", "ai-personalized"
	Confidence    float64   `json:"confidence"`
	RecommendedAt time.Time `json:"recommendedAt"`
}

// RecommendationsResponse is returned by GET /books/recommendations.
type RecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
}

// AIRecommendationsResponse is returned by GET /books/ai-recommendations.
// AIAvailable false means the AI source is switched off or unreachable
// server-side; an empty list with AIAvailable true is an ordinary empty
// result, and the two must never be conflated.
type AIRecommendationsResponse struct {
	Recommendations []Recommendation `json:"recommendations"`
	AIAvailable     bool             `json:"aiAvailable"`
	Message         string           `json:"message,omitempty"`
}

// FeedbackType enumerates the accepted recommendation feedback reactions.
const (
	FeedbackLike    = "like"
	FeedbackDislike = "dislike"
)

// FeedbackRequest is the payload for POST /books/recommendations/{id}/feedback.
// It carries exactly these two fields; the backend rejects unknown ones.
type FeedbackRequest struct {
	Type             string `json:"type" validate:"required,oneof=like dislike"`
	RecommendationID int64  `json:"recommendationId" validate:"required"`
}
