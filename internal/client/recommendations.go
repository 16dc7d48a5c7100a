// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"context"
	"fmt"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// Recommendations fetches heuristic recommendations for the authenticated
// user (favorites-based, genre-affinity, rating-weighted).
func (c *Client) Recommendations(ctx context.Context) (*models.RecommendationsResponse, error) {
	var resp models.RecommendationsResponse
	if err := c.get(ctx, "recommendations", "/books/recommendations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AIRecommendations fetches model-generated recommendations. When the AI
// service is down the backend still answers 200 with aiAvailable=false and
// an explanatory message; callers must treat that as "unavailable", not as
// an empty result.
func (c *Client) AIRecommendations(ctx context.Context) (*models.AIRecommendationsResponse, error) {
	var resp models.AIRecommendationsResponse
	if err := c.get(ctx, "ai_recommendations", "/books/ai-recommendations", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitRecommendationFeedback records a like/dislike verdict on a
// recommended book. The body carries exactly the feedback type and the
// recommendation identifier.
func (c *Client) SubmitRecommendationFeedback(ctx context.Context, req models.FeedbackRequest) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	path := fmt.Sprintf("/books/recommendations/%d/feedback", req.RecommendationID)
	if err := c.post(ctx, "recommendation_feedback", path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
