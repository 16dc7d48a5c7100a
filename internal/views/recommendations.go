// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import (
	"context"
	"fmt"

	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/query"
)

// Tab selects which recommendation source a RecommendationsView renders.
type Tab string

const (
	// TabPersonalized is the default engine-computed source.
	TabPersonalized Tab = "personalized"

	// TabAI is the LLM-backed source. It can be switched off server-side,
	// which surfaces as StateUnavailable rather than an empty list.
	TabAI Tab = "ai"
)

// ParseTab normalizes a tab query parameter. Empty selects the personalized
// tab; anything other than the two known tabs is an error.
func ParseTab(raw string) (Tab, error) {
	switch Tab(raw) {
	case "", TabPersonalized:
		return TabPersonalized, nil
	case TabAI:
		return TabAI, nil
	default:
		return "", fmt.Errorf("unknown recommendations tab %q", raw)
	}
}

// RecommendationsView is one recommendations tab. The two tabs cache
// independently: switching back within a source's stale window renders
// instantly from cache.
type RecommendationsView struct {
	ActiveTab  Tab   `json:"activeTab"`
	RefreshSeq int64 `json:"refreshSeq"`

	State           State                   `json:"state"`
	Recommendations []models.Recommendation `json:"recommendations,omitempty"`
	Message         string                  `json:"message,omitempty"`
	Retryable       bool                    `json:"retryable,omitempty"`
}

// Recommendations assembles the requested tab for the signed-in user.
func (b *Builder) Recommendations(ctx context.Context, tab Tab) RecommendationsView {
	seq := b.refreshSeq.Load()
	if tab == TabAI {
		return b.aiRecommendations(ctx, seq)
	}
	return b.personalizedRecommendations(ctx, seq)
}

func (b *Builder) personalizedRecommendations(ctx context.Context, seq int64) RecommendationsView {
	view := RecommendationsView{ActiveTab: TabPersonalized, RefreshSeq: seq}
	key := query.Key(resourceRecommendations, seqParams{Seq: seq})
	resp, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) (*models.RecommendationsResponse, error) {
		return b.backend.Recommendations(ctx)
	}, query.Options{StaleTime: b.cfg.RecommendationStaleTime, Enabled: b.authenticated()})
	if err != nil {
		view.State = StateError
		view.Message, view.Retryable = classify(err, loadFailedMessage)
		return view
	}
	if resp == nil || len(resp.Recommendations) == 0 {
		view.State = StateEmpty
		view.Message = "Favorite or review a few books to unlock personalized picks."
		return view
	}
	view.State = StateReady
	view.Recommendations = resp.Recommendations
	return view
}

func (b *Builder) aiRecommendations(ctx context.Context, seq int64) RecommendationsView {
	view := RecommendationsView{ActiveTab: TabAI, RefreshSeq: seq}
	key := query.Key(resourceAIRecommendations, seqParams{Seq: seq})
	resp, err := query.Fetch(ctx, b.cache, key, func(ctx context.Context) (*models.AIRecommendationsResponse, error) {
		return b.backend.AIRecommendations(ctx)
	}, query.Options{StaleTime: b.cfg.AIRecommendationStaleTime, Enabled: b.authenticated()})
	if err != nil {
		view.State = StateError
		view.Message, view.Retryable = classify(err, loadFailedMessage)
		return view
	}
	if resp == nil || !resp.AIAvailable {
		// The source itself is off, not merely out of suggestions.
		view.State = StateUnavailable
		view.Message = "AI recommendations are not available right now."
		if resp != nil && resp.Message != "" {
			view.Message = resp.Message
		}
		return view
	}
	if len(resp.Recommendations) == 0 {
		view.State = StateEmpty
		view.Message = "The AI has no picks for you yet. Favorite a few books and refresh."
		return view
	}
	view.State = StateReady
	view.Recommendations = resp.Recommendations
	return view
}

// RefreshRecommendations bumps the refresh counter, retiring every cached
// recommendation entry for both tabs, and returns the new sequence. The next
// read of either tab fetches a fresh batch; nothing is refetched here.
func (b *Builder) RefreshRecommendations(ctx context.Context) int64 {
	seq := b.refreshSeq.Add(1)
	b.cache.InvalidateAll(ctx,
		query.Prefix(resourceRecommendations),
		query.Prefix(resourceAIRecommendations),
	)
	return seq
}
