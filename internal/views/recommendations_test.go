// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import (
	"context"
	"errors"
	"testing"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

func recommendationsOf(n int) []models.Recommendation {
	recs := make([]models.Recommendation, n)
	for i := range recs {
		recs[i] = models.Recommendation{
			Book:        models.Book{ID: int64(i + 1), Title: "Pick"},
			Explanation: "Because you liked things",
		}
	}
	return recs
}

func TestParseTab(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    Tab
		wantErr bool
	}{
		{raw: "", want: TabPersonalized},
		{raw: "personalized", want: TabPersonalized},
		{raw: "ai", want: TabAI},
		{raw: "AI", wantErr: true},
		{raw: "bogus", wantErr: true},
	}
	for _, tt := range tests {
		t.Run("raw="+tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := ParseTab(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseTab(%q) = %q, want error", tt.raw, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseTab(%q): %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("ParseTab(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestRecommendationTabsCacheIndependently(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		recsFn: func() (*models.RecommendationsResponse, error) {
			return &models.RecommendationsResponse{Recommendations: recommendationsOf(2)}, nil
		},
		aiFn: func() (*models.AIRecommendationsResponse, error) {
			return &models.AIRecommendationsResponse{
				Recommendations: recommendationsOf(1),
				AIAvailable:     true,
			}, nil
		},
	}
	b := testBuilder(t, backend, true)
	ctx := context.Background()

	// Personalized, then AI, then back. The return visit renders from cache.
	if view := b.Recommendations(ctx, TabPersonalized); view.State != StateReady {
		t.Fatalf("personalized state = %q, want ready", view.State)
	}
	if view := b.Recommendations(ctx, TabAI); view.State != StateReady {
		t.Fatalf("ai state = %q, want ready", view.State)
	}
	b.Recommendations(ctx, TabPersonalized)

	if calls := backend.recsCalls.Load(); calls != 1 {
		t.Errorf("personalized fetched %d times, want 1", calls)
	}
	if calls := backend.aiCalls.Load(); calls != 1 {
		t.Errorf("ai fetched %d times, want 1", calls)
	}
}

func TestRecommendationsRequireAuthentication(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		recsFn: func() (*models.RecommendationsResponse, error) {
			return &models.RecommendationsResponse{Recommendations: recommendationsOf(1)}, nil
		},
	}
	b := testBuilder(t, backend, false)

	view := b.Recommendations(context.Background(), TabPersonalized)

	if view.State != StateError {
		t.Fatalf("state = %q, want error", view.State)
	}
	if backend.recsCalls.Load() != 0 {
		t.Error("anonymous recommendations must not reach the backend")
	}
}

func TestAIUnavailableIsDistinctFromEmpty(t *testing.T) {
	t.Parallel()

	t.Run("source switched off", func(t *testing.T) {
		t.Parallel()
		backend := &fakeBackend{
			aiFn: func() (*models.AIRecommendationsResponse, error) {
				return &models.AIRecommendationsResponse{
					AIAvailable: false,
					Message:     "AI recommendations are disabled on this server.",
				}, nil
			},
		}
		b := testBuilder(t, backend, true)

		view := b.Recommendations(context.Background(), TabAI)
		if view.State != StateUnavailable {
			t.Fatalf("state = %q, want unavailable", view.State)
		}
		if view.Message != "AI recommendations are disabled on this server." {
			t.Errorf("message = %q, want the backend's own explanation", view.Message)
		}
	})

	t.Run("source on but out of picks", func(t *testing.T) {
		t.Parallel()
		backend := &fakeBackend{
			aiFn: func() (*models.AIRecommendationsResponse, error) {
				return &models.AIRecommendationsResponse{AIAvailable: true}, nil
			},
		}
		b := testBuilder(t, backend, true)

		view := b.Recommendations(context.Background(), TabAI)
		if view.State != StateEmpty {
			t.Fatalf("state = %q, want empty", view.State)
		}
	})
}

func TestPersonalizedEmptyCarriesGuidance(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		recsFn: func() (*models.RecommendationsResponse, error) {
			return &models.RecommendationsResponse{}, nil
		},
	}
	b := testBuilder(t, backend, true)

	view := b.Recommendations(context.Background(), TabPersonalized)

	if view.State != StateEmpty || view.Message == "" {
		t.Errorf("view = %+v, want empty with guidance", view)
	}
}

func TestRefreshForcesNextReadToRefetch(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		recsFn: func() (*models.RecommendationsResponse, error) {
			return &models.RecommendationsResponse{Recommendations: recommendationsOf(1)}, nil
		},
	}
	b := testBuilder(t, backend, true)
	ctx := context.Background()

	first := b.Recommendations(ctx, TabPersonalized)
	b.Recommendations(ctx, TabPersonalized)
	if calls := backend.recsCalls.Load(); calls != 1 {
		t.Fatalf("pre-refresh fetches = %d, want 1", calls)
	}

	seq := b.RefreshRecommendations(ctx)
	if seq != first.RefreshSeq+1 {
		t.Errorf("refresh seq = %d, want %d", seq, first.RefreshSeq+1)
	}

	// Refresh itself performs no fetch; the next read does.
	if calls := backend.recsCalls.Load(); calls != 1 {
		t.Fatalf("refresh triggered %d fetches, want 0", calls-1)
	}

	after := b.Recommendations(ctx, TabPersonalized)
	if after.RefreshSeq != seq {
		t.Errorf("view seq = %d, want %d", after.RefreshSeq, seq)
	}
	if calls := backend.recsCalls.Load(); calls != 2 {
		t.Errorf("post-refresh fetches = %d, want 2", calls)
	}
}

func TestRecommendationsErrorState(t *testing.T) {
	t.Parallel()
	backend := &fakeBackend{
		recsFn: func() (*models.RecommendationsResponse, error) {
			return nil, errors.New("engine exploded")
		},
	}
	b := testBuilder(t, backend, true)

	view := b.Recommendations(context.Background(), TabPersonalized)

	if view.State != StateError {
		t.Fatalf("state = %q, want error", view.State)
	}
	if view.Message == "" {
		t.Error("error view should carry a user-facing message")
	}
}
