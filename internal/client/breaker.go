// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/metrics"
	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// BreakerClient wraps a Backend with a circuit breaker so a dead or slow
// backend fails fast instead of queueing requests behind timeouts.
//
// The breaker uses real time (via sony/gobreaker) for its interval and
// timeout calculations; tests exercise the wrapped client directly rather
// than waiting out breaker windows.
type BreakerClient struct {
	backend Backend
	cb      *gobreaker.CircuitBreaker[interface{}]
	name    string
}

// NewBreakerClient wraps backend with circuit breaker protection:
// max 3 requests in half-open state, 1 minute measurement window, 2 minute
// recovery timeout, opening at a 60% failure rate over at least 10 requests.
func NewBreakerClient(backend Backend) *BreakerClient {
	cbName := "bookreview-backend"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6
			if shouldTrip {
				logging.Warn().
					Uint32("failures", counts.TotalFailures).
					Float64("failure_rate", failureRatio*100).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)
			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},

		// Client-side 4xx responses are the caller's problem, not a sign of
		// backend ill health. Only transport errors and 5xx count as
		// failures, so a storm of bad credentials cannot open the circuit.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return false
		},
	})

	return &BreakerClient{
		backend: backend,
		cb:      cb,
		name:    cbName,
	}
}

// State reports the current breaker state, for health reporting.
func (bc *BreakerClient) State() string {
	return stateToString(bc.cb.State())
}

// execute runs one backend call under the breaker, translating breaker
// rejections into ErrBackendUnavailable.
func (bc *BreakerClient) execute(fn func() (interface{}, error)) (interface{}, error) {
	result, err := bc.cb.Execute(fn)
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, ErrBackendUnavailable
		}
		return nil, err
	}
	return result, nil
}

// castResult safely type-casts the circuit breaker result.
func castResult[T any](result interface{}, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.(*T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

// castSlice type-casts a slice-valued circuit breaker result.
func castSlice[T any](result interface{}, err error) ([]T, error) {
	if err != nil {
		return nil, err
	}
	typed, ok := result.([]T)
	if !ok {
		return nil, fmt.Errorf("circuit breaker: unexpected result type %T", result)
	}
	return typed, nil
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

func (bc *BreakerClient) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	return castResult[models.AuthResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.Login(ctx, req)
	}))
}

func (bc *BreakerClient) Register(ctx context.Context, req models.RegisterRequest) (*models.MessageResponse, error) {
	return castResult[models.MessageResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.Register(ctx, req)
	}))
}

func (bc *BreakerClient) ValidateToken(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.ValidateToken(ctx)
	})
	return err
}

func (bc *BreakerClient) Logout(ctx context.Context) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.Logout(ctx)
	})
	return err
}

func (bc *BreakerClient) RefreshToken(ctx context.Context) (*models.AuthResponse, error) {
	return castResult[models.AuthResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.RefreshToken(ctx)
	}))
}

func (bc *BreakerClient) Profile(ctx context.Context) (*models.User, error) {
	return castResult[models.User](bc.execute(func() (interface{}, error) {
		return bc.backend.Profile(ctx)
	}))
}

func (bc *BreakerClient) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	return castResult[models.User](bc.execute(func() (interface{}, error) {
		return bc.backend.UpdateProfile(ctx, req)
	}))
}

func (bc *BreakerClient) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.ChangePassword(ctx, req)
	})
	return err
}

func (bc *BreakerClient) MyReviews(ctx context.Context) ([]models.Review, error) {
	return castSlice[models.Review](bc.execute(func() (interface{}, error) {
		return bc.backend.MyReviews(ctx)
	}))
}

func (bc *BreakerClient) Books(ctx context.Context, page, size int, sort string) (*models.BookPage, error) {
	return castResult[models.BookPage](bc.execute(func() (interface{}, error) {
		return bc.backend.Books(ctx, page, size, sort)
	}))
}

func (bc *BreakerClient) Book(ctx context.Context, bookID int64) (*models.Book, error) {
	return castResult[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.Book(ctx, bookID)
	}))
}

func (bc *BreakerClient) SearchBooks(ctx context.Context, query string, page, size int) (*models.BookPage, error) {
	return castResult[models.BookPage](bc.execute(func() (interface{}, error) {
		return bc.backend.SearchBooks(ctx, query, page, size)
	}))
}

func (bc *BreakerClient) TopRatedBooks(ctx context.Context, limit int) ([]models.Book, error) {
	return castSlice[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.TopRatedBooks(ctx, limit)
	}))
}

func (bc *BreakerClient) PopularBooks(ctx context.Context, limit int) ([]models.Book, error) {
	return castSlice[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.PopularBooks(ctx, limit)
	}))
}

func (bc *BreakerClient) RecentBooks(ctx context.Context, limit int) ([]models.Book, error) {
	return castSlice[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.RecentBooks(ctx, limit)
	}))
}

func (bc *BreakerClient) SimilarBooks(ctx context.Context, bookID int64, limit int) ([]models.Book, error) {
	return castSlice[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.SimilarBooks(ctx, bookID, limit)
	}))
}

func (bc *BreakerClient) UserFavorites(ctx context.Context) ([]models.Book, error) {
	return castSlice[models.Book](bc.execute(func() (interface{}, error) {
		return bc.backend.UserFavorites(ctx)
	}))
}

func (bc *BreakerClient) AddFavorite(ctx context.Context, bookID int64) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.AddFavorite(ctx, bookID)
	})
	return err
}

func (bc *BreakerClient) RemoveFavorite(ctx context.Context, bookID int64) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.RemoveFavorite(ctx, bookID)
	})
	return err
}

func (bc *BreakerClient) FavoriteStatus(ctx context.Context, bookID int64) (*models.FavoriteStatus, error) {
	return castResult[models.FavoriteStatus](bc.execute(func() (interface{}, error) {
		return bc.backend.FavoriteStatus(ctx, bookID)
	}))
}

func (bc *BreakerClient) BookReviews(ctx context.Context, bookID int64) ([]models.Review, error) {
	return castSlice[models.Review](bc.execute(func() (interface{}, error) {
		return bc.backend.BookReviews(ctx, bookID)
	}))
}

func (bc *BreakerClient) CreateReview(ctx context.Context, bookID int64, req models.ReviewRequest) (*models.Review, error) {
	return castResult[models.Review](bc.execute(func() (interface{}, error) {
		return bc.backend.CreateReview(ctx, bookID, req)
	}))
}

func (bc *BreakerClient) UpdateReview(ctx context.Context, reviewID int64, req models.ReviewRequest) (*models.Review, error) {
	return castResult[models.Review](bc.execute(func() (interface{}, error) {
		return bc.backend.UpdateReview(ctx, reviewID, req)
	}))
}

func (bc *BreakerClient) DeleteReview(ctx context.Context, reviewID int64) error {
	_, err := bc.execute(func() (interface{}, error) {
		return nil, bc.backend.DeleteReview(ctx, reviewID)
	})
	return err
}

func (bc *BreakerClient) Recommendations(ctx context.Context) (*models.RecommendationsResponse, error) {
	return castResult[models.RecommendationsResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.Recommendations(ctx)
	}))
}

func (bc *BreakerClient) AIRecommendations(ctx context.Context) (*models.AIRecommendationsResponse, error) {
	return castResult[models.AIRecommendationsResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.AIRecommendations(ctx)
	}))
}

func (bc *BreakerClient) SubmitRecommendationFeedback(ctx context.Context, req models.FeedbackRequest) (*models.MessageResponse, error) {
	return castResult[models.MessageResponse](bc.execute(func() (interface{}, error) {
		return bc.backend.SubmitRecommendationFeedback(ctx, req)
	}))
}
