// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"context"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// Backend defines every operation the dashboard performs against the remote
// book review service. *Client implements it directly; *BreakerClient wraps
// an implementation with a circuit breaker.
type Backend interface {
	// Authentication and account
	Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.MessageResponse, error)
	ValidateToken(ctx context.Context) error
	Logout(ctx context.Context) error
	RefreshToken(ctx context.Context) (*models.AuthResponse, error)
	Profile(ctx context.Context) (*models.User, error)
	UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error
	MyReviews(ctx context.Context) ([]models.Review, error)

	// Book catalog
	Books(ctx context.Context, page, size int, sort string) (*models.BookPage, error)
	Book(ctx context.Context, bookID int64) (*models.Book, error)
	SearchBooks(ctx context.Context, query string, page, size int) (*models.BookPage, error)
	TopRatedBooks(ctx context.Context, limit int) ([]models.Book, error)
	PopularBooks(ctx context.Context, limit int) ([]models.Book, error)
	RecentBooks(ctx context.Context, limit int) ([]models.Book, error)
	SimilarBooks(ctx context.Context, bookID int64, limit int) ([]models.Book, error)

	// Favorites
	UserFavorites(ctx context.Context) ([]models.Book, error)
	AddFavorite(ctx context.Context, bookID int64) error
	RemoveFavorite(ctx context.Context, bookID int64) error
	FavoriteStatus(ctx context.Context, bookID int64) (*models.FavoriteStatus, error)

	// Reviews
	BookReviews(ctx context.Context, bookID int64) ([]models.Review, error)
	CreateReview(ctx context.Context, bookID int64, req models.ReviewRequest) (*models.Review, error)
	UpdateReview(ctx context.Context, reviewID int64, req models.ReviewRequest) (*models.Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error

	// Recommendations
	Recommendations(ctx context.Context) (*models.RecommendationsResponse, error)
	AIRecommendations(ctx context.Context) (*models.AIRecommendationsResponse, error)
	SubmitRecommendationFeedback(ctx context.Context, req models.FeedbackRequest) (*models.MessageResponse, error)
}

// Compile-time interface checks.
var (
	_ Backend = (*Client)(nil)
	_ Backend = (*BreakerClient)(nil)
)
