// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// pageQuery builds the standard pagination query parameters.
func pageQuery(page, size int) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("size", strconv.Itoa(size))
	return q
}

// limitQuery builds a ?limit= query, omitting non-positive limits so the
// backend default applies.
func limitQuery(limit int) url.Values {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q
}

// Books fetches one page of the catalog. sort is a backend sort expression
// such as "title,asc"; empty means backend default ordering.
func (c *Client) Books(ctx context.Context, page, size int, sort string) (*models.BookPage, error) {
	q := pageQuery(page, size)
	if sort != "" {
		q.Set("sort", sort)
	}
	var result models.BookPage
	if err := c.get(ctx, "books", "/books", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Book fetches a single book by ID.
func (c *Client) Book(ctx context.Context, bookID int64) (*models.Book, error) {
	var book models.Book
	if err := c.get(ctx, "book", fmt.Sprintf("/books/%d", bookID), nil, &book); err != nil {
		return nil, err
	}
	return &book, nil
}

// SearchBooks runs a title/author search. Callers are expected to suppress
// blank queries; the backend treats them as matching nothing.
func (c *Client) SearchBooks(ctx context.Context, query string, page, size int) (*models.BookPage, error) {
	q := pageQuery(page, size)
	q.Set("query", query)
	var result models.BookPage
	if err := c.get(ctx, "search_books", "/books/search", q, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// TopRatedBooks fetches the highest-rated books.
func (c *Client) TopRatedBooks(ctx context.Context, limit int) ([]models.Book, error) {
	var books []models.Book
	if err := c.get(ctx, "top_rated_books", "/books/top-rated", limitQuery(limit), &books); err != nil {
		return nil, err
	}
	return books, nil
}

// PopularBooks fetches the most-reviewed books.
func (c *Client) PopularBooks(ctx context.Context, limit int) ([]models.Book, error) {
	var books []models.Book
	if err := c.get(ctx, "popular_books", "/books/popular", limitQuery(limit), &books); err != nil {
		return nil, err
	}
	return books, nil
}

// RecentBooks fetches the most recently published books.
func (c *Client) RecentBooks(ctx context.Context, limit int) ([]models.Book, error) {
	var books []models.Book
	if err := c.get(ctx, "recent_books", "/books/recent", limitQuery(limit), &books); err != nil {
		return nil, err
	}
	return books, nil
}

// SimilarBooks fetches books related to the given one.
func (c *Client) SimilarBooks(ctx context.Context, bookID int64, limit int) ([]models.Book, error) {
	var books []models.Book
	path := fmt.Sprintf("/books/%d/similar", bookID)
	if err := c.get(ctx, "similar_books", path, limitQuery(limit), &books); err != nil {
		return nil, err
	}
	return books, nil
}

// UserFavorites lists the authenticated user's favorite books.
func (c *Client) UserFavorites(ctx context.Context) ([]models.Book, error) {
	var books []models.Book
	if err := c.get(ctx, "user_favorites", "/books/favorites", nil, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// AddFavorite marks a book as a favorite.
func (c *Client) AddFavorite(ctx context.Context, bookID int64) error {
	return c.post(ctx, "add_favorite", fmt.Sprintf("/books/%d/favorite", bookID), nil, nil)
}

// RemoveFavorite unmarks a favorite book.
func (c *Client) RemoveFavorite(ctx context.Context, bookID int64) error {
	return c.del(ctx, "remove_favorite", fmt.Sprintf("/books/%d/favorite", bookID), nil)
}

// FavoriteStatus reports whether a book is currently a favorite.
func (c *Client) FavoriteStatus(ctx context.Context, bookID int64) (*models.FavoriteStatus, error) {
	var status models.FavoriteStatus
	path := fmt.Sprintf("/books/%d/favorite", bookID)
	if err := c.get(ctx, "favorite_status", path, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// BookReviews lists all reviews for a book.
func (c *Client) BookReviews(ctx context.Context, bookID int64) ([]models.Review, error) {
	var reviews []models.Review
	path := fmt.Sprintf("/books/%d/reviews", bookID)
	if err := c.get(ctx, "book_reviews", path, nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

// CreateReview posts a new review for a book.
func (c *Client) CreateReview(ctx context.Context, bookID int64, req models.ReviewRequest) (*models.Review, error) {
	var review models.Review
	path := fmt.Sprintf("/books/%d/reviews", bookID)
	if err := c.post(ctx, "create_review", path, req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// UpdateReview edits an existing review owned by the authenticated user.
func (c *Client) UpdateReview(ctx context.Context, reviewID int64, req models.ReviewRequest) (*models.Review, error) {
	var review models.Review
	path := fmt.Sprintf("/reviews/%d", reviewID)
	if err := c.put(ctx, "update_review", path, req, &review); err != nil {
		return nil, err
	}
	return &review, nil
}

// DeleteReview removes a review owned by the authenticated user.
func (c *Client) DeleteReview(ctx context.Context, reviewID int64) error {
	return c.del(ctx, "delete_review", fmt.Sprintf("/reviews/%d", reviewID), nil)
}
