// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"context"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// Login exchanges credentials for a bearer token. The response carries the
// token and a minimal identity (user ID, name, email) but no full profile.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "login", "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates a new account. Registration does not authenticate; the
// caller follows up with Login.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.MessageResponse, error) {
	var resp models.MessageResponse
	if err := c.post(ctx, "register", "/auth/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ValidateToken checks whether the currently persisted token is still
// accepted by the backend. A nil error means valid.
func (c *Client) ValidateToken(ctx context.Context) error {
	return c.get(ctx, "validate_token", "/auth/validate", nil, nil)
}

// Logout invalidates the token server-side. Callers treat failures as
// best-effort: local credentials are cleared regardless.
func (c *Client) Logout(ctx context.Context) error {
	return c.post(ctx, "logout", "/auth/logout", nil, nil)
}

// RefreshToken exchanges the current token for a fresh one before expiry.
func (c *Client) RefreshToken(ctx context.Context) (*models.AuthResponse, error) {
	var resp models.AuthResponse
	if err := c.post(ctx, "refresh_token", "/auth/refresh", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Profile fetches the full profile of the authenticated user, including
// review and favorite counts.
func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.get(ctx, "profile", "/auth/profile", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile changes the user's display name and returns the updated
// profile.
func (c *Client) UpdateProfile(ctx context.Context, req models.UpdateProfileRequest) (*models.User, error) {
	var user models.User
	if err := c.put(ctx, "update_profile", "/auth/profile", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ChangePassword updates the account password. The backend verifies the
// current password and rejects mismatched confirmations.
func (c *Client) ChangePassword(ctx context.Context, req models.ChangePasswordRequest) error {
	return c.put(ctx, "change_password", "/auth/change-password", req, nil)
}

// MyReviews lists every review written by the authenticated user.
func (c *Client) MyReviews(ctx context.Context) ([]models.Review, error) {
	var reviews []models.Review
	if err := c.get(ctx, "my_reviews", "/auth/my-reviews", nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}
