// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package models

import "time"

// User is the backend's account record. The backend creates it on
// registration; the daemon caches it alongside the bearer token and replaces
// it whenever the profile endpoint returns a fresher copy.
type User struct {
	ID                 int64     `json:"id"`
	Name               string    `json:"name"`
	Email              string    `json:"email"`
	EmailVerified      bool      `json:"emailVerified"`
	Active             bool      `json:"active"`
	ReviewCount        int       `json:"reviewCount"`
	FavoriteBooksCount int       `json:"favoriteBooksCount"`
	CreatedAt          time.Time `json:"createdAt,omitempty"`
}

// LoginRequest is the payload for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the payload for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// AuthResponse is returned by the login endpoint. It carries the bearer
// token plus a minimal identity; full profile statistics are NOT included
// and must be fetched separately via GET /auth/profile.
type AuthResponse struct {
	Token  string `json:"token"`
	UserID int64  `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// UpdateProfileRequest is the payload for PUT /auth/profile.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"required,min=2,max=100"`
	Email string `json:"email" validate:"required,email"`
}

// ChangePasswordRequest is the payload for PUT /auth/change-password.
// ConfirmPassword is checked locally before any network call.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

// MessageResponse is the backend's generic acknowledgement body.
type MessageResponse struct {
	Message string `json:"message"`
}
