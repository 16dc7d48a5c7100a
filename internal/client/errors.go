// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package client

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrBackendUnavailable is returned by the breaker wrapper when the circuit
// is open and no request was attempted.
var ErrBackendUnavailable = errors.New("backend unavailable: circuit breaker open")

// APIError is the normalized form of a non-2xx backend response. It carries
// the HTTP status and the backend's parsed error payload; callers interpret
// StatusCode and Message and decide what to surface.
type APIError struct {
	// StatusCode is the HTTP status of the failed response.
	StatusCode int

	// Code is a coarse machine-readable classification derived from the
	// status (e.g. UNAUTHORIZED, NOT_FOUND, VALIDATION_ERROR).
	Code string

	// Message is the backend-provided error message when the payload had
	// one, otherwise a short description of the status.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

// IsStatus reports whether err is an *APIError with the given HTTP status.
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == status
}

// IsNotFound reports whether err is a normalized 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// IsUnauthorized reports whether err is a normalized 401.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// codeForStatus maps an HTTP status to the coarse error code used in
// APIError.Code.
func codeForStatus(status int) string {
	switch {
	case status == http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case status == http.StatusForbidden:
		return "FORBIDDEN"
	case status == http.StatusNotFound:
		return "NOT_FOUND"
	case status == http.StatusConflict:
		return "CONFLICT"
	case status == http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case status >= 400 && status < 500:
		return "VALIDATION_ERROR"
	default:
		return "BACKEND_ERROR"
	}
}
