// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package views

import (
	"context"
	"errors"
	"net/http"

	"github.com/anupam-talentica/bookreview-client/internal/client"
	"github.com/anupam-talentica/bookreview-client/internal/models"
	"github.com/anupam-talentica/bookreview-client/internal/query"
)

// State is the render state of a view or one of its sections. Views are
// assembled synchronously, so a "loading" state never appears here; loading
// is what the UI shows while the request for the view is still in flight.
type State string

const (
	// StateReady means the section carries data to render.
	StateReady State = "ready"

	// StateEmpty means the fetch succeeded but returned nothing; Message
	// carries contextual guidance instead of a generic blank.
	StateEmpty State = "empty"

	// StateError means the fetch failed; Message is user-facing and
	// Retryable says whether trying again can plausibly help.
	StateError State = "error"

	// StateUnavailable means the upstream feature itself is switched off or
	// unreachable (today only the AI recommendation source reports this).
	// It is deliberately distinct from StateEmpty: there is nothing the
	// user can do to populate an unavailable section.
	StateUnavailable State = "unavailable"
)

// Fallback messages for errors that carry no usable text of their own.
const (
	loadFailedMessage  = "Something went wrong loading this view. Try again."
	unreachableMessage = "The book service is unreachable right now. Try again shortly."
	signInMessage      = "Sign in to load this view."
	timeoutMessage     = "The request took too long. Try again."
)

// BookSection is one independently fetched shelf of books.
type BookSection struct {
	State     State         `json:"state"`
	Books     []models.Book `json:"books,omitempty"`
	Message   string        `json:"message,omitempty"`
	Retryable bool          `json:"retryable,omitempty"`
}

// ReviewSection is one independently fetched list of reviews.
type ReviewSection struct {
	State     State           `json:"state"`
	Reviews   []models.Review `json:"reviews,omitempty"`
	Message   string          `json:"message,omitempty"`
	Retryable bool            `json:"retryable,omitempty"`
}

// classify maps a fetch error to a user-facing message and whether a retry
// can plausibly succeed. Backend 4xx responses are not retryable: the same
// request will fail the same way.
func classify(err error, fallback string) (string, bool) {
	if errors.Is(err, client.ErrBackendUnavailable) {
		return unreachableMessage, true
	}
	if errors.Is(err, query.ErrDisabled) {
		return signInMessage, false
	}
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = fallback
		}
		retryable := apiErr.StatusCode >= http.StatusInternalServerError ||
			apiErr.StatusCode == http.StatusTooManyRequests
		return msg, retryable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return timeoutMessage, true
	}
	return fallback, true
}

func bookSection(books []models.Book, err error, emptyMessage string) BookSection {
	if err != nil {
		msg, retryable := classify(err, loadFailedMessage)
		return BookSection{State: StateError, Message: msg, Retryable: retryable}
	}
	if len(books) == 0 {
		return BookSection{State: StateEmpty, Message: emptyMessage}
	}
	return BookSection{State: StateReady, Books: books}
}

func reviewSection(reviews []models.Review, err error, emptyMessage string) ReviewSection {
	if err != nil {
		msg, retryable := classify(err, loadFailedMessage)
		return ReviewSection{State: StateError, Message: msg, Retryable: retryable}
	}
	if len(reviews) == 0 {
		return ReviewSection{State: StateEmpty, Message: emptyMessage}
	}
	return ReviewSection{State: StateReady, Reviews: reviews}
}
