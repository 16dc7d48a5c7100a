// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package client implements the typed HTTP client for the remote book review
backend.

All methods take a context for cancellation, inject the persisted bearer
token at request time, and normalize non-2xx responses into *APIError. HTTP
429 responses are retried with exponential backoff (honoring Retry-After);
every other failure is returned to the caller untouched. A 401 on an
auth-sensitive path additionally notifies the configured UnauthorizedHandler
so the session layer can force a logout.
*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/anupam-talentica/bookreview-client/internal/logging"
	"github.com/anupam-talentica/bookreview-client/internal/metrics"
)

const (
	defaultTimeout        = 30 * time.Second
	defaultMaxRetries     = 3
	defaultRetryBaseDelay = 1 * time.Second

	// maxErrorBodySize limits how much of an error response body is read
	// when extracting the backend's error message.
	maxErrorBodySize = 64 * 1024
)

// authSensitivePrefix marks the path family whose 401 responses force a
// local logout. Credential-establishing endpoints are exempt: their 401s
// mean "bad credentials" or "stale token", which callers handle directly.
const authSensitivePrefix = "/auth/"

var authInsensitivePaths = map[string]struct{}{
	"/auth/login":    {},
	"/auth/register": {},
	"/auth/refresh":  {},
	"/auth/validate": {},
}

// TokenSource supplies the bearer token attached to outgoing requests. It is
// consulted on every attempt so token rotation mid-flight is picked up
// without rebuilding the client. An empty token means "send no credential".
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token. Useful in tests and
// for one-off authenticated calls.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// UnauthorizedHandler is invoked when an auth-sensitive request returns 401.
// Implementations must not call back into the client synchronously.
type UnauthorizedHandler func(ctx context.Context, path string)

// Client talks to the remote book review backend. Construct with New; the
// zero value is not usable.
type Client struct {
	baseURL        string
	client         *http.Client
	tokens         TokenSource
	onUnauthorized UnauthorizedHandler
	limiter        *rate.Limiter
	maxRetries     int
	retryBaseDelay time.Duration
}

// Option customizes a Client created by New.
type Option func(*Client)

// WithHTTPClient replaces the underlying *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithTimeout sets the per-request timeout on the underlying HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.client.Timeout = d }
}

// WithTokenSource sets the bearer token source.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

// WithUnauthorizedHandler sets the callback invoked on auth-sensitive 401s.
func WithUnauthorizedHandler(h UnauthorizedHandler) Option {
	return func(c *Client) { c.onUnauthorized = h }
}

// SetUnauthorizedHandler installs the 401 callback after construction. The
// session layer is built on top of the client, so the handler is wired in a
// second step during startup, before any request is served.
func (c *Client) SetUnauthorizedHandler(h UnauthorizedHandler) {
	c.onUnauthorized = h
}

// WithRateLimit caps outgoing request rate. rps <= 0 disables the limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithRetry configures 429 retry behavior. maxRetries is the number of
// retries after the initial attempt; baseDelay is doubled per attempt.
func WithRetry(maxRetries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		if maxRetries >= 0 {
			c.maxRetries = maxRetries
		}
		if baseDelay > 0 {
			c.retryBaseDelay = baseDelay
		}
	}
}

// New creates a backend client for the given base URL (scheme://host[:port],
// no trailing slash required).
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	c := &Client{
		baseURL:        strings.TrimSuffix(baseURL, "/"),
		client:         &http.Client{Timeout: defaultTimeout},
		maxRetries:     defaultMaxRetries,
		retryBaseDelay: defaultRetryBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// authSensitive reports whether a 401 on path should force a local logout.
func authSensitive(path string) bool {
	if !strings.HasPrefix(path, authSensitivePrefix) {
		return false
	}
	_, exempt := authInsensitivePaths[path]
	return !exempt
}

// do performs one logical backend call: it marshals body (when non-nil),
// retries 429 responses with exponential backoff, normalizes non-2xx
// responses into *APIError, and decodes a 2xx payload into result (when
// non-nil). op names the operation for logging and metrics.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, result interface{}) error {
	start := time.Now()
	status, err := c.roundTrip(ctx, op, method, path, query, body, result)
	label := "error"
	if status > 0 {
		label = strconv.Itoa(status)
	}
	metrics.RecordBackendRequest(op, label, time.Since(start))
	return err
}

func (c *Client) roundTrip(ctx context.Context, op, method, path string, query url.Values, body, result interface{}) (int, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal %s request: %w", op, err)
		}
	}

	var resp *http.Response
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		// Check context before attempting request
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}

		req, err := c.newRequest(ctx, method, endpoint, payload)
		if err != nil {
			return 0, err
		}

		resp, err = c.client.Do(req)
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			break
		}

		retryAfter := resp.Header.Get("Retry-After")
		resp.Body.Close()

		if attempt == c.maxRetries {
			return resp.StatusCode, &APIError{
				StatusCode: http.StatusTooManyRequests,
				Code:       codeForStatus(http.StatusTooManyRequests),
				Message:    fmt.Sprintf("rate limited after %d attempts", attempt+1),
			}
		}

		// Exponential backoff: base * 2^attempt, or Retry-After when the
		// backend provides one.
		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter != "" {
			if parsed, parseErr := time.ParseDuration(retryAfter + "s"); parseErr == nil {
				delay = parsed
			}
		}

		logging.Ctx(ctx).Warn().
			Str("operation", op).
			Int("attempt", attempt+1).
			Dur("delay", delay).
			Msg("Backend rate limited, retrying")
		metrics.BackendRetriesTotal.Inc()

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp.StatusCode, c.errorFromResponse(ctx, path, resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBodySize))
		return resp.StatusCode, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s response: %w", op, err)
	}
	return resp.StatusCode, nil
}

// newRequest builds one attempt's request. The bearer token is read from the
// token source here, per attempt, so rotation between retries is honored.
func (c *Client) newRequest(ctx context.Context, method, endpoint string, payload []byte) (*http.Request, error) {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.tokens != nil {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			logging.Ctx(ctx).Debug().Err(err).Msg("Token source failed, sending unauthenticated request")
		} else if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}
	return req, nil
}

// errorFromResponse reads a bounded slice of the error body, extracts the
// backend's message field when present, and notifies the unauthorized
// handler for auth-sensitive 401s.
func (c *Client) errorFromResponse(ctx context.Context, path string, resp *http.Response) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))

	message := ""
	if readErr == nil && len(raw) > 0 {
		var payload struct {
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(raw, &payload); err == nil {
			message = payload.Message
			if message == "" {
				message = payload.Error
			}
		}
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}

	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       codeForStatus(resp.StatusCode),
		Message:    message,
	}

	if resp.StatusCode == http.StatusUnauthorized && authSensitive(path) {
		metrics.BackendUnauthorizedTotal.Inc()
		logging.Ctx(ctx).Warn().
			Str("path", path).
			Msg("Unauthorized response on auth-sensitive path, forcing logout")
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx, path)
		}
	}
	return apiErr
}

// get issues a GET and decodes the response into result.
func (c *Client) get(ctx context.Context, op, path string, query url.Values, result interface{}) error {
	return c.do(ctx, op, http.MethodGet, path, query, nil, result)
}

// post issues a POST with an optional JSON body.
func (c *Client) post(ctx context.Context, op, path string, body, result interface{}) error {
	return c.do(ctx, op, http.MethodPost, path, nil, body, result)
}

// put issues a PUT with an optional JSON body.
func (c *Client) put(ctx context.Context, op, path string, body, result interface{}) error {
	return c.do(ctx, op, http.MethodPut, path, nil, body, result)
}

// del issues a DELETE.
func (c *Client) del(ctx context.Context, op, path string, result interface{}) error {
	return c.do(ctx, op, http.MethodDelete, path, nil, nil, result)
}
