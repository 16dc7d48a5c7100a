// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package query

import (
	"context"
	"fmt"
)

// Fetch runs a typed query through the cache. It is a thin wrapper over
// Cache.Do that spares callers the interface{} round trip.
func Fetch[T any](ctx context.Context, c *Cache, key string, fn func(context.Context) (T, error), opts Options) (T, error) {
	data, err := c.Do(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fn(ctx)
	}, opts)
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := data.(T)
	if !ok {
		// Two resources hashed to the same key, or a caller reused a key
		// with a different type. Either way the entry is unusable.
		var zero T
		return zero, fmt.Errorf("cache entry for %q holds %T, not %T", key, data, zero)
	}
	return typed, nil
}

// Mutate runs a typed mutation; on success the listed key prefixes are
// invalidated and the mutation result is returned.
func Mutate[T any](ctx context.Context, c *Cache, fn func(context.Context) (T, error), prefixes ...string) (T, error) {
	var result T
	err := c.Mutate(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	}, prefixes...)
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}
