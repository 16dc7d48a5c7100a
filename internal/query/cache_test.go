// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package query

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/models"
)

var enabled = Options{Enabled: true}

func TestCacheFreshHitSkipsFetch(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		calls.Add(1)
		return "value1", nil
	}

	for i := 0; i < 3; i++ {
		data, err := c.Do(ctx, "books:abc", fn, enabled)
		if err != nil {
			t.Fatalf("Do() call %d error = %v", i, err)
		}
		if data != "value1" {
			t.Fatalf("Do() call %d = %v, want value1", i, data)
		}
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 for fresh entries", got)
	}
}

func TestCacheStaleEntryRefetches(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		calls.Add(1)
		return calls.Load(), nil
	}
	opts := Options{StaleTime: 30 * time.Millisecond, Enabled: true}

	if _, err := c.Do(ctx, "books:abc", fn, opts); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)

	data, err := c.Do(ctx, "books:abc", fn, opts)
	if err != nil {
		t.Fatalf("Do() after stale error = %v", err)
	}
	if data != int32(2) {
		t.Errorf("Do() after stale = %v, want refetched value 2", data)
	}
}

func TestDisabledQuerySkipsFetch(t *testing.T) {
	c := New(time.Minute, nil)

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		calls.Add(1)
		return "value1", nil
	}

	_, err := c.Do(context.Background(), "favorites:abc", fn, Options{Enabled: false})
	if !errors.Is(err, ErrDisabled) {
		t.Fatalf("Do() error = %v, want ErrDisabled", err)
	}
	if got := calls.Load(); got != 0 {
		t.Errorf("fetch calls = %d, want 0 for disabled query", got)
	}
}

func TestConcurrentFetchesCoalesce(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		calls.Add(1)
		time.Sleep(50 * time.Millisecond)
		return "shared", nil
	}

	const workers = 20
	var wg sync.WaitGroup
	results := make([]interface{}, workers)
	errs := make([]error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Do(ctx, "books:abc", fn, enabled)
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		if errs[i] != nil {
			t.Fatalf("worker %d error = %v", i, errs[i])
		}
		if results[i] != "shared" {
			t.Errorf("worker %d = %v, want shared", i, results[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want exactly 1 under concurrency", got)
	}
}

func TestCancelledWinnerDoesNotPoisonWaiters(t *testing.T) {
	c := New(time.Minute, nil)

	entered := make(chan struct{})
	release := make(chan struct{})

	var calls atomic.Int32
	var fetchCtxErr error
	fn := func(ctx context.Context) (interface{}, error) {
		calls.Add(1)
		close(entered)
		<-release
		fetchCtxErr = ctx.Err()
		return "shared", nil
	}

	winnerCtx, cancelWinner := context.WithCancel(context.Background())
	defer cancelWinner()

	var winnerData, waiterData interface{}
	var winnerErr, waiterErr error

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		winnerData, winnerErr = c.Do(winnerCtx, "books:abc", fn, enabled)
	}()
	<-entered

	wg.Add(1)
	go func() {
		defer wg.Done()
		waiterData, waiterErr = c.Do(context.Background(), "books:abc", fn, enabled)
	}()

	// Give the second caller time to join the in-flight fetch, then cancel
	// the caller that started it while the fetch is still running.
	time.Sleep(20 * time.Millisecond)
	cancelWinner()
	close(release)
	wg.Wait()

	if fetchCtxErr != nil {
		t.Errorf("fetch context error = %v, want nil after caller cancellation", fetchCtxErr)
	}
	if waiterErr != nil {
		t.Fatalf("waiter error = %v, want shared result despite winner cancellation", waiterErr)
	}
	if waiterData != "shared" {
		t.Errorf("waiter data = %v, want shared", waiterData)
	}
	if winnerErr != nil || winnerData != "shared" {
		t.Errorf("winner result = (%v, %v), want (shared, nil)", winnerData, winnerErr)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1", got)
	}

	data, err := c.Do(context.Background(), "books:abc", fn, enabled)
	if err != nil || data != "shared" {
		t.Errorf("follow-up Do() = (%v, %v), want cached (shared, nil)", data, err)
	}
}

func TestFetchErrorsAreNotCached(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		if calls.Add(1) == 1 {
			return nil, errors.New("backend down")
		}
		return "recovered", nil
	}

	if _, err := c.Do(ctx, "books:abc", fn, enabled); err == nil {
		t.Fatal("first Do() should surface the fetch error")
	}

	data, err := c.Do(ctx, "books:abc", fn, enabled)
	if err != nil {
		t.Fatalf("second Do() error = %v", err)
	}
	if data != "recovered" {
		t.Errorf("second Do() = %v, want recovered (error must not be cached)", data)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2", got)
	}
}

func TestInvalidateMarksWithoutRefetching(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var calls atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		calls.Add(1)
		return calls.Load(), nil
	}

	if _, err := c.Do(ctx, Key("books", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	marked := c.Invalidate(Prefix("books"))
	if marked != 1 {
		t.Errorf("Invalidate() = %d, want 1", marked)
	}
	// Invalidation itself must not refetch.
	if got := calls.Load(); got != 2 {
		t.Errorf("fetch calls after invalidate = %d, want 2", got)
	}

	// The marked key refetches; the untouched one is still served.
	data, err := c.Do(ctx, Key("books", 1), fn, enabled)
	if err != nil {
		t.Fatalf("Do() after invalidate error = %v", err)
	}
	if data != int32(3) {
		t.Errorf("books after invalidate = %v, want fresh value 3", data)
	}
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("fetch calls = %d, want 3 (favorites still cached)", got)
	}
}

func TestInvalidateCountsOnlyNewMarks(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	fn := func(context.Context) (interface{}, error) { return "v", nil }
	if _, err := c.Do(ctx, Key("books", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	if marked := c.Invalidate(Prefix("books")); marked != 1 {
		t.Errorf("first Invalidate() = %d, want 1", marked)
	}
	if marked := c.Invalidate(Prefix("books")); marked != 0 {
		t.Errorf("second Invalidate() = %d, want 0", marked)
	}
	if marked := c.Invalidate(Prefix("reviews")); marked != 0 {
		t.Errorf("Invalidate(reviews) = %d, want 0 with no matches", marked)
	}
}

func TestMutateInvalidatesOnSuccessOnly(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var fetches atomic.Int32
	fn := func(context.Context) (interface{}, error) {
		fetches.Add(1)
		return "cached", nil
	}
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	wantErr := errors.New("backend rejected")
	err := c.Mutate(ctx, func(context.Context) error { return wantErr }, Prefix("favorites"))
	if !errors.Is(err, wantErr) {
		t.Fatalf("Mutate() error = %v, want backend error", err)
	}
	// Failed mutation leaves the cache untouched.
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := fetches.Load(); got != 1 {
		t.Errorf("fetch calls = %d, want 1 after failed mutation", got)
	}

	if err := c.Mutate(ctx, func(context.Context) error { return nil }, Prefix("favorites")); err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if got := fetches.Load(); got != 2 {
		t.Errorf("fetch calls = %d, want 2 after successful mutation", got)
	}
}

func TestMutatePublishesInvalidationEvents(t *testing.T) {
	eventBus := bus.New()
	defer eventBus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msgs, err := eventBus.Subscribe(ctx, bus.TopicCacheInvalidated)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	c := New(time.Minute, eventBus)
	fn := func(context.Context) (interface{}, error) { return "v", nil }
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}

	err = c.Mutate(ctx, func(context.Context) error { return nil }, Prefix("favorites"), Prefix("recommendations"))
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	want := map[string]int{
		Prefix("favorites"):       1,
		Prefix("recommendations"): 0,
	}
	for i := 0; i < 2; i++ {
		select {
		case msg := <-msgs:
			event, err := bus.DecodeInvalidationEvent(msg)
			if err != nil {
				t.Fatalf("decode event %d: %v", i, err)
			}
			msg.Ack()
			marked, ok := want[event.Prefix]
			if !ok {
				t.Fatalf("unexpected prefix %q", event.Prefix)
			}
			if event.Marked != marked {
				t.Errorf("event %q marked = %d, want %d", event.Prefix, event.Marked, marked)
			}
			delete(want, event.Prefix)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for event %d", i)
		}
	}
}

// TestFavoriteToggleReflectsServerTruth drives the add-to-favorites flow:
// the status query is cached, the mutation invalidates it, and the next
// read returns the server's new answer.
func TestFavoriteToggleReflectsServerTruth(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	var favorited atomic.Bool
	statusKey := Key("favorite-status", 1)
	status := func(context.Context) (models.FavoriteStatus, error) {
		return models.FavoriteStatus{Favorited: favorited.Load()}, nil
	}

	got, err := Fetch(ctx, c, statusKey, status, enabled)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Favorited {
		t.Fatal("initial status should be not favorited")
	}

	_, err = Mutate(ctx, c, func(context.Context) (models.MessageResponse, error) {
		favorited.Store(true)
		return models.MessageResponse{Message: "added"}, nil
	}, statusKey, Prefix("favorites"))
	if err != nil {
		t.Fatalf("Mutate() error = %v", err)
	}

	got, err = Fetch(ctx, c, statusKey, status, enabled)
	if err != nil {
		t.Fatalf("Fetch() after mutation error = %v", err)
	}
	if !got.Favorited {
		t.Error("status after add-to-favorites should be favorited")
	}
}

func TestTypedFetchRejectsMismatchedEntry(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	_, err := Fetch(ctx, c, "books:abc", func(context.Context) (string, error) {
		return "a string", nil
	}, enabled)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	_, err = Fetch(ctx, c, "books:abc", func(context.Context) (int, error) {
		return 42, nil
	}, enabled)
	if err == nil {
		t.Fatal("Fetch() with mismatched type should fail")
	}
}

func TestKeyGeneration(t *testing.T) {
	type params struct {
		Page int
		Size int
	}

	key1 := Key("books", params{Page: 1, Size: 12})
	key2 := Key("books", params{Page: 1, Size: 12})
	key3 := Key("books", params{Page: 2, Size: 12})

	if key1 != key2 {
		t.Error("same params should generate the same key")
	}
	if key1 == key3 {
		t.Error("different params should generate different keys")
	}
	if !strings.HasPrefix(key1, Prefix("books")) {
		t.Errorf("key %q should start with the resource prefix", key1)
	}
}

func TestPrefixDoesNotMatchLongerResourceNames(t *testing.T) {
	key := Key("book-reviews", 1)
	if strings.HasPrefix(key, Prefix("book")) {
		t.Errorf("Prefix(book) must not match %q", key)
	}
	if !strings.HasPrefix(Key("book", 1), Prefix("book")) {
		t.Error("Prefix(book) should match its own resource")
	}
}

func TestCacheStats(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	fn := func(context.Context) (interface{}, error) { return "v", nil }
	if _, err := c.Do(ctx, "books:abc", fn, enabled); err != nil { // miss
		t.Fatalf("Do() error = %v", err)
	}
	for i := 0; i < 2; i++ { // hits
		if _, err := c.Do(ctx, "books:abc", fn, enabled); err != nil {
			t.Fatalf("Do() error = %v", err)
		}
	}

	stats := c.GetStats()
	if stats.Hits != 2 {
		t.Errorf("Hits = %d, want 2", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Misses = %d, want 1", stats.Misses)
	}
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys = %d, want 1", stats.TotalKeys)
	}

	hitRate := c.HitRate()
	want := 66.66666666666667
	if hitRate < want-0.01 || hitRate > want+0.01 {
		t.Errorf("HitRate() = %.2f, want around %.2f", hitRate, want)
	}
}

func TestSweepRemovesUnservableEntries(t *testing.T) {
	c := New(time.Minute, nil)
	ctx := context.Background()

	fn := func(context.Context) (interface{}, error) { return "v", nil }
	if _, err := c.Do(ctx, Key("books", 1), fn, Options{StaleTime: time.Millisecond, Enabled: true}); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if _, err := c.Do(ctx, Key("favorites", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if _, err := c.Do(ctx, Key("reviews", 1), fn, enabled); err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	c.Invalidate(Prefix("reviews"))

	time.Sleep(10 * time.Millisecond)

	if evicted := c.Sweep(); evicted != 2 {
		t.Errorf("Sweep() = %d, want 2 (one expired, one marked stale)", evicted)
	}

	stats := c.GetStats()
	if stats.TotalKeys != 1 {
		t.Errorf("TotalKeys after sweep = %d, want 1", stats.TotalKeys)
	}
}
