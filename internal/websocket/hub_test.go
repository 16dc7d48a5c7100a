// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package websocket

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates a hub and runs it until the test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.Serve(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient builds a client with no connection; only the send
// channel matters for hub tests.
func createTestClient(hub *Hub) *Client {
	return &Client{id: clientIDCounter.Add(1), hub: hub, conn: nil, send: make(chan Message, 256)}
}

func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}
	if hub.clients == nil || hub.broadcast == nil || hub.Register == nil || hub.Unregister == nil {
		t.Error("hub channels and client map must be initialized")
	}
	if len(hub.clients) != 0 {
		t.Error("clients map should start empty")
	}
	if hub.String() != "websocket-hub" {
		t.Errorf("String() = %q, want websocket-hub", hub.String())
	}
}

func TestHubClientRegistration(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	if hub.GetClientCount() != 1 {
		t.Errorf("client count = %d, want 1", hub.GetClientCount())
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("client count after unregister = %d, want 0", hub.GetClientCount())
	}
}

func TestHubUnregisterUnknownClient(t *testing.T) {
	hub := setupHub(t)

	hub.Unregister <- createTestClient(hub)
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d, want 0", hub.GetClientCount())
	}
}

func TestBroadcastSessionChangedReachesAllClients(t *testing.T) {
	hub := setupHub(t)

	const numClients = 3
	clients := make([]*Client, numClients)
	for i := range clients {
		clients[i] = createTestClient(hub)
		registerClient(hub, clients[i])
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	received := 0

	for _, client := range clients {
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			select {
			case msg := <-c.send:
				if msg.Type != MessageTypeSessionChanged {
					t.Errorf("message type = %q, want %q", msg.Type, MessageTypeSessionChanged)
					return
				}
				event, ok := msg.Data.(bus.SessionEvent)
				if !ok {
					t.Errorf("payload type = %T, want bus.SessionEvent", msg.Data)
					return
				}
				if event.Transition != "logout" {
					t.Errorf("transition = %q, want logout", event.Transition)
				}
				mu.Lock()
				received++
				mu.Unlock()
			case <-time.After(time.Second):
			}
		}(client)
	}

	hub.BroadcastSessionChanged(bus.SessionEvent{Transition: "logout", Authenticated: false})
	wg.Wait()

	if received != numClients {
		t.Errorf("received = %d, want %d", received, numClients)
	}
}

func TestBroadcastDropsSlowClients(t *testing.T) {
	hub := setupHub(t)

	slow := &Client{id: clientIDCounter.Add(1), hub: hub, send: make(chan Message, 1)}
	healthy := createTestClient(hub)
	registerClient(hub, slow)
	registerClient(hub, healthy)

	// Fill the slow client's buffer, then broadcast again: the second
	// message cannot be queued and the client is dropped.
	hub.BroadcastCacheInvalidated(bus.InvalidationEvent{Prefix: "books:"})
	time.Sleep(20 * time.Millisecond)
	hub.BroadcastCacheInvalidated(bus.InvalidationEvent{Prefix: "favorites:"})
	time.Sleep(20 * time.Millisecond)

	if hub.GetClientCount() != 1 {
		t.Errorf("client count = %d, want 1 after dropping slow client", hub.GetClientCount())
	}

	// The healthy client received both broadcasts.
	for i := 0; i < 2; i++ {
		select {
		case msg := <-healthy.send:
			if msg.Type != MessageTypeCacheInvalidated {
				t.Errorf("message %d type = %q, want %q", i, msg.Type, MessageTypeCacheInvalidated)
			}
		case <-time.After(time.Second):
			t.Fatalf("healthy client missing broadcast %d", i)
		}
	}
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.Serve(ctx) }()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Serve() = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("client count after shutdown = %d, want 0", hub.GetClientCount())
	}
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("send channel should be closed, not delivering")
		}
	default:
		t.Error("send channel should be closed")
	}
}

func TestBroadcastWithoutClientsDoesNotBlock(t *testing.T) {
	hub := setupHub(t)

	hub.BroadcastSessionChanged(bus.SessionEvent{Transition: "login", Authenticated: true, UserID: 1})
	hub.BroadcastCacheInvalidated(bus.InvalidationEvent{Prefix: "books:", Marked: 2})
	hub.BroadcastJSON("custom", map[string]int{"n": 1})
	time.Sleep(10 * time.Millisecond)
}
