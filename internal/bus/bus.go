// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package bus provides the in-process event bus connecting the session manager
and query cache to push consumers (the WebSocket hub).

Messages are serialized JSON on Watermill's gochannel transport. Delivery is
fire-and-forget: publishes never block on slow consumers and events published
with no subscribers are dropped.
*/
package bus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/anupam-talentica/bookreview-client/internal/metrics"
)

// Topics carried on the bus.
const (
	TopicSessionChanged   = "session.changed"
	TopicCacheInvalidated = "cache.invalidated"
)

// SessionEvent describes one auth state transition.
type SessionEvent struct {
	Transition    string    `json:"transition"`
	Authenticated bool      `json:"authenticated"`
	UserID        int64     `json:"userId,omitempty"`
	OccurredAt    time.Time `json:"occurredAt"`
}

// InvalidationEvent describes one cache invalidation sweep.
type InvalidationEvent struct {
	Prefix     string    `json:"prefix"`
	Marked     int       `json:"marked"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Bus wraps a gochannel pub/sub with serialization and close tracking.
type Bus struct {
	pubsub *gochannel.GoChannel
	mu     sync.RWMutex
	closed bool
}

// New creates an in-process bus. Subscriber channels are buffered so a slow
// consumer cannot stall a publisher.
func New() *Bus {
	pubsub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer: 64,
	}, newWatermillLogger())

	return &Bus{pubsub: pubsub}
}

// Publish serializes payload and publishes it on topic.
func (b *Bus) Publish(ctx context.Context, topic string, payload interface{}, metadata map[string]string) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("bus is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := message.NewMessage(uuid.New().String(), data)
	msg.SetContext(ctx)
	for k, v := range metadata {
		msg.Metadata.Set(k, v)
	}

	if err := b.pubsub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.RecordBusPublish(topic)
	return nil
}

// PublishSessionChanged publishes one session transition event.
func (b *Bus) PublishSessionChanged(ctx context.Context, event SessionEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return b.Publish(ctx, TopicSessionChanged, event, map[string]string{
		"transition": event.Transition,
	})
}

// PublishCacheInvalidated publishes one cache invalidation event.
func (b *Bus) PublishCacheInvalidated(ctx context.Context, event InvalidationEvent) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	return b.Publish(ctx, TopicCacheInvalidated, event, map[string]string{
		"prefix": event.Prefix,
	})
}

// Subscribe returns a channel of messages for topic. The channel closes when
// ctx is canceled or the bus is closed. Consumers must Ack each message.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return nil, fmt.Errorf("bus is closed")
	}
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the bus down. Safe to call more than once.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

// DecodeSessionEvent unmarshals a session.changed message payload.
func DecodeSessionEvent(msg *message.Message) (SessionEvent, error) {
	var event SessionEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return SessionEvent{}, fmt.Errorf("decode session event: %w", err)
	}
	return event, nil
}

// DecodeInvalidationEvent unmarshals a cache.invalidated message payload.
func DecodeInvalidationEvent(msg *message.Message) (InvalidationEvent, error) {
	var event InvalidationEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		return InvalidationEvent{}, fmt.Errorf("decode invalidation event: %w", err)
	}
	return event, nil
}
