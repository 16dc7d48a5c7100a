// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package websocket

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/anupam-talentica/bookreview-client/internal/bus"
	"github.com/anupam-talentica/bookreview-client/internal/logging"
)

// Forwarder bridges bus events to websocket broadcasts: session transitions
// and cache invalidations published anywhere in the daemon reach every
// connected UI client. It runs as a supervised service.
type Forwarder struct {
	hub *Hub
	bus *bus.Bus
}

// NewForwarder creates a bus-to-websocket bridge.
func NewForwarder(hub *Hub, eventBus *bus.Bus) *Forwarder {
	return &Forwarder{hub: hub, bus: eventBus}
}

// Serve subscribes to the session and invalidation topics and forwards
// decoded events to the hub until the context is cancelled. A closed
// subscription ends the service; the supervisor decides on a restart.
func (f *Forwarder) Serve(ctx context.Context) error {
	sessions, err := f.bus.Subscribe(ctx, bus.TopicSessionChanged)
	if err != nil {
		return err
	}
	invalidations, err := f.bus.Subscribe(ctx, bus.TopicCacheInvalidated)
	if err != nil {
		return err
	}

	logging.Info().Msg("Bus to websocket forwarder started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-sessions:
			if !ok {
				return errors.New("session subscription closed")
			}
			f.forwardSession(msg)

		case msg, ok := <-invalidations:
			if !ok {
				return errors.New("invalidation subscription closed")
			}
			f.forwardInvalidation(msg)
		}
	}
}

func (f *Forwarder) String() string {
	return "bus-forwarder"
}

// forwardSession decodes and broadcasts one session event. Undecodable
// messages are dropped; redelivery cannot fix a bad payload.
func (f *Forwarder) forwardSession(msg *message.Message) {
	defer msg.Ack()

	event, err := bus.DecodeSessionEvent(msg)
	if err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable session event")
		return
	}
	f.hub.BroadcastSessionChanged(event)
}

func (f *Forwarder) forwardInvalidation(msg *message.Message) {
	defer msg.Ack()

	event, err := bus.DecodeInvalidationEvent(msg)
	if err != nil {
		logging.Warn().Err(err).Str("message_id", msg.UUID).Msg("Dropping undecodable invalidation event")
		return
	}
	f.hub.BroadcastCacheInvalidated(event)
}
