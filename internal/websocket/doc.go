// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

/*
Package websocket pushes session and cache events to connected UI clients.

It uses gorilla/websocket with a hub-client architecture: the Hub manages
connections and broadcasts, each Client runs a read and a write goroutine,
and the Forwarder subscribes to the internal event bus and turns
session.changed and cache.invalidated events into broadcasts. UI clients
react by re-rendering the affected views; they never receive data payloads
beyond the event itself.

Message Types:

  - session_changed: an auth transition happened (login, logout, forced
    logout, token refresh); payload carries the transition name and the
    authenticated flag.
  - cache_invalidated: cached data under a key prefix went stale after a
    mutation; payload carries the prefix and how many entries were marked.
  - ping/pong: client-initiated keepalive on top of the protocol-level
    ping the write pump already sends.

Both Hub and Forwarder implement suture.Service and run under the daemon's
supervisor; a hub restart drops all connections and clients reconnect.

Slow clients are dropped rather than buffered without bound: each client
has a 256-message send buffer, and a client that cannot drain it loses its
connection on the next broadcast.
*/
package websocket
