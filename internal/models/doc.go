// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

// Package models defines the wire types exchanged with the remote book
// review backend and reused across the daemon.
//
// JSON field names are camelCase because that is the backend's contract;
// these types are decoded straight off the wire by the API client and
// re-serialized into view models by the views package.
package models
