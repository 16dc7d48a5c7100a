// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	json "github.com/goccy/go-json"

	"github.com/anupam-talentica/bookreview-client/internal/models"
)

// ErrNoCredentials indicates no credential record is persisted.
var ErrNoCredentials = errors.New("no persisted credentials")

// credentialsKey is the single key under which the record lives. Token and
// user are one record, written in one transaction, so a crash can never
// leave a token without its user or vice versa.
const credentialsKey = "credentials:current"

// Credentials is the persisted session record.
type Credentials struct {
	Token   string      `json:"token"`
	User    models.User `json:"user"`
	SavedAt time.Time   `json:"savedAt"`
}

// Store persists the credential record in BadgerDB, optionally encrypted at
// rest with AES-GCM.
type Store struct {
	db  *badger.DB
	enc *Encryptor
}

// NewStore creates a credential store. enc may be nil (plaintext at rest).
func NewStore(db *badger.DB, enc *Encryptor) *Store {
	return &Store{db: db, enc: enc}
}

// Save writes the record in a single transaction.
func (s *Store) Save(ctx context.Context, creds Credentials) error {
	if creds.Token == "" {
		return errors.New("refusing to persist empty token")
	}
	if creds.SavedAt.IsZero() {
		creds.SavedAt = time.Now().UTC()
	}

	data, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	sealed, err := s.enc.Encrypt(data)
	if err != nil {
		return fmt.Errorf("encrypt credentials: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(credentialsKey), sealed)
	})
}

// Load reads the persisted record. Returns ErrNoCredentials when absent.
func (s *Store) Load(ctx context.Context) (*Credentials, error) {
	var sealed []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(credentialsKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoCredentials
		}
		if err != nil {
			return fmt.Errorf("get credentials: %w", err)
		}
		sealed, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	data, err := s.enc.Decrypt(sealed)
	if err != nil {
		return nil, fmt.Errorf("decrypt credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// Clear deletes the record. Deleting an absent record is not an error.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(credentialsKey))
		if err != nil && !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("delete credentials: %w", err)
		}
		return nil
	})
}

// Token implements the API client's token source: the bearer is read from
// persisted storage at request time, so rotation is picked up immediately.
// No credentials means an empty token, not an error.
func (s *Store) Token(ctx context.Context) (string, error) {
	creds, err := s.Load(ctx)
	if errors.Is(err, ErrNoCredentials) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return creds.Token, nil
}
