// Bookreviewd - Self-Hosted Book Review Dashboard Gateway
// Copyright 2026 Anupam (anupam-talentica)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/anupam-talentica/bookreview-client

package session

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

// Credential encryption errors.
var (
	// ErrDecryptionFailed indicates the decryption operation failed.
	ErrDecryptionFailed = errors.New("decryption failed")

	// ErrInvalidCiphertext indicates the ciphertext is malformed.
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
)

// encryptionContext is the HKDF info string binding derived keys to this use.
const encryptionContext = "bookreviewd-credential-encryption"

// Encryptor provides AES-GCM encryption for the persisted credential record.
// A nil *Encryptor is valid and means encryption is disabled: values pass
// through unchanged.
type Encryptor struct {
	aead cipher.AEAD
}

// NewEncryptor creates an encryptor from a base64-encoded master key of at
// least 16 bytes. An empty key returns (nil, nil): encryption disabled.
func NewEncryptor(masterKeyB64 string) (*Encryptor, error) {
	if masterKeyB64 == "" {
		return nil, nil
	}

	masterKey, err := base64.StdEncoding.DecodeString(masterKeyB64)
	if err != nil {
		return nil, fmt.Errorf("decode master key: %w", err)
	}
	if len(masterKey) < 16 {
		return nil, errors.New("master key must be at least 16 bytes")
	}

	derivedKey, err := deriveKey(masterKey, []byte(encryptionContext), 32)
	if err != nil {
		return nil, fmt.Errorf("derive encryption key: %w", err)
	}

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("create GCM cipher: %w", err)
	}

	return &Encryptor{aead: aead}, nil
}

// deriveKey derives a key using HKDF-SHA256.
func deriveKey(secret, context []byte, keyLen int) ([]byte, error) {
	reader := hkdf.New(sha256.New, secret, nil, context)
	key := make([]byte, keyLen)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, err
	}
	return key, nil
}

// Encrypt seals plaintext and returns the nonce-prefixed ciphertext.
func (e *Encryptor) Encrypt(plaintext []byte) ([]byte, error) {
	if e == nil || e.aead == nil {
		return plaintext, nil
	}
	if len(plaintext) == 0 {
		return nil, nil
	}

	nonce := make([]byte, e.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generate nonce: %w", err)
	}
	return e.aead.Seal(nonce, nonce, plaintext, nil), nil
}

// Decrypt opens nonce-prefixed ciphertext produced by Encrypt.
func (e *Encryptor) Decrypt(ciphertext []byte) ([]byte, error) {
	if e == nil || e.aead == nil {
		return ciphertext, nil
	}
	if len(ciphertext) == 0 {
		return nil, nil
	}

	nonceSize := e.aead.NonceSize()
	if len(ciphertext) < nonceSize+1+e.aead.Overhead() {
		return nil, fmt.Errorf("%w: data too short", ErrInvalidCiphertext)
	}

	nonce := ciphertext[:nonceSize]
	sealed := ciphertext[nonceSize:]

	plaintext, err := e.aead.Open(nil, nonce, sealed, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrDecryptionFailed, err.Error())
	}
	return plaintext, nil
}

// IsEnabled reports whether encryption is active.
func (e *Encryptor) IsEnabled() bool {
	return e != nil && e.aead != nil
}

// GenerateEncryptionKey generates a cryptographically secure 256-bit key,
// base64-encoded for use in configuration.
func GenerateEncryptionKey() (string, error) {
	key := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, key); err != nil {
		return "", fmt.Errorf("generate random key: %w", err)
	}
	return base64.StdEncoding.EncodeToString(key), nil
}
