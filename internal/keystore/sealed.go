// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package keystore

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"
)

// Sealed file format markers. The salt and nonce are stored alongside the
// ciphertext so the document is self-describing.
const (
	sealedVersion = 1
	saltLength    = 16
	nonceLength   = 24
	keyLength     = 32
)

// scrypt cost parameters. Interactive-login profile: the key is derived once
// per process, not per operation.
const (
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// sealedDocument is the on-disk envelope of a [Sealed] store.
type sealedDocument struct {
	Version int    `json:"version"`
	Salt    []byte `json:"salt"`
	Nonce   []byte `json:"nonce"`
	Box     []byte `json:"box"`
}

// Sealed is a [Store] persisted as an encrypted JSON document on disk.
//
// # Cryptography
//
// The passphrase is stretched with scrypt into a 32-byte key; the serialized
// key-value document is sealed with NaCl secretbox (XSalsa20-Poly1305). A
// fresh nonce is generated for every flush. Tampering is detected by the
// authenticator and surfaces as an open failure, never as silently wrong data.
type Sealed struct {
	mu     sync.Mutex
	path   string
	key    [keyLength]byte
	salt   []byte
	values map[string]json.RawMessage
}

// NewSealed opens (or creates) an encrypted keystore document at path.
//
// # Parameters
//   - path: Filesystem location of the sealed document.
//   - passphrase: Secret used to derive the sealing key.
//   - logger: Structured logger for corruption warnings.
//
// # Returns
//   - *Sealed: Ready-to-use store with existing content unsealed.
//   - error: I/O failures or a wrong passphrase on an existing document.
func NewSealed(path, passphrase string, logger *slog.Logger) (*Sealed, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keystore: failed to create directory: %w", err)
	}

	store := &Sealed{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := store.unseal(data, passphrase, logger); err != nil {
			return nil, err
		}
	case os.IsNotExist(err):
		// First run: generate a fresh salt and derive the key.
		store.salt = make([]byte, saltLength)
		if _, err := rand.Read(store.salt); err != nil {
			return nil, fmt.Errorf("keystore: failed to generate salt: %w", err)
		}
		if err := deriveKey(passphrase, store.salt, &store.key); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("keystore: failed to read %s: %w", path, err)
	}

	return store, nil
}

// unseal decrypts an existing document into store.values.
func (store *Sealed) unseal(data []byte, passphrase string, logger *slog.Logger) error {
	var doc sealedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		// Structural corruption degrades to an empty store, like the plain
		// file flavor. A wrong passphrase is different: see below.
		logger.Warn("keystore_sealed_document_corrupt",
			slog.String("path", store.path),
			slog.String("error", err.Error()),
		)
		store.salt = make([]byte, saltLength)
		if _, err := rand.Read(store.salt); err != nil {
			return fmt.Errorf("keystore: failed to generate salt: %w", err)
		}
		return deriveKey(passphrase, store.salt, &store.key)
	}

	if doc.Version != sealedVersion || len(doc.Salt) != saltLength || len(doc.Nonce) != nonceLength {
		return fmt.Errorf("keystore: unsupported sealed document at %s", store.path)
	}

	store.salt = doc.Salt
	if err := deriveKey(passphrase, store.salt, &store.key); err != nil {
		return err
	}

	var nonce [nonceLength]byte
	copy(nonce[:], doc.Nonce)

	plaintext, ok := secretbox.Open(nil, doc.Box, &nonce, &store.key)
	if !ok {
		// Authentication failure: wrong passphrase or tampering. This must
		// NOT degrade silently — the caller asked for this exact document.
		return fmt.Errorf("keystore: failed to unseal %s (wrong passphrase?)", store.path)
	}

	if err := json.Unmarshal(plaintext, &store.values); err != nil {
		logger.Warn("keystore_sealed_payload_corrupt",
			slog.String("path", store.path),
			slog.String("error", err.Error()),
		)
		store.values = make(map[string]json.RawMessage)
	}

	return nil
}

// Get returns the value stored under key, and whether it exists.
func (store *Sealed) Get(key string) ([]byte, bool, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	value, ok := store.values[key]
	if !ok {
		return nil, false, nil
	}

	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set replaces the value stored under key and reseals the document.
func (store *Sealed) Set(key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := make(json.RawMessage, len(value))
	copy(copied, value)
	store.values[key] = copied

	return store.flushLocked()
}

// Delete removes the key entirely and reseals the document.
func (store *Sealed) Delete(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.values[key]; !ok {
		return nil
	}
	delete(store.values, key)

	return store.flushLocked()
}

// Keys returns the keys currently present.
func (store *Sealed) Keys() ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys := make([]string, 0, len(store.values))
	for key := range store.values {
		keys = append(keys, key)
	}
	return keys, nil
}

// flushLocked seals the document with a fresh nonce and replaces the file.
// The caller must hold store.mu.
func (store *Sealed) flushLocked() error {
	plaintext, err := json.Marshal(store.values)
	if err != nil {
		return fmt.Errorf("keystore: failed to serialize document: %w", err)
	}

	var nonce [nonceLength]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("keystore: failed to generate nonce: %w", err)
	}

	doc := sealedDocument{
		Version: sealedVersion,
		Salt:    store.salt,
		Nonce:   nonce[:],
		Box:     secretbox.Seal(nil, plaintext, &nonce, &store.key),
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("keystore: failed to serialize envelope: %w", err)
	}

	return replaceFile(store.path, data)
}

// deriveKey stretches the passphrase into a secretbox key using scrypt.
func deriveKey(passphrase string, salt []byte, key *[keyLength]byte) error {
	derived, err := scrypt.Key([]byte(passphrase), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return fmt.Errorf("keystore: key derivation failed: %w", err)
	}
	copy(key[:], derived)
	return nil
}
