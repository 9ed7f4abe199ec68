// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package keystore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// File is a [Store] persisted as a single JSON document on disk.
//
// # Atomicity
//
// Every mutation rewrites the whole document to a temporary file in the same
// directory and renames it over the original. Rename is atomic on POSIX
// filesystems, so readers never observe a half-written document.
//
// # Permissions
//
// The document holds bearer tokens, so it is created 0600 and its parent
// directory 0700.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// NewFile opens (or creates) the keystore document at path.
//
// # Parameters
//   - path: Filesystem location of the JSON document.
//   - logger: Structured logger for corruption warnings.
//
// # Returns
//   - *File: Ready-to-use store with existing content loaded.
//   - error: Unreadable directory or file (corruption is NOT an error).
//
// # Corruption
//
// A document that exists but does not parse is treated as absent: the store
// starts empty and logs a warning. The client then behaves as logged-out,
// which is the most restrictive (and therefore safest) degradation.
func NewFile(path string, logger *slog.Logger) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("keystore: failed to create directory: %w", err)
	}

	store := &File{
		path:   path,
		values: make(map[string]json.RawMessage),
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &store.values); err != nil {
			logger.Warn("keystore_document_corrupt",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			store.values = make(map[string]json.RawMessage)
		}
	case os.IsNotExist(err):
		// First run. The document is created on the first Set.
	default:
		return nil, fmt.Errorf("keystore: failed to read %s: %w", path, err)
	}

	return store, nil
}

// Get returns the value stored under key, and whether it exists.
func (store *File) Get(key string) ([]byte, bool, error) {
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

// Set replaces the value stored under key and flushes the document.
func (store *File) Set(key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := make(json.RawMessage, len(value))
	copy(copied, value)
	store.values[key] = copied

	return store.flushLocked()
}

// Delete removes the key entirely and flushes the document.
func (store *File) Delete(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	if _, ok := store.values[key]; !ok {
		return nil
	}
	delete(store.values, key)

	return store.flushLocked()
}

// Keys returns the keys currently present.
func (store *File) Keys() ([]string, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	keys := make([]string, 0, len(store.values))
	for key := range store.values {
		keys = append(keys, key)
	}
	return keys, nil
}

// flushLocked serializes the document and replaces the file atomically.
// The caller must hold store.mu.
func (store *File) flushLocked() error {
	data, err := json.MarshalIndent(store.values, "", "  ")
	if err != nil {
		return fmt.Errorf("keystore: failed to serialize document: %w", err)
	}

	return replaceFile(store.path, data)
}

// replaceFile writes data to a temp file beside path and renames it over path.
func replaceFile(path string, data []byte) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".keystore-*")
	if err != nil {
		return fmt.Errorf("keystore: failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// Best-effort cleanup if any step below fails.
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("keystore: failed to set permissions: %w", err)
	}

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("keystore: failed to write document: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("keystore: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("keystore: failed to replace document: %w", err)
	}

	return nil
}
