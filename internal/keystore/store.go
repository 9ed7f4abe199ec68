// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package keystore implements the persisted key-value store backing the client.

It is the single place where state survives a process restart: auth tokens,
the current user record, the permission snapshot, and the preferred language
all live under fixed keys (see the constants package).

Architecture:

  - Store: The minimal contract every backend satisfies.
  - File: A single JSON document on disk, replaced atomically.
  - Sealed: The file flavor encrypted at rest (scrypt + secretbox).
  - Redis: A prefixed hash of keys for server-side embedders.
  - Memory: Ephemeral storage for tests and throwaway sessions.

Every write is a full replace of the value under its key — backends never
merge partial updates, which keeps interleaved writers from corrupting a
snapshot halfway through.
*/
package keystore

// Store is the contract for the persisted key-value store.
//
// # Semantics
//
//   - Get returns (nil, false, nil) for a key that was never written or was
//     deleted. Absence is not an error.
//   - Set replaces the whole value. There is no partial update.
//   - Delete is idempotent; deleting an absent key succeeds.
//
// # Concurrency
//
// Implementations are safe for concurrent use by multiple goroutines.
type Store interface {

	// Get returns the raw value stored under key, and whether it exists.
	Get(key string) ([]byte, bool, error)

	// Set atomically replaces the value stored under key.
	Set(key string, value []byte) error

	// Delete removes the key entirely. Distinct from writing an empty value.
	Delete(key string) error

	// Keys returns the set of keys currently present, in no particular order.
	Keys() ([]string, error)
}
