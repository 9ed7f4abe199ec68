// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package keystore

import "sync"

// Memory is an in-process [Store] with no persistence.
//
// It is the default when no keystore path is configured, and the store of
// choice in tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{values: make(map[string][]byte)}
}

// Get returns the value stored under key, and whether it exists.
func (store *Memory) Get(key string) ([]byte, bool, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	value, ok := store.values[key]
	if !ok {
		return nil, false, nil
	}

	// Copy so callers cannot mutate the stored slice.
	out := make([]byte, len(value))
	copy(out, value)
	return out, true, nil
}

// Set replaces the value stored under key.
func (store *Memory) Set(key string, value []byte) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	copied := make([]byte, len(value))
	copy(copied, value)
	store.values[key] = copied
	return nil
}

// Delete removes the key entirely.
func (store *Memory) Delete(key string) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	delete(store.values, key)
	return nil
}

// Keys returns the keys currently present.
func (store *Memory) Keys() ([]string, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()

	keys := make([]string, 0, len(store.values))
	for key := range store.values {
		keys = append(keys, key)
	}
	return keys, nil
}
