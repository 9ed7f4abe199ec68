// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package keystore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// opTimeout bounds every Redis round-trip so a dead server cannot stall the
// synchronous [Store] contract indefinitely.
const opTimeout = 2 * time.Second

// Redis is a [Store] backed by a prefixed Redis key namespace.
//
// # Why Redis?
//
// Server-side embedders of the SDK (a BFF, a worker fleet) need one session
// shared across processes. Keys are namespaced with a caller-chosen prefix so
// multiple tenants can share a Redis instance.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis constructs a Redis-backed store.
//
// # Parameters
//   - client: Connected go-redis client.
//   - prefix: Key namespace, e.g. "domara:tenant-42".
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

// Get returns the value stored under key, and whether it exists.
func (store *Redis) Get(key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	value, err := store.client.Get(ctx, store.namespaced(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("keystore_redis_get_failed: %w", err)
	}

	return value, true, nil
}

// Set replaces the value stored under key. Values do not expire: lifecycle
// is owned by the session layer, not by TTL.
func (store *Redis) Set(key string, value []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := store.client.Set(ctx, store.namespaced(key), value, 0).Err(); err != nil {
		return fmt.Errorf("keystore_redis_set_failed: %w", err)
	}

	return nil
}

// Delete removes the key entirely.
func (store *Redis) Delete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := store.client.Del(ctx, store.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("keystore_redis_delete_failed: %w", err)
	}

	return nil
}

// Keys returns the keys currently present under this store's prefix.
func (store *Redis) Keys() ([]string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	pattern := store.namespaced("*")
	var keys []string

	iter := store.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val()[len(store.prefix)+1:])
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("keystore_redis_scan_failed: %w", err)
	}

	return keys, nil
}

// namespaced prefixes key with the store's namespace.
func (store *Redis) namespaced(key string) string {
	return store.prefix + ":" + key
}
