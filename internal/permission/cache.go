// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package permission

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/domara/domara-go/internal/event"
	"github.com/domara/domara-go/internal/keystore"
	"github.com/domara/domara-go/internal/platform/constants"
)

// Cache persists the permission snapshot and notifies consumers on change.
//
// # Single Writer
//
// Every state-changing path (login, refresh, explicit permission refresh,
// logout) funnels through [Cache.Write] or [Cache.Clear]. Both perform a full
// replace of the snapshot — never a partial merge — and broadcast the
// permission-changed event unconditionally. Correctness depends on every
// writer re-triggering the broadcast, so there is no batching or debouncing.
type Cache struct {
	store  keystore.Store
	bus    *event.Broadcaster
	logger *slog.Logger
}

// NewCache constructs a [Cache] over the given keystore.
func NewCache(store keystore.Store, bus *event.Broadcaster, logger *slog.Logger) *Cache {
	return &Cache{store: store, bus: bus, logger: logger}
}

/*
Write atomically replaces the persisted snapshot with the given collection.

Description: The collection is serialized in the canonical object shape
({id, name}) regardless of how it was originally read. A change notification
is published after the write lands.

Parameters:
  - permissions: Collection

Returns:
  - error: Keystore persistence failures
*/
func (cache *Cache) Write(permissions Collection) error {
	data, err := json.Marshal([]Permission(permissions))
	if err != nil {
		return fmt.Errorf("permission_cache_serialize_failed: %w", err)
	}

	if err := cache.store.Set(constants.KeyUserPermissions, data); err != nil {
		return fmt.Errorf("permission_cache_write_failed: %w", err)
	}

	cache.bus.Publish(constants.EventPermissionChanged)
	return nil
}

/*
Clear removes the snapshot entirely.

Description: Distinct from writing an empty collection — readers treat both
as "no permissions", but Clear is the logout path and leaves no trace in the
keystore. A change notification is published after the delete.

Returns:
  - error: Keystore persistence failures
*/
func (cache *Cache) Clear() error {
	if err := cache.store.Delete(constants.KeyUserPermissions); err != nil {
		return fmt.Errorf("permission_cache_clear_failed: %w", err)
	}

	cache.bus.Publish(constants.EventPermissionChanged)
	return nil
}

/*
Read returns the persisted snapshot, or absent.

Description: Malformed persisted content is logged and treated as absent.
Read never returns an error to its caller — the authorization path must
degrade to "no permissions" rather than fail.

Returns:
  - Collection: Decoded snapshot (nil when absent)
  - bool: Whether a valid snapshot exists
*/
func (cache *Cache) Read() (Collection, bool) {
	data, ok, err := cache.store.Get(constants.KeyUserPermissions)
	if err != nil {
		cache.logger.Warn("permission_cache_read_failed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var permissions Collection
	if err := json.Unmarshal(data, &permissions); err != nil {
		cache.logger.Warn("permission_cache_malformed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}

	return permissions, true
}
