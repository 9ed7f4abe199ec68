// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Package resource provides the shared machinery for Domara resource
// clients: a stale-response-safe list fetcher that every collection screen
// (staff, units, invoices) is built on.
package resource

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/domara/domara-go/pkg/pagination"
)

// FetchFunc issues one page request and returns the decoded items plus the
// page metadata from the response envelope.
type FetchFunc[T any] func(ctx context.Context, query url.Values) ([]T, pagination.Meta, error)

// Lister serializes list results for one collection.
//
// Fetches may overlap: a user paging quickly, or changing filters while a
// request is in flight, issues a new fetch before the previous one lands.
// Each fetch is stamped with an issue ticket; a response is installed only
// while its ticket is still the newest, so a slow early response can never
// overwrite the result of a later request.
type Lister[T any] struct {
	fetch  FetchFunc[T]
	logger *slog.Logger

	mu        sync.RWMutex
	ticket    uint64
	installed uint64
	items     []T
	meta      pagination.Meta
	loaded    bool
}

// NewLister wraps a fetch function with stale-response protection.
func NewLister[T any](fetch FetchFunc[T], logger *slog.Logger) *Lister[T] {
	return &Lister[T]{fetch: fetch, logger: logger}
}

/*
Refresh fetches one page and installs it as the current result.

Description: Issues the fetch stamped with a fresh ticket. When the response
arrives after a newer fetch has already been issued, the result is discarded
and the caller gets the items for its own use only — the shared state keeps
whatever the newest fetch installs. Cancelled contexts surface the
cancellation without touching installed state.

Parameters:
  - context: context.Context
  - params: Page number and size
  - filters: Collection-specific filters (may be nil)

Returns:
  - []T: The fetched page
  - pagination.Meta: Page metadata
  - error: Fetch failures
*/
func (lister *Lister[T]) Refresh(context context.Context, params pagination.Params, filters url.Values) ([]T, pagination.Meta, error) {
	lister.mu.Lock()
	lister.ticket++
	ticket := lister.ticket
	lister.mu.Unlock()

	query := url.Values{}
	for key, values := range filters {
		query[key] = values
	}
	params.Normalize().Encode(query)

	items, meta, err := lister.fetch(context, query)
	if err != nil {
		return nil, pagination.Meta{}, err
	}

	lister.mu.Lock()
	if ticket <= lister.installed {
		// A newer fetch already landed; this response is stale.
		lister.mu.Unlock()
		lister.logger.Debug("list_stale_response_discarded",
			slog.Uint64("ticket", ticket),
		)
		return items, meta, nil
	}
	lister.installed = ticket
	lister.items = items
	lister.meta = meta
	lister.loaded = true
	lister.mu.Unlock()

	return items, meta, nil
}

// Current returns the installed page, its metadata, and whether any fetch
// has completed yet. The returned slice is shared; callers must not mutate.
func (lister *Lister[T]) Current() ([]T, pagination.Meta, bool) {
	lister.mu.RLock()
	defer lister.mu.RUnlock()
	return lister.items, lister.meta, lister.loaded
}

// Invalidate drops the installed result, forcing the next [Lister.Current]
// to report unloaded until a fetch completes.
func (lister *Lister[T]) Invalidate() {
	lister.mu.Lock()
	lister.items = nil
	lister.meta = pagination.Meta{}
	lister.loaded = false
	lister.mu.Unlock()
}
