// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package resource

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domara/domara-go/pkg/pagination"
)

/*
TestListerRefreshInstallsPage verifies a successful fetch becomes the current
result with normalized pagination in the outgoing query.
*/
func TestListerRefreshInstallsPage(t *testing.T) {
	var seenQuery url.Values
	fetch := func(_ context.Context, query url.Values) ([]string, pagination.Meta, error) {
		seenQuery = query
		return []string{"alpha", "beta"}, pagination.NewMeta(1, 20, 2), nil
	}
	lister := NewLister(fetch, slog.New(slog.DiscardHandler))

	_, _, loaded := lister.Current()
	require.False(t, loaded)

	filters := url.Values{"status": []string{"active"}}
	items, meta, err := lister.Refresh(t.Context(), pagination.Params{Page: 0, Limit: 0}, filters)
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "beta"}, items)
	assert.False(t, meta.HasMore())

	// Zero params normalize to the defaults; filters pass through.
	assert.Equal(t, "1", seenQuery.Get("page"))
	assert.NotEmpty(t, seenQuery.Get("limit"))
	assert.Equal(t, "active", seenQuery.Get("status"))

	current, _, loaded := lister.Current()
	require.True(t, loaded)
	assert.Equal(t, items, current)
}

/*
TestListerDiscardsStaleResponse verifies a slow early fetch cannot overwrite
the result of a later fetch that already landed.
*/
func TestListerDiscardsStaleResponse(t *testing.T) {
	firstEntered := make(chan struct{})
	firstRelease := make(chan struct{})

	var mu sync.Mutex
	calls := 0

	fetch := func(_ context.Context, _ url.Values) ([]string, pagination.Meta, error) {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()

		if call == 1 {
			close(firstEntered)
			<-firstRelease
			return []string{"stale"}, pagination.NewMeta(1, 20, 1), nil
		}
		return []string{"fresh"}, pagination.NewMeta(1, 20, 1), nil
	}
	lister := NewLister(fetch, slog.New(slog.DiscardHandler))

	// 1. Issue a fetch that parks inside the transport.
	type result struct {
		items []string
		err   error
	}
	done := make(chan result, 1)
	go func() {
		items, _, err := lister.Refresh(t.Context(), pagination.Params{}, nil)
		done <- result{items: items, err: err}
	}()
	<-firstEntered

	// 2. A newer fetch lands while the first is still in flight.
	items, _, err := lister.Refresh(t.Context(), pagination.Params{}, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"fresh"}, items)

	// 3. Release the first fetch: its caller still gets its page, but the
	// shared state keeps the newer result.
	close(firstRelease)
	first := <-done
	require.NoError(t, first.err)
	assert.Equal(t, []string{"stale"}, first.items)

	current, _, loaded := lister.Current()
	require.True(t, loaded)
	assert.Equal(t, []string{"fresh"}, current)
}

/*
TestListerFetchFailureKeepsState verifies a failed refresh surfaces the error
without clobbering the previously installed page.
*/
func TestListerFetchFailureKeepsState(t *testing.T) {
	var fail bool
	fetch := func(ctx context.Context, _ url.Values) ([]string, pagination.Meta, error) {
		if fail {
			return nil, pagination.Meta{}, ctx.Err()
		}
		return []string{"alpha"}, pagination.NewMeta(1, 20, 1), nil
	}
	lister := NewLister(fetch, slog.New(slog.DiscardHandler))

	_, _, err := lister.Refresh(t.Context(), pagination.Params{}, nil)
	require.NoError(t, err)

	fail = true
	cancelled, cancel := context.WithCancel(t.Context())
	cancel()
	_, _, err = lister.Refresh(cancelled, pagination.Params{}, nil)
	require.Error(t, err)

	current, _, loaded := lister.Current()
	require.True(t, loaded)
	assert.Equal(t, []string{"alpha"}, current)
}

/*
TestListerInvalidate verifies dropping the installed result returns the
lister to the unloaded state.
*/
func TestListerInvalidate(t *testing.T) {
	fetch := func(_ context.Context, _ url.Values) ([]string, pagination.Meta, error) {
		return []string{"alpha"}, pagination.NewMeta(1, 20, 1), nil
	}
	lister := NewLister(fetch, slog.New(slog.DiscardHandler))

	_, _, err := lister.Refresh(t.Context(), pagination.Params{}, nil)
	require.NoError(t, err)

	lister.Invalidate()

	items, _, loaded := lister.Current()
	assert.False(t, loaded)
	assert.Nil(t, items)
}
