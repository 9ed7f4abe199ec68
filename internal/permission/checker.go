// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package permission

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/domara/domara-go/internal/event"
	"github.com/domara/domara-go/internal/platform/constants"
)

// errMatched is a control-flow sentinel used to short-circuit an any-of
// composite through errgroup's cancellation. It never escapes the package.
var errMatched = errors.New("permission: matched")

// Checker answers authorization questions against the cached snapshot.
//
// # Staleness
//
// The checker memoizes the decoded snapshot per generation. Every
// permission-changed notification bumps the generation, forcing the next
// check to re-read the cache. Boolean results are never cached across
// notifications.
//
// # Failure Policy
//
// No method returns an error. Absent, empty, or malformed snapshots all
// answer false; the call chain above must never fail on an access check.
type Checker struct {
	cache *Cache

	mu          sync.Mutex
	generation  uint64
	snapshot    Collection
	snapshotOK  bool
	snapshotGen uint64
	primed      bool

	unsubscribe func()
}

// NewChecker constructs a [Checker] and subscribes it to change notifications.
func NewChecker(cache *Cache, bus *event.Broadcaster) *Checker {
	checker := &Checker{cache: cache}
	checker.unsubscribe = bus.Subscribe(constants.EventPermissionChanged, func() {
		checker.mu.Lock()
		checker.generation++
		checker.mu.Unlock()
	})
	return checker
}

// Close detaches the checker from the notification bus.
func (checker *Checker) Close() {
	if checker.unsubscribe != nil {
		checker.unsubscribe()
	}
}

// Generation returns the current notification generation. Exposed for the
// guard layer and for tests asserting re-evaluation behavior.
func (checker *Checker) Generation() uint64 {
	checker.mu.Lock()
	defer checker.mu.Unlock()
	return checker.generation
}

// current returns the decoded snapshot for the present generation,
// re-reading the cache if a notification has arrived since the last call.
func (checker *Checker) current() (Collection, bool) {
	checker.mu.Lock()
	defer checker.mu.Unlock()

	if !checker.primed || checker.snapshotGen != checker.generation {
		checker.snapshot, checker.snapshotOK = checker.cache.Read()
		checker.snapshotGen = checker.generation
		checker.primed = true
	}

	return checker.snapshot, checker.snapshotOK
}

/*
HasPermission reports whether the current user may perform the required action.

Description: Implements the lenient legacy algorithm. An absent snapshot, an
empty collection, or unparseable content all answer false. String-shaped
entries match on exact equality; object-shaped entries match on ID first,
then display name.

Parameters:
  - required: string (permission identifier or legacy display name)

Returns:
  - bool: true on first match, false otherwise
*/
func (checker *Checker) HasPermission(required string) bool {
	snapshot, ok := checker.current()
	if !ok || len(snapshot) == 0 {
		return false
	}
	return snapshot.Contains(required)
}

/*
HasAnyPermission reports whether any single required check passes.

Description: Constituent checks run concurrently and the composite
short-circuits on the first match, bounding latency to the slowest single
check rather than the sum.

Parameters:
  - context: context.Context
  - required: ...string

Returns:
  - bool: true if at least one check passes; false on empty input or
    context cancellation
*/
func (checker *Checker) HasAnyPermission(context context.Context, required ...string) bool {
	if len(required) == 0 {
		return false
	}

	group, groupCtx := errgroup.WithContext(context)
	for _, id := range required {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			if checker.HasPermission(id) {
				// Cancel the rest of the group via the sentinel.
				return errMatched
			}
			return nil
		})
	}

	err := group.Wait()
	return errors.Is(err, errMatched)
}

/*
HasAllPermissions reports whether every required check passes.

Description: Constituent checks run concurrently; the composite
short-circuits on the first failure.

Parameters:
  - context: context.Context
  - required: ...string

Returns:
  - bool: true only if every check passes; true on empty input
    (vacuous truth), false on context cancellation
*/
func (checker *Checker) HasAllPermissions(context context.Context, required ...string) bool {
	if len(required) == 0 {
		return true
	}

	group, groupCtx := errgroup.WithContext(context)
	for _, id := range required {
		group.Go(func() error {
			if groupCtx.Err() != nil {
				return groupCtx.Err()
			}
			if !checker.HasPermission(id) {
				return errors.New("permission: missing " + id)
			}
			return nil
		})
	}

	return group.Wait() == nil
}
