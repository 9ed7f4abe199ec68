// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package permission_test

import (
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domara/domara-go/internal/event"
	"github.com/domara/domara-go/internal/keystore"
	"github.com/domara/domara-go/internal/permission"
	"github.com/domara/domara-go/internal/platform/constants"
)

func newCache(t *testing.T) (*permission.Cache, keystore.Store, *event.Broadcaster) {
	t.Helper()
	store := keystore.NewMemory()
	bus := event.NewBroadcaster()
	cache := permission.NewCache(store, bus, slog.New(slog.DiscardHandler))
	return cache, store, bus
}

/*
TestCollection_DecodesLegacyShapes verifies the lenient reader across the
three historically persisted shapes.
*/
func TestCollection_DecodesLegacyShapes(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want permission.Collection
	}{
		{
			name: "id_strings",
			raw:  `["staff.create", "staff.delete"]`,
			want: permission.Collection{
				{ID: "staff.create", Name: "staff.create"},
				{ID: "staff.delete", Name: "staff.delete"},
			},
		},
		{
			name: "display_names",
			raw:  `["Create Staff"]`,
			want: permission.Collection{{ID: "Create Staff", Name: "Create Staff"}},
		},
		{
			name: "objects",
			raw:  `[{"id": "p1", "name": "Create Staff"}]`,
			want: permission.Collection{{ID: "p1", Name: "Create Staff"}},
		},
		{
			name: "object_missing_name_falls_back_to_id",
			raw:  `[{"id": "p9"}]`,
			want: permission.Collection{{ID: "p9", Name: "p9"}},
		},
		{
			name: "empty",
			raw:  `[]`,
			want: permission.Collection{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got permission.Collection
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

/*
TestCollection_RejectsNonCollections verifies shapes that are not permission
arrays fail decoding (the cache then treats them as absent).
*/
func TestCollection_RejectsNonCollections(t *testing.T) {
	for _, raw := range []string{`"just-a-string"`, `42`, `{"id":"p1"}`, `[1,2,3]`, `not json`} {
		var got permission.Collection
		assert.Error(t, json.Unmarshal([]byte(raw), &got), "shape: %s", raw)
	}
}

/*
TestCache_RoundTrip is the core contract: write then read yields an
equivalent collection, order-independent.
*/
func TestCache_RoundTrip(t *testing.T) {
	cache, _, _ := newCache(t)

	in := permission.Collection{
		{ID: "p2", Name: "Delete Staff"},
		{ID: "p1", Name: "Create Staff"},
	}
	require.NoError(t, cache.Write(in))

	out, ok := cache.Read()
	require.True(t, ok)
	assert.ElementsMatch(t, in, out)
}

/*
TestCache_WriteStandardizesShape verifies legacy string-shaped input is
persisted in the canonical object shape.
*/
func TestCache_WriteStandardizesShape(t *testing.T) {
	cache, store, _ := newCache(t)

	var legacy permission.Collection
	require.NoError(t, json.Unmarshal([]byte(`["staff.create"]`), &legacy))
	require.NoError(t, cache.Write(legacy))

	raw, ok, err := store.Get(constants.KeyUserPermissions)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `[{"id":"staff.create","name":"staff.create"}]`, string(raw))
}

/*
TestCache_AbsentAfterClear verifies clear removes the snapshot entirely.
*/
func TestCache_AbsentAfterClear(t *testing.T) {
	cache, store, _ := newCache(t)

	require.NoError(t, cache.Write(permission.Collection{{ID: "p1", Name: "Create Staff"}}))
	require.NoError(t, cache.Clear())

	_, ok := cache.Read()
	assert.False(t, ok)

	// Clear deletes the key: nothing remains in the keystore.
	_, present, err := store.Get(constants.KeyUserPermissions)
	require.NoError(t, err)
	assert.False(t, present)
}

/*
TestCache_WriteAndClearPublish verifies every mutation broadcasts exactly once.
*/
func TestCache_WriteAndClearPublish(t *testing.T) {
	cache, _, bus := newCache(t)

	var notifications int
	bus.Subscribe(constants.EventPermissionChanged, func() { notifications++ })

	require.NoError(t, cache.Write(permission.Collection{{ID: "p1", Name: "n"}}))
	assert.Equal(t, 1, notifications)

	require.NoError(t, cache.Clear())
	assert.Equal(t, 2, notifications)
}

/*
TestCache_MalformedContentReadsAsAbsent covers the resilience property: junk
under the snapshot key logs a warning and reads as absent.
*/
func TestCache_MalformedContentReadsAsAbsent(t *testing.T) {
	cache, store, _ := newCache(t)

	require.NoError(t, store.Set(constants.KeyUserPermissions, []byte(`{"not": "a collection"`)))

	out, ok := cache.Read()
	assert.False(t, ok)
	assert.Nil(t, out)
}

/*
TestChecker_NoCacheNoAccess verifies every check fails when no snapshot was
ever written or it was cleared.
*/
func TestChecker_NoCacheNoAccess(t *testing.T) {
	cache, _, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	assert.False(t, checker.HasPermission("p1"))
	assert.False(t, checker.HasPermission(""))

	require.NoError(t, cache.Write(permission.Collection{{ID: "p1", Name: "n"}}))
	require.NoError(t, cache.Clear())
	assert.False(t, checker.HasPermission("p1"))
}

/*
TestChecker_LeniencyAcrossShapes pins the documented matching semantics for
each legacy shape.
*/
func TestChecker_LeniencyAcrossShapes(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		required string
		want     bool
	}{
		{"string_exact_match", `["p1"]`, "p1", true},
		{"string_no_match", `["p1"]`, "p2", false},
		{"object_matched_by_id", `[{"id": "p1", "name": "anything"}]`, "p1", true},
		{"object_matched_by_name", `[{"id": "other", "name": "p1"}]`, "p1", true},
		{"object_no_match", `[{"id": "a", "name": "b"}]`, "c", false},
		{"empty_collection", `[]`, "p1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache, store, bus := newCache(t)
			checker := permission.NewChecker(cache, bus)
			defer checker.Close()

			require.NoError(t, store.Set(constants.KeyUserPermissions, []byte(tt.raw)))
			assert.Equal(t, tt.want, checker.HasPermission(tt.required))
		})
	}
}

/*
TestChecker_MalformedCacheNeverPanics verifies no error or panic escapes the
decision path on junk content.
*/
func TestChecker_MalformedCacheNeverPanics(t *testing.T) {
	cache, store, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	require.NoError(t, store.Set(constants.KeyUserPermissions, []byte(`%%%`)))

	assert.NotPanics(t, func() {
		assert.False(t, checker.HasPermission("p1"))
		assert.False(t, checker.HasAnyPermission(t.Context(), "p1", "p2"))
		assert.False(t, checker.HasAllPermissions(t.Context(), "p1"))
	})
}

/*
TestChecker_Composites covers the all-vs-any matrix from the snapshot {A, B}.
*/
func TestChecker_Composites(t *testing.T) {
	cache, _, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	require.NoError(t, cache.Write(permission.Collection{
		{ID: "A", Name: "Perm A"},
		{ID: "B", Name: "Perm B"},
	}))

	ctx := t.Context()

	// Required {A, B, C}: any passes, all fails.
	assert.True(t, checker.HasAnyPermission(ctx, "A", "B", "C"))
	assert.False(t, checker.HasAllPermissions(ctx, "A", "B", "C"))

	// Required {A, B}: both pass.
	assert.True(t, checker.HasAnyPermission(ctx, "A", "B"))
	assert.True(t, checker.HasAllPermissions(ctx, "A", "B"))

	// Edge cases.
	assert.False(t, checker.HasAnyPermission(ctx))
	assert.True(t, checker.HasAllPermissions(ctx))
}

/*
TestChecker_ReevaluatesAfterNotification verifies the generation counter
forces a re-read after every change notification.
*/
func TestChecker_ReevaluatesAfterNotification(t *testing.T) {
	cache, store, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	require.NoError(t, cache.Write(permission.Collection{{ID: "p1", Name: "n"}}))
	assert.True(t, checker.HasPermission("p1"))
	before := checker.Generation()

	// Mutate the keystore behind the cache's back: without a notification
	// the checker keeps serving the memoized snapshot.
	require.NoError(t, store.Set(constants.KeyUserPermissions, []byte(`[{"id":"p2","name":"n"}]`)))
	assert.True(t, checker.HasPermission("p1"))

	// The notification invalidates the memoized snapshot.
	bus.Publish(constants.EventPermissionChanged)
	assert.Greater(t, checker.Generation(), before)
	assert.False(t, checker.HasPermission("p1"))
	assert.True(t, checker.HasPermission("p2"))
}

/*
TestGuard_ThreeStates verifies the pending/denied/granted contract.
*/
func TestGuard_ThreeStates(t *testing.T) {
	cache, _, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	require.NoError(t, cache.Write(permission.Collection{{ID: "A", Name: "Perm A"}}))

	status := permission.SessionUnknown
	guard := permission.NewGuard(checker,
		func() permission.SessionStatus { return status },
		func() string { return "Property Manager" },
	)

	ctx := t.Context()

	// 1. Session unresolved: pending regardless of the cache.
	assert.Equal(t, permission.DecisionPending, guard.Evaluate(ctx, []string{"A"}, permission.ModeAll))

	// 2. Anonymous: denied.
	status = permission.SessionAnonymous
	assert.Equal(t, permission.DecisionDenied, guard.Evaluate(ctx, []string{"A"}, permission.ModeAll))

	// 3. Signed in: resolved against the checker.
	status = permission.SessionActive
	assert.Equal(t, permission.DecisionGranted, guard.Evaluate(ctx, []string{"A"}, permission.ModeAll))
	assert.Equal(t, permission.DecisionDenied, guard.Evaluate(ctx, []string{"A", "B"}, permission.ModeAll))
	assert.Equal(t, permission.DecisionGranted, guard.Evaluate(ctx, []string{"A", "B"}, permission.ModeAny))

	// 4. Empty requirement grants for any signed-in user.
	assert.Equal(t, permission.DecisionGranted, guard.Evaluate(ctx, nil, permission.ModeAll))
}

/*
TestGuard_RoleAllowList verifies case-insensitive role gating.
*/
func TestGuard_RoleAllowList(t *testing.T) {
	cache, _, bus := newCache(t)
	checker := permission.NewChecker(cache, bus)
	defer checker.Close()

	status := permission.SessionActive
	role := "admin"
	guard := permission.NewGuard(checker,
		func() permission.SessionStatus { return status },
		func() string { return role },
	)

	assert.Equal(t, permission.DecisionGranted, guard.EvaluateRole("Admin", "Owner"))
	assert.Equal(t, permission.DecisionDenied, guard.EvaluateRole("Owner"))

	role = "ACCOUNTANT"
	assert.Equal(t, permission.DecisionGranted, guard.EvaluateRole("accountant"))

	status = permission.SessionUnknown
	assert.Equal(t, permission.DecisionPending, guard.EvaluateRole("admin"))
}
