// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package staff

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domara/domara-go/internal/platform/apperr"
	"github.com/domara/domara-go/internal/transport"
	"github.com/domara/domara-go/pkg/pagination"
)

func newTestClient(t *testing.T, router chi.Router) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)
	api, err := transport.NewClient(server.URL, transport.TokenFunc(func() string { return "token" }), logger, transport.Options{})
	require.NoError(t, err)

	return NewClient(api, logger), server
}

/*
TestStaffList verifies listing decodes the paginated envelope and forwards
pagination and filter parameters.
*/
func TestStaffList(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/v1/staff", func(w http.ResponseWriter, r *http.Request) {
		params := pagination.FromRequest(r)
		assert.Equal(t, 2, params.Page)
		assert.Equal(t, 10, params.Limit)
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		assert.Equal(t, "hale", r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []Member{
				{ID: "stf-1", Email: "q.hale@domara.io", FirstName: "Quinn", LastName: "Hale", Status: StatusActive},
			},
			"meta": pagination.NewMeta(2, 10, 11),
		})
	})

	client, _ := newTestClient(t, router)

	members, meta, err := client.List(t.Context(), pagination.Params{Page: 2, Limit: 10}, Filter{Status: StatusActive, Search: "hale"})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "stf-1", members[0].ID)
	assert.Equal(t, 2, meta.TotalPages)

	current, _, loaded := client.Current()
	require.True(t, loaded)
	assert.Equal(t, members, current)
}

/*
TestStaffCreateValidatesInput verifies local validation rejects bad input
before any request, and a valid create invalidates the cached listing.
*/
func TestStaffCreateValidatesInput(t *testing.T) {
	created := false
	router := chi.NewRouter()
	router.Get("/v1/staff", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    []Member{},
			"meta":    pagination.NewMeta(1, 20, 0),
		})
	})
	router.Post("/v1/staff", func(w http.ResponseWriter, r *http.Request) {
		created = true
		var input Input
		require.NoError(t, json.NewDecoder(r.Body).Decode(&input))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": Member{
				ID: "stf-2", Email: input.Email,
				FirstName: input.FirstName, LastName: input.LastName,
				Status: StatusInvited,
			},
		})
	})

	client, _ := newTestClient(t, router)

	// 1. Local rejection: nothing reaches the backend.
	_, err := client.Create(t.Context(), Input{Email: "not-an-email"})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))
	assert.False(t, created)

	// 2. Prime the listing, then create.
	_, _, err = client.List(t.Context(), pagination.Params{}, Filter{})
	require.NoError(t, err)

	member, err := client.Create(t.Context(), Input{
		Email:     "new@domara.io",
		FirstName: "Robin",
		LastName:  "Vo",
	})
	require.NoError(t, err)
	assert.Equal(t, StatusInvited, member.Status)

	// 3. The cached listing is stale now.
	_, _, loaded := client.Current()
	assert.False(t, loaded)
}

/*
TestStaffGetAndDelete verifies single-record retrieval and deletion,
including NOT_FOUND pass-through.
*/
func TestStaffGetAndDelete(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/v1/staff/{id}", func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "id") != "stf-1" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"success": false,
				"error":   "staff member not found",
				"code":    apperr.CodeNotFound,
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Member{ID: "stf-1", Email: "q.hale@domara.io", Status: StatusActive},
		})
	})
	router.Delete("/v1/staff/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true})
	})

	client, _ := newTestClient(t, router)

	member, err := client.Get(t.Context(), "stf-1")
	require.NoError(t, err)
	assert.Equal(t, "q.hale@domara.io", member.Email)

	_, err = client.Get(t.Context(), "missing")
	require.Error(t, err)
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	require.NoError(t, client.Delete(t.Context(), "stf-1"))
}
