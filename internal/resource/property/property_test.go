// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package property

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
	"github.com/domara/domara-go/pkg/pointer"
)

func newTestClient(t *testing.T, router chi.Router) *Client {
	t.Helper()
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	logger := slog.New(slog.DiscardHandler)
	api, err := transport.NewClient(server.URL, transport.TokenFunc(func() string { return "token" }), logger, transport.Options{})
	require.NoError(t, err)

	return NewClient(api, logger)
}

/*
TestUnitListWithStatusFilter verifies the unit listing forwards the status
filter and decodes the page.
*/
func TestUnitListWithStatusFilter(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/v1/units", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, StatusVacant, r.URL.Query().Get("status"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": []Unit{
				{ID: "unit-1", Name: "4B", Address: "12 Harbor Rd", Floor: pointer.To(4), Status: StatusVacant, MonthlyRent: 185000},
			},
			"meta": pagination.NewMeta(1, 20, 1),
		})
	})

	client := newTestClient(t, router)

	units, _, err := client.List(t.Context(), pagination.Params{}, Filter{Status: StatusVacant})
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, "4B", units[0].Name)
	assert.Equal(t, 4, pointer.Val(units[0].Floor))
}

/*
TestUnitCreateAndUpdateValidation verifies status values outside the known
occupancy set are rejected locally.
*/
func TestUnitCreateAndUpdateValidation(t *testing.T) {
	router := chi.NewRouter()
	router.Post("/v1/units", func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid unit must not reach the backend")
	})
	router.Put("/v1/units/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Unit{ID: chi.URLParam(r, "id"), Name: "4B", Status: StatusOccupied},
		})
	})

	client := newTestClient(t, router)

	_, err := client.Create(t.Context(), Input{
		Name:    "4B",
		Address: "12 Harbor Rd",
		Status:  "demolished",
	})
	require.Error(t, err)
	assert.Equal(t, apperr.CodeValidation, apperr.CodeOf(err))

	unit, err := client.Update(t.Context(), "unit-1", Input{Status: StatusOccupied})
	require.NoError(t, err)
	assert.Equal(t, StatusOccupied, unit.Status)
}
