// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Package property exposes the unit (rentable property) resource of the
// Domara API.
package property

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/domara/domara-go/internal/platform/validate"
	"github.com/domara/domara-go/internal/resource"
	"github.com/domara/domara-go/internal/transport"
	"github.com/domara/domara-go/pkg/pagination"
	"github.com/domara/domara-go/pkg/pointer"
)

const basePath = "/v1/units"

// # Models

// Unit is one rentable unit within a managed property. Floor and area are
// pointers: floor 0 (ground) is a real value, distinct from unset.
type Unit struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Floor       *int     `json:"floor,omitempty"`
	AreaSqm     *float64 `json:"area_sqm,omitempty"`
	MonthlyRent int64    `json:"monthly_rent_cents,omitempty"`
	Status      string   `json:"status"`
}

// Unit occupancy statuses as reported by the backend.
const (
	StatusVacant      = "vacant"
	StatusOccupied    = "occupied"
	StatusMaintenance = "maintenance"
)

// Input carries the writable fields for create and update calls.
type Input struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	Floor       *int     `json:"floor,omitempty"`
	AreaSqm     *float64 `json:"area_sqm,omitempty"`
	MonthlyRent int64    `json:"monthly_rent_cents,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// Filter narrows a unit listing.
type Filter struct {
	Search string
	Status string
}

func (filter Filter) values() url.Values {
	values := url.Values{}
	if filter.Search != "" {
		values.Set("search", filter.Search)
	}
	if filter.Status != "" {
		values.Set("status", filter.Status)
	}
	return values
}

// # Client

// Client performs unit operations against the Domara API.
type Client struct {
	api    *transport.Client
	lister *resource.Lister[Unit]
	logger *slog.Logger
}

// NewClient constructs a unit [Client] over the shared transport.
func NewClient(api *transport.Client, logger *slog.Logger) *Client {
	client := &Client{api: api, logger: logger}
	client.lister = resource.NewLister(client.fetchPage, logger)
	return client
}

func (client *Client) fetchPage(context context.Context, query url.Values) ([]Unit, pagination.Meta, error) {
	var units []Unit
	meta, err := client.api.DoList(context, basePath, query, &units)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return units, meta, nil
}

/*
List retrieves a paginated, filtered page of units.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - filter: Filter

Returns:
  - []Unit: The fetched page
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (client *Client) List(context context.Context, params pagination.Params, filter Filter) ([]Unit, pagination.Meta, error) {
	return client.lister.Refresh(context, params, filter.values())
}

// Current returns the last installed unit page without issuing a request.
func (client *Client) Current() ([]Unit, pagination.Meta, bool) {
	return client.lister.Current()
}

/*
Get retrieves a single unit by ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Unit: Hydrated unit
  - error: NOT_FOUND if missing
*/
func (client *Client) Get(context context.Context, id string) (*Unit, error) {
	unit := &Unit{}
	if err := client.api.Do(context, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, nil, unit); err != nil {
		return nil, err
	}
	return unit, nil
}

/*
Create registers a new unit.

Parameters:
  - context: context.Context
  - input: Input

Returns:
  - *Unit: Created unit
  - error: Validation or backend failures
*/
func (client *Client) Create(context context.Context, input Input) (*Unit, error) {
	validator := &validate.Validator{}
	validator.
		Required("name", input.Name).
		MaxLen("name", input.Name, 200).
		Required("address", input.Address).
		Custom("area_sqm", pointer.Val(input.AreaSqm) < 0, "must not be negative")
	if input.Status != "" {
		validator.OneOf("status", input.Status, StatusVacant, StatusOccupied, StatusMaintenance)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	unit := &Unit{}
	if err := client.api.Do(context, http.MethodPost, basePath, nil, input, unit); err != nil {
		return nil, err
	}

	client.logger.Info("unit_created",
		slog.String("unit_id", unit.ID),
	)
	client.lister.Invalidate()

	return unit, nil
}

/*
Update modifies an existing unit.

Parameters:
  - context: context.Context
  - id: string
  - input: Input

Returns:
  - *Unit: Updated unit
  - error: Validation or backend failures
*/
func (client *Client) Update(context context.Context, id string, input Input) (*Unit, error) {
	validator := &validate.Validator{}
	if input.Name != "" {
		validator.MaxLen("name", input.Name, 200)
	}
	if input.Status != "" {
		validator.OneOf("status", input.Status, StatusVacant, StatusOccupied, StatusMaintenance)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	unit := &Unit{}
	if err := client.api.Do(context, http.MethodPut, basePath+"/"+url.PathEscape(id), nil, input, unit); err != nil {
		return nil, err
	}

	client.logger.Info("unit_updated",
		slog.String("unit_id", id),
	)
	client.lister.Invalidate()

	return unit, nil
}

/*
Delete removes a unit.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NOT_FOUND or backend failures
*/
func (client *Client) Delete(context context.Context, id string) error {
	if err := client.api.Do(context, http.MethodDelete, basePath+"/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}

	client.logger.Info("unit_deleted",
		slog.String("unit_id", id),
	)
	client.lister.Invalidate()

	return nil
}
