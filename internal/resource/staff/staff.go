// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Package staff exposes the staff-member resource of the Domara API.
package staff

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/domara/domara-go/internal/platform/validate"
	"github.com/domara/domara-go/internal/resource"
	"github.com/domara/domara-go/internal/transport"
	"github.com/domara/domara-go/pkg/pagination"
)

const basePath = "/v1/staff"

// # Models

// Member is one staff member of the property organization.
type Member struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Position  string `json:"position,omitempty"`
	Status    string `json:"status"`
}

// Member statuses as reported by the backend.
const (
	StatusActive   = "active"
	StatusInvited  = "invited"
	StatusDisabled = "disabled"
)

// Input carries the writable fields for create and update calls.
type Input struct {
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	Position  string `json:"position,omitempty"`
}

// Filter narrows a staff listing.
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

// Client performs staff operations against the Domara API.
type Client struct {
	api    *transport.Client
	lister *resource.Lister[Member]
	logger *slog.Logger
}

// NewClient constructs a staff [Client] over the shared transport.
func NewClient(api *transport.Client, logger *slog.Logger) *Client {
	client := &Client{api: api, logger: logger}
	client.lister = resource.NewLister(client.fetchPage, logger)
	return client
}

func (client *Client) fetchPage(context context.Context, query url.Values) ([]Member, pagination.Meta, error) {
	var members []Member
	meta, err := client.api.DoList(context, basePath, query, &members)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return members, meta, nil
}

/*
List retrieves a paginated, filtered page of staff members.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - filter: Filter

Returns:
  - []Member: The fetched page
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (client *Client) List(context context.Context, params pagination.Params, filter Filter) ([]Member, pagination.Meta, error) {
	return client.lister.Refresh(context, params, filter.values())
}

// Current returns the last installed staff page without issuing a request.
func (client *Client) Current() ([]Member, pagination.Meta, bool) {
	return client.lister.Current()
}

/*
Get retrieves a single staff member by ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Member: Hydrated staff member
  - error: NOT_FOUND if missing
*/
func (client *Client) Get(context context.Context, id string) (*Member, error) {
	member := &Member{}
	if err := client.api.Do(context, http.MethodGet, basePath+"/"+url.PathEscape(id), nil, nil, member); err != nil {
		return nil, err
	}
	return member, nil
}

/*
Create invites a new staff member.

Parameters:
  - context: context.Context
  - input: Input

Returns:
  - *Member: Created staff member
  - error: Validation or backend failures
*/
func (client *Client) Create(context context.Context, input Input) (*Member, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required("email", input.Email).
		Email("email", input.Email).
		Required("first_name", input.FirstName).
		Required("last_name", input.LastName).
		Err(); err != nil {
		return nil, err
	}

	member := &Member{}
	if err := client.api.Do(context, http.MethodPost, basePath, nil, input, member); err != nil {
		return nil, err
	}

	client.logger.Info("staff_member_created",
		slog.String("staff_id", member.ID),
	)
	client.lister.Invalidate()

	return member, nil
}

/*
Update modifies an existing staff member.

Parameters:
  - context: context.Context
  - id: string
  - input: Input

Returns:
  - *Member: Updated staff member
  - error: Validation or backend failures
*/
func (client *Client) Update(context context.Context, id string, input Input) (*Member, error) {
	validator := &validate.Validator{}
	if input.Email != "" {
		validator.Email("email", input.Email)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	member := &Member{}
	if err := client.api.Do(context, http.MethodPut, basePath+"/"+url.PathEscape(id), nil, input, member); err != nil {
		return nil, err
	}

	client.logger.Info("staff_member_updated",
		slog.String("staff_id", id),
	)
	client.lister.Invalidate()

	return member, nil
}

/*
Delete removes a staff member.

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

	client.logger.Info("staff_member_deleted",
		slog.String("staff_id", id),
	)
	client.lister.Invalidate()

	return nil
}
