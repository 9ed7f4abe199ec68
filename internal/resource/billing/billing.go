// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

// Package billing exposes the invoice and financial-transaction resources of
// the Domara API.
package billing

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/domara/domara-go/internal/platform/validate"
	"github.com/domara/domara-go/internal/resource"
	"github.com/domara/domara-go/internal/transport"
	"github.com/domara/domara-go/pkg/pagination"
)

const (
	invoicePath     = "/v1/invoices"
	transactionPath = "/v1/transactions"

	dateLayout = "2006-01-02"
)

// # Models

// Invoice is one billing document issued against a unit.
type Invoice struct {
	ID          string    `json:"id"`
	UnitID      string    `json:"unit_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status"`
	DueDate     time.Time `json:"due_date"`
	IssuedAt    time.Time `json:"issued_at"`
}

// Invoice statuses as reported by the backend.
const (
	StatusDraft   = "draft"
	StatusIssued  = "issued"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
	StatusVoided  = "voided"
)

// Transaction is one financial movement recorded against an invoice.
type Transaction struct {
	ID          string    `json:"id"`
	InvoiceID   string    `json:"invoice_id"`
	AmountCents int64     `json:"amount_cents"`
	Kind        string    `json:"kind"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Input carries the writable invoice fields for create and update calls.
type Input struct {
	UnitID      string    `json:"unit_id"`
	AmountCents int64     `json:"amount_cents"`
	Currency    string    `json:"currency"`
	Status      string    `json:"status,omitempty"`
	DueDate     time.Time `json:"due_date"`
}

// Filter narrows an invoice or transaction listing. The zero value applies
// no filtering.
type Filter struct {
	Status string
	From   time.Time
	To     time.Time
}

func (filter Filter) values() url.Values {
	values := url.Values{}
	if filter.Status != "" {
		values.Set("status", filter.Status)
	}
	if !filter.From.IsZero() {
		values.Set("from", filter.From.Format(dateLayout))
	}
	if !filter.To.IsZero() {
		values.Set("to", filter.To.Format(dateLayout))
	}
	return values
}

// # Client

// Client performs billing operations against the Domara API.
type Client struct {
	api          *transport.Client
	invoices     *resource.Lister[Invoice]
	transactions *resource.Lister[Transaction]
	logger       *slog.Logger
}

// NewClient constructs a billing [Client] over the shared transport.
func NewClient(api *transport.Client, logger *slog.Logger) *Client {
	client := &Client{api: api, logger: logger}
	client.invoices = resource.NewLister(client.fetchInvoicePage, logger)
	client.transactions = resource.NewLister(client.fetchTransactionPage, logger)
	return client
}

func (client *Client) fetchInvoicePage(context context.Context, query url.Values) ([]Invoice, pagination.Meta, error) {
	var invoices []Invoice
	meta, err := client.api.DoList(context, invoicePath, query, &invoices)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return invoices, meta, nil
}

func (client *Client) fetchTransactionPage(context context.Context, query url.Values) ([]Transaction, pagination.Meta, error) {
	var transactions []Transaction
	meta, err := client.api.DoList(context, transactionPath, query, &transactions)
	if err != nil {
		return nil, pagination.Meta{}, err
	}
	return transactions, meta, nil
}

// # Invoices

/*
ListInvoices retrieves a paginated, filtered page of invoices.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - filter: Filter (status, issue date range)

Returns:
  - []Invoice: The fetched page
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (client *Client) ListInvoices(context context.Context, params pagination.Params, filter Filter) ([]Invoice, pagination.Meta, error) {
	return client.invoices.Refresh(context, params, filter.values())
}

// CurrentInvoices returns the last installed invoice page without issuing a
// request.
func (client *Client) CurrentInvoices() ([]Invoice, pagination.Meta, bool) {
	return client.invoices.Current()
}

/*
GetInvoice retrieves a single invoice by ID.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Invoice: Hydrated invoice
  - error: NOT_FOUND if missing
*/
func (client *Client) GetInvoice(context context.Context, id string) (*Invoice, error) {
	invoice := &Invoice{}
	if err := client.api.Do(context, http.MethodGet, invoicePath+"/"+url.PathEscape(id), nil, nil, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

/*
CreateInvoice issues a new invoice against a unit.

Parameters:
  - context: context.Context
  - input: Input

Returns:
  - *Invoice: Created invoice
  - error: Validation or backend failures
*/
func (client *Client) CreateInvoice(context context.Context, input Input) (*Invoice, error) {
	validator := &validate.Validator{}
	validator.
		Required("unit_id", input.UnitID).
		Required("currency", input.Currency).
		Custom("amount_cents", input.AmountCents <= 0, "must be a positive amount").
		Custom("due_date", input.DueDate.IsZero(), "is required")
	if input.Status != "" {
		validator.OneOf("status", input.Status, StatusDraft, StatusIssued)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	invoice := &Invoice{}
	if err := client.api.Do(context, http.MethodPost, invoicePath, nil, input, invoice); err != nil {
		return nil, err
	}

	client.logger.Info("invoice_created",
		slog.String("invoice_id", invoice.ID),
		slog.String("unit_id", invoice.UnitID),
	)
	client.invoices.Invalidate()

	return invoice, nil
}

/*
UpdateInvoice modifies an existing invoice.

Parameters:
  - context: context.Context
  - id: string
  - input: Input

Returns:
  - *Invoice: Updated invoice
  - error: Validation or backend failures
*/
func (client *Client) UpdateInvoice(context context.Context, id string, input Input) (*Invoice, error) {
	validator := &validate.Validator{}
	if input.Status != "" {
		validator.OneOf("status", input.Status, StatusDraft, StatusIssued, StatusPaid, StatusOverdue, StatusVoided)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	invoice := &Invoice{}
	if err := client.api.Do(context, http.MethodPut, invoicePath+"/"+url.PathEscape(id), nil, input, invoice); err != nil {
		return nil, err
	}

	client.logger.Info("invoice_updated",
		slog.String("invoice_id", id),
	)
	client.invoices.Invalidate()

	return invoice, nil
}

/*
DeleteInvoice voids and removes an invoice.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - error: NOT_FOUND or backend failures
*/
func (client *Client) DeleteInvoice(context context.Context, id string) error {
	if err := client.api.Do(context, http.MethodDelete, invoicePath+"/"+url.PathEscape(id), nil, nil, nil); err != nil {
		return err
	}

	client.logger.Info("invoice_deleted",
		slog.String("invoice_id", id),
	)
	client.invoices.Invalidate()

	return nil
}

// # Transactions

/*
ListTransactions retrieves a paginated page of financial transactions.

Parameters:
  - context: context.Context
  - params: pagination.Params
  - filter: Filter (status, occurrence date range)

Returns:
  - []Transaction: The fetched page
  - pagination.Meta: Page metadata
  - error: Retrieval failures
*/
func (client *Client) ListTransactions(context context.Context, params pagination.Params, filter Filter) ([]Transaction, pagination.Meta, error) {
	return client.transactions.Refresh(context, params, filter.values())
}
