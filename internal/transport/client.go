// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package transport provides the HTTP client shared by every API-facing layer.

It centralizes the concerns that must behave identically across the session
manager and the resource clients: base-URL resolution, bearer injection,
request-ID correlation, egress rate limiting, envelope decoding, and the
mapping from HTTP failures to the typed error taxonomy.

Architecture:

  - Client: One instance per configured backend, safe for concurrent use.
  - Envelopes: The strict data / data+meta / error+code JSON shapes of the
    Domara API, decoded in one place.
  - Errors: Every failure leaves as an [apperr.AppError]; callers branch on
    reason codes, never on raw statuses.
*/
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/domara/domara-go/internal/platform/apperr"
	"github.com/domara/domara-go/internal/platform/constants"
	"github.com/domara/domara-go/internal/platform/ctxutil"
	"github.com/domara/domara-go/pkg/convert"
	"github.com/domara/domara-go/pkg/pagination"
	"github.com/domara/domara-go/pkg/uuidv7"
)

// TokenSource supplies the bearer token for outgoing requests.
//
// # Why an interface?
//
// The session manager owns token state (including rotation); the transport
// only needs read access at send time. An interface keeps the dependency
// pointing the right way and lets tests inject fixed tokens.
type TokenSource interface {
	// AccessToken returns the current bearer token, or "" when anonymous.
	AccessToken() string
}

// TokenFunc adapts a plain function to the [TokenSource] interface.
type TokenFunc func() string

// AccessToken implements [TokenSource].
func (f TokenFunc) AccessToken() string { return f() }

// # Envelopes

// successEnvelope mirrors the API's single-resource response shape.
type successEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// paginatedEnvelope mirrors the API's list response shape.
type paginatedEnvelope struct {
	Data json.RawMessage `json:"data"`
	Meta pagination.Meta `json:"meta"`
}

// errorEnvelope mirrors the API's error response shape.
type errorEnvelope struct {
	Error   string              `json:"error"`
	Code    string              `json:"code"`
	Details []apperr.FieldError `json:"details,omitempty"`
}

// Client is the shared HTTP client for the Domara API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	tokens     TokenSource
	logger     *slog.Logger
}

// Options tunes a [Client] beyond its defaults.
type Options struct {
	// HTTPClient overrides the underlying client (tests, custom transports).
	HTTPClient *http.Client

	// RateLimitRPS / RateLimitBurst override the egress throttle.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewClient constructs a [Client] for the given base URL.
//
// # Parameters
//   - baseURL: Root of the Domara API, e.g. "https://api.domara.io".
//   - tokens: Bearer token supplier (may return "" for anonymous calls).
//   - logger: Structured logger for request diagnostics.
//   - opts: Optional tuning; zero values select defaults.
func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger, opts Options) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base URL: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("transport: base URL must be absolute: %s", baseURL)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: constants.DefaultRequestTimeout}
	}

	rps := opts.RateLimitRPS
	if rps <= 0 {
		rps = constants.DefaultRateLimitRPS
	}
	burst := opts.RateLimitBurst
	if burst <= 0 {
		burst = constants.DefaultRateLimitBurst
	}

	return &Client{
		baseURL:    parsed,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), burst),
		tokens:     tokens,
		logger:     logger,
	}, nil
}

/*
Do performs a JSON API call and decodes the success envelope into out.

Description: The call is throttled by the egress limiter, correlated with a
fresh UUIDv7 request ID, and authenticated when a bearer token is available.
Failures are returned as [apperr.AppError] values; the request is cancelled
if ctx is.

Parameters:
  - ctx: context.Context
  - method: HTTP verb
  - path: API path relative to the base URL
  - query: url.Values (may be nil)
  - body: Request payload serialized as JSON (may be nil)
  - out: Destination for the envelope's data field (may be nil)

Returns:
  - error: nil, or an [apperr.AppError]
*/
func (client *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	raw, _, err := client.roundTrip(ctx, method, path, query, body)
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}

	var envelope successEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return apperr.Unknown(0, fmt.Errorf("transport: malformed success envelope: %w", err))
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperr.Unknown(0, fmt.Errorf("transport: malformed data payload: %w", err))
	}

	return nil
}

/*
DoList performs a paginated GET and decodes data plus pagination metadata.

Parameters:
  - ctx: context.Context
  - path: API path relative to the base URL
  - query: url.Values carrying page/limit and filters
  - out: Destination slice for the data field

Returns:
  - pagination.Meta: Page metadata from the envelope
  - error: nil, or an [apperr.AppError]
*/
func (client *Client) DoList(ctx context.Context, path string, query url.Values, out any) (pagination.Meta, error) {
	raw, _, err := client.roundTrip(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return pagination.Meta{}, err
	}

	var envelope paginatedEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return pagination.Meta{}, apperr.Unknown(0, fmt.Errorf("transport: malformed list envelope: %w", err))
	}
	if out != nil && len(envelope.Data) > 0 {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return pagination.Meta{}, apperr.Unknown(0, fmt.Errorf("transport: malformed list payload: %w", err))
		}
	}

	return envelope.Meta, nil
}

// roundTrip issues the request and returns the raw body for 2xx responses.
// Non-2xx responses and transport failures are mapped to [apperr.AppError].
func (client *Client) roundTrip(ctx context.Context, method, path string, query url.Values, body any) ([]byte, int, error) {
	if err := client.limiter.Wait(ctx); err != nil {
		return nil, 0, apperr.Network(err)
	}

	target := client.baseURL.JoinPath(path)
	if len(query) > 0 {
		target.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, 0, apperr.Unknown(0, fmt.Errorf("transport: failed to serialize body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	request, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, 0, apperr.Unknown(0, fmt.Errorf("transport: failed to build request: %w", err))
	}

	// A caller-provided request ID (set via ctxutil.WithRequestID) lets one
	// logical operation correlate the several calls it issues.
	requestID := ctxutil.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuidv7.New()
	}
	request.Header.Set(constants.HeaderXRequestID, requestID)
	if body != nil {
		request.Header.Set(constants.HeaderContentType, "application/json; charset=utf-8")
	}
	if token := client.tokens.AccessToken(); token != "" {
		request.Header.Set(constants.HeaderAuthorization, "Bearer "+token)
	}

	logger := ctxutil.GetLogger(ctx)
	if logger == slog.Default() {
		logger = client.logger
	}

	startTime := time.Now()
	response, err := client.httpClient.Do(request)
	if err != nil {
		logger.Warn("api_request_failed",
			slog.String("request_id", requestID),
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return nil, 0, apperr.Network(err)
	}
	defer func() { _ = response.Body.Close() }()

	raw, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, response.StatusCode, apperr.Network(err)
	}

	logger.Debug("api_request_finished",
		slog.String("request_id", requestID),
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", response.StatusCode),
		slog.Int64("latency_ms", time.Since(startTime).Milliseconds()),
	)

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return raw, response.StatusCode, nil
	}

	return nil, response.StatusCode, client.mapFailure(response, raw)
}

// mapFailure converts a non-2xx response into an [apperr.AppError], preferring
// the server's own error envelope when it parses.
func (client *Client) mapFailure(response *http.Response, raw []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Code != "" {
		return &apperr.AppError{
			Code:       envelope.Code,
			Message:    envelope.Error,
			HTTPStatus: response.StatusCode,
			Details:    envelope.Details,
		}
	}

	mapped := apperr.FromStatus(response.StatusCode, nil)
	if mapped.Code == apperr.CodeRateLimited {
		if seconds := convert.ToIntD(response.Header.Get(constants.HeaderRetryAfter), 0); seconds > 0 {
			mapped.Message = fmt.Sprintf("Too many requests. Try again in %ds.", seconds)
		}
	}
	return mapped
}
