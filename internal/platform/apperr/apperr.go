// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package apperr defines the centralized error handling framework for the SDK.

It provides a rich error type that bridges the gap between low-level transport
failures and the reason codes surfaced to the embedding application.

Architecture:

  - AppError: A struct containing a machine-readable Code and a user-facing message.
  - Taxonomy: Typed failure reasons derived from HTTP-status signals.
  - Mapping: Explicit mapping from backend responses to [AppError] values.

Every error that leaves the session or resource layer should be wrapped as an
[AppError] so callers can branch on [AppError.Code] rather than string matching.
*/
package apperr

import (
	"errors"
	"net/http"
)

// # Reason Codes

const (
	// CodeInvalidCredentials maps from HTTP 401 on authentication calls.
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// CodeForbidden maps from HTTP 403 (blocked or suspended account).
	CodeForbidden = "FORBIDDEN"

	// CodeNotFound maps from HTTP 404.
	CodeNotFound = "NOT_FOUND"

	// CodeRateLimited maps from HTTP 429.
	CodeRateLimited = "RATE_LIMITED"

	// CodeServerError maps from any HTTP 5xx status.
	CodeServerError = "SERVER_ERROR"

	// CodeNetwork marks failures before any HTTP status was received
	// (DNS, dial, TLS, context cancellation).
	CodeNetwork = "NETWORK_ERROR"

	// CodeValidation marks client-side input rejection.
	CodeValidation = "VALIDATION_ERROR"

	// CodeSessionExpired marks a refresh failure; treated as a logout.
	CodeSessionExpired = "SESSION_EXPIRED"

	// CodeUnknown is the generic fallback for unmapped statuses.
	CodeUnknown = "UNKNOWN_ERROR"
)

// AppError is the canonical error type for the Domara client.
//
// It carries the originating HTTP status (zero when no response was received),
// a machine-readable code, a client-safe message, and an optional slice of
// field-level validation errors.
//
// # Security
//
// The Cause field is for logging only and should never be rendered to end
// users; it may contain URLs or transport internals.
type AppError struct {
	// Code is a machine-readable reason identifier (e.g. "INVALID_CREDENTIALS").
	Code string `json:"code"`
	// Message is a human-readable description safe to display.
	Message string `json:"error"`
	// HTTPStatus is the backend response status, or 0 for transport failures.
	HTTPStatus int `json:"-"`
	// Cause is the underlying error, used for logging only.
	Cause error `json:"-"`
	// Details holds per-field validation errors for VALIDATION_ERROR values.
	Details []FieldError `json:"details,omitempty"`
}

// FieldError represents a single field-level validation failure.
type FieldError struct {
	// Field is the JSON field name that failed validation.
	Field string `json:"field"`
	// Message is the human-readable description of the failure.
	Message string `json:"message"`
}

// Error implements the error interface. It returns the client-safe message.
func (e *AppError) Error() string { return e.Message }

// Unwrap allows [errors.Is] and [errors.As] to traverse the cause chain.
func (e *AppError) Unwrap() error { return e.Cause }

// # Constructors

// InvalidCredentials creates the 401 authentication failure.
func InvalidCredentials(msg string) *AppError {
	return &AppError{
		Code:       CodeInvalidCredentials,
		Message:    msg,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Forbidden creates the 403 blocked-account failure.
func Forbidden(msg string) *AppError {
	return &AppError{
		Code:       CodeForbidden,
		Message:    msg,
		HTTPStatus: http.StatusForbidden,
	}
}

// NotFound creates a 404 [AppError] for a named resource.
//
// Example:
//
//	apperr.NotFound("Invoice") // Returns "Invoice not found"
func NotFound(resource string) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    resource + " not found",
		HTTPStatus: http.StatusNotFound,
	}
}

// RateLimited creates the 429 throttling failure.
func RateLimited(msg string) *AppError {
	return &AppError{
		Code:       CodeRateLimited,
		Message:    msg,
		HTTPStatus: http.StatusTooManyRequests,
	}
}

// ServerError creates the 5xx backend failure.
func ServerError(status int, cause error) *AppError {
	return &AppError{
		Code:       CodeServerError,
		Message:    "The server encountered an error",
		HTTPStatus: status,
		Cause:      cause,
	}
}

// Network creates the transport-level failure for requests that never
// produced an HTTP response.
func Network(cause error) *AppError {
	return &AppError{
		Code:    CodeNetwork,
		Message: "Could not reach the server",
		Cause:   cause,
	}
}

// ValidationError creates a client-side input rejection with optional
// per-field details.
func ValidationError(msg string, details ...FieldError) *AppError {
	return &AppError{
		Code:       CodeValidation,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Details:    details,
	}
}

// SessionExpired creates the refresh-failure error. Callers treat it as an
// implicit logout.
func SessionExpired(cause error) *AppError {
	return &AppError{
		Code:       CodeSessionExpired,
		Message:    "Your session has expired. Please sign in again.",
		HTTPStatus: http.StatusUnauthorized,
		Cause:      cause,
	}
}

// Unknown creates the generic fallback for unmapped statuses.
func Unknown(status int, cause error) *AppError {
	return &AppError{
		Code:       CodeUnknown,
		Message:    "An unexpected error occurred",
		HTTPStatus: status,
		Cause:      cause,
	}
}

// # Status Mapping

// FromStatus derives the typed failure reason for an authentication-layer
// response status.
//
// # Mapping
//
//	401  -> INVALID_CREDENTIALS
//	403  -> FORBIDDEN
//	429  -> RATE_LIMITED
//	5xx  -> SERVER_ERROR
//	else -> UNKNOWN_ERROR
func FromStatus(status int, cause error) *AppError {
	switch {
	case status == http.StatusUnauthorized:
		return InvalidCredentials("Invalid login credentials")
	case status == http.StatusForbidden:
		return Forbidden("This account is blocked")
	case status == http.StatusTooManyRequests:
		return RateLimited("Too many attempts. Try again later.")
	case status >= 500:
		return ServerError(status, cause)
	default:
		return Unknown(status, cause)
	}
}

// # Helpers

// IsAppError reports whether err (or any error in its chain) is an [*AppError].
func IsAppError(err error) bool {
	var ae *AppError
	return errors.As(err, &ae)
}

// As extracts the [*AppError] from err's chain. It returns nil if not found.
func As(err error) *AppError {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// CodeOf returns the reason code of err, or [CodeUnknown] when err carries
// no [AppError] in its chain.
func CodeOf(err error) string {
	if ae := As(err); ae != nil {
		return ae.Code
	}
	return CodeUnknown
}
