// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package constants provides centralized, immutable values for the SDK.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the client.

Categories:

  - Transport Timing: Request timeouts and egress rate limits.
  - Keystore Layout: The well-known keys of the persisted key-value store.
  - Headers: Correlation and authorization header names.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "domara-go"
	AppVersion = "0.1.0-dev"
)

// # Transport Timing

const (
	// DefaultRequestTimeout is the deadline applied to a single API call when
	// the caller's context carries no deadline of its own.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultDialTimeout is the maximum duration for establishing a TCP connection.
	DefaultDialTimeout = 5 * time.Second

	// RestoreTimeout bounds the startup "am I logged in" probe so a dead
	// backend degrades to logged-out quickly instead of hanging the host app.
	RestoreTimeout = 10 * time.Second
)

// # Egress Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second the client allows itself
	// against the Domara API before queueing.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the egress limiter.
	DefaultRateLimitBurst = 100
)

// # Keystore Layout

const (
	// KeyUserPermissions is the persisted key holding the permission snapshot.
	KeyUserPermissions = "userPermissions"

	// KeyPreferredLanguage is the persisted key holding the UI locale code.
	KeyPreferredLanguage = "preferredLanguage"

	// KeyAccessToken is the persisted key holding the bearer access token.
	KeyAccessToken = "auth.accessToken"

	// KeyRefreshToken is the persisted key holding the refresh token.
	KeyRefreshToken = "auth.refreshToken"

	// KeyCurrentUser is the persisted key holding the last fetched user record.
	KeyCurrentUser = "auth.currentUser"
)

// # Headers

const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderXRequestID    = "X-Request-ID"
	HeaderRetryAfter    = "Retry-After"
)

// # Events

const (
	// EventPermissionChanged is the in-process topic broadcast whenever the
	// permission snapshot is rewritten or cleared. The event carries no
	// payload; consumers re-read the cache.
	EventPermissionChanged = "permission-changed"
)
