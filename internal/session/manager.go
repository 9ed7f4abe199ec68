// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/domara/domara-go/internal/keystore"
	"github.com/domara/domara-go/internal/permission"
	"github.com/domara/domara-go/internal/platform/apperr"
	"github.com/domara/domara-go/internal/platform/constants"
	"github.com/domara/domara-go/internal/platform/validate"
	"github.com/domara/domara-go/internal/transport"
)

// # API Paths

const (
	pathLogin       = "/v1/auth/login"
	pathLogout      = "/v1/auth/logout"
	pathRefresh     = "/v1/auth/refresh"
	pathCurrentUser = "/v1/auth/me"
)

// Manager owns the authenticated session and user record.
//
// # Error Discipline
//
// Operations return errors; they never store them. A failed login leaves any
// previously surfaced error untouched for the embedding UI to manage — a new
// attempt does not implicitly clear old error state.
//
// # Epoch Guard
//
// No ordering is guaranteed between a current-user fetch completing and a
// concurrently issued logout. The manager closes the resulting late-write
// race with an epoch counter: every teardown bumps the epoch, and responses
// whose originating request predates the current epoch are discarded instead
// of resurrecting a logged-out session.
type Manager struct {
	client *transport.Client
	store  keystore.Store
	cache  *permission.Cache
	logger *slog.Logger

	mu      sync.RWMutex
	session *Session
	user    *User
	settled bool
	epoch   uint64

	refreshGroup singleflight.Group
}

// NewManager constructs a [Manager] over the given keystore and cache.
//
// # Parameters
//   - baseURL: Root of the Domara API.
//   - store: Persisted key-value store for tokens and the user snapshot.
//   - cache: Permission cache rewritten on every user mutation.
//   - logger: Structured logger.
//   - opts: Transport tuning (rate limits, custom HTTP client).
//
// # Returns
//   - *Manager: Ready for [Manager.Restore].
//   - error: Invalid base URL.
func NewManager(baseURL string, store keystore.Store, cache *permission.Cache, logger *slog.Logger, opts transport.Options) (*Manager, error) {
	manager := &Manager{
		store:  store,
		cache:  cache,
		logger: logger,
	}

	client, err := transport.NewClient(baseURL, transport.TokenFunc(manager.AccessToken), logger, opts)
	if err != nil {
		return nil, err
	}
	manager.client = client

	return manager, nil
}

// Client returns the shared API transport, already wired to this manager's
// bearer token. Resource clients are constructed over it.
func (manager *Manager) Client() *transport.Client {
	return manager.client
}

// # State Accessors

// AccessToken returns the current bearer token, or "" when anonymous.
func (manager *Manager) AccessToken() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.session == nil {
		return ""
	}
	return manager.session.AccessToken
}

// CurrentSession returns a copy of the active session, or nil when anonymous.
func (manager *Manager) CurrentSession() *Session {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.session == nil {
		return nil
	}
	copied := *manager.session
	return &copied
}

// User returns a copy of the current user record, or nil when anonymous.
func (manager *Manager) User() *User {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.user == nil {
		return nil
	}
	copied := *manager.user
	return &copied
}

// Status reports the guard-facing session status.
func (manager *Manager) Status() permission.SessionStatus {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	switch {
	case !manager.settled:
		return permission.SessionUnknown
	case manager.session == nil:
		return permission.SessionAnonymous
	default:
		return permission.SessionActive
	}
}

// RoleName returns the current user's role name, or "" when anonymous.
func (manager *Manager) RoleName() string {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	if manager.user == nil {
		return ""
	}
	return manager.user.Role.Name
}

// # Authentication Flow

/*
Login authenticates against the Domara auth service.

Description: Validates input locally, exchanges credentials for a session,
persists tokens, and applies the embedded user record — which rewrites the
permission snapshot and broadcasts a change notification. Failure reasons
arrive as typed [apperr.AppError] codes (invalid credentials, blocked,
rate-limited, server error, network).

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - *Session: Established session
  - error: Validation or authentication failures
*/
func (manager *Manager) Login(context context.Context, email, password string) (*Session, error) {
	validator := &validate.Validator{}
	if err := validator.
		Required(FieldEmail, email).
		Email(FieldEmail, email).
		Required(FieldPassword, password).
		Err(); err != nil {
		return nil, err
	}

	payload := map[string]string{
		FieldEmail:    email,
		FieldPassword: password,
	}

	epoch := manager.currentEpoch()

	established := &Session{}
	if err := manager.client.Do(context, http.MethodPost, pathLogin, nil, payload, established); err != nil {
		return nil, err
	}
	if !established.Valid() {
		return nil, apperr.Unknown(0, fmt.Errorf("session: backend returned a partial session"))
	}

	if err := manager.applySession(epoch, established); err != nil {
		return nil, err
	}

	manager.logger.Info("session_established",
		slog.String("user_id", established.User.ID),
		slog.String("role", established.User.Role.Name),
	)

	return manager.CurrentSession(), nil
}

/*
Logout terminates the session.

Description: Best-effort invalidates the server-side session; regardless of
that call's outcome the local session, user record, and permission snapshot
are cleared and a single change notification is broadcast. Logout never
fails on network health.

Parameters:
  - context: context.Context
*/
func (manager *Manager) Logout(context context.Context) {
	if manager.AccessToken() != "" {
		if err := manager.client.Do(context, http.MethodPost, pathLogout, nil, nil, nil); err != nil {
			// Server-side revocation is advisory. Local teardown proceeds.
			manager.logger.Warn("logout_server_call_failed",
				slog.String("error", err.Error()),
			)
		}
	}

	manager.teardown()
}

/*
Refresh exchanges the refresh token for a new session.

Description: The session is replaced wholesale — never field-by-field. On
failure the manager performs the same teardown as an explicit logout and
returns SESSION_EXPIRED. Concurrent refreshes collapse into a single
in-flight exchange.

Parameters:
  - context: context.Context

Returns:
  - *Session: Rotated session
  - error: SESSION_EXPIRED on any refresh failure
*/
func (manager *Manager) Refresh(context context.Context) (*Session, error) {
	result, err, _ := manager.refreshGroup.Do("refresh", func() (any, error) {
		return manager.refreshOnce(context)
	})
	if err != nil {
		return nil, err
	}
	return result.(*Session), nil
}

// refreshOnce performs one refresh exchange. Only ever invoked via the
// singleflight group.
func (manager *Manager) refreshOnce(context context.Context) (*Session, error) {
	manager.mu.RLock()
	var refreshToken string
	if manager.session != nil {
		refreshToken = manager.session.RefreshToken
	}
	manager.mu.RUnlock()

	if refreshToken == "" {
		return nil, apperr.SessionExpired(fmt.Errorf("session: no refresh token held"))
	}

	epoch := manager.currentEpoch()

	payload := map[string]string{FieldRefreshToken: refreshToken}
	rotated := &Session{}
	if err := manager.client.Do(context, http.MethodPost, pathRefresh, nil, payload, rotated); err != nil {
		manager.logger.Warn("session_refresh_failed",
			slog.String("error", err.Error()),
		)
		manager.teardown()
		return nil, apperr.SessionExpired(err)
	}
	if !rotated.Valid() {
		manager.teardown()
		return nil, apperr.SessionExpired(fmt.Errorf("session: backend returned a partial session"))
	}

	if err := manager.applySession(epoch, rotated); err != nil {
		return nil, err
	}

	return manager.CurrentSession(), nil
}

/*
CurrentUser fetches the authoritative user record from the backend.

Description: On success the permission snapshot is always rewritten to match
(or deleted when the role carries no permissions) and a change notification
is broadcast. Unconditional, not batched, not debounced: every
state-changing path re-triggers downstream re-evaluation.

Parameters:
  - context: context.Context

Returns:
  - *User: Fresh user record
  - error: Transport or authorization failures
*/
func (manager *Manager) CurrentUser(context context.Context) (*User, error) {
	epoch := manager.currentEpoch()

	fetched := &User{}
	if err := manager.client.Do(context, http.MethodGet, pathCurrentUser, nil, nil, fetched); err != nil {
		return nil, err
	}

	if err := manager.applyUser(epoch, fetched); err != nil {
		return nil, err
	}

	return fetched, nil
}

/*
Restore re-establishes a session from the keystore at startup.

Description: The "am I logged in" probe. Missing tokens settle to anonymous.
An expired access token is refreshed; a live one is validated by fetching
the current user. Any network or auth failure here degrades to a clean
logged-out state — it is a recoverable condition, never a blocking error.

Parameters:
  - context: context.Context
*/
func (manager *Manager) Restore(context context.Context) {
	defer manager.settle()

	access, okAccess := manager.readStoredToken(constants.KeyAccessToken)
	refresh, okRefresh := manager.readStoredToken(constants.KeyRefreshToken)
	if !okAccess || !okRefresh {
		return
	}

	restored := &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    1, // placeholder until the backend confirms
		User:         manager.readStoredUser(),
	}

	manager.mu.Lock()
	manager.session = restored
	manager.user = restored.User
	manager.mu.Unlock()

	if tokenExpired(access, time.Now()) {
		if _, err := manager.Refresh(context); err != nil {
			// Refresh already tore down local state.
			manager.logger.Info("session_restore_degraded_to_anonymous")
		}
		return
	}

	if _, err := manager.CurrentUser(context); err != nil {
		manager.logger.Info("session_restore_degraded_to_anonymous",
			slog.String("error", err.Error()),
		)
		manager.teardown()
	}
}

// # Internal State Transitions

// currentEpoch snapshots the teardown epoch before a request is issued.
func (manager *Manager) currentEpoch() uint64 {
	manager.mu.RLock()
	defer manager.mu.RUnlock()
	return manager.epoch
}

// applySession installs a fully validated session and applies its user.
// Late responses (epoch moved on) are discarded.
func (manager *Manager) applySession(epoch uint64, established *Session) error {
	manager.mu.Lock()
	if manager.epoch != epoch {
		manager.mu.Unlock()
		manager.logger.Info("session_late_write_discarded")
		return apperr.SessionExpired(fmt.Errorf("session: superseded by a concurrent logout"))
	}
	manager.session = established
	manager.settled = true
	manager.mu.Unlock()

	if err := manager.persistToken(constants.KeyAccessToken, established.AccessToken); err != nil {
		return err
	}
	if err := manager.persistToken(constants.KeyRefreshToken, established.RefreshToken); err != nil {
		return err
	}

	return manager.applyUser(epoch, established.User)
}

// applyUser installs the user record and rewrites the permission snapshot.
func (manager *Manager) applyUser(epoch uint64, fetched *User) error {
	manager.mu.Lock()
	if manager.epoch != epoch {
		manager.mu.Unlock()
		manager.logger.Info("session_late_write_discarded")
		return apperr.SessionExpired(fmt.Errorf("session: superseded by a concurrent logout"))
	}
	manager.user = fetched
	manager.mu.Unlock()

	data, err := json.Marshal(fetched)
	if err != nil {
		return fmt.Errorf("session_user_serialize_failed: %w", err)
	}
	if err := manager.store.Set(constants.KeyCurrentUser, data); err != nil {
		return fmt.Errorf("session_user_persist_failed: %w", err)
	}

	// The snapshot always mirrors the fetched role: rewritten when it has
	// permissions, deleted when it has none. Both paths broadcast.
	if len(fetched.Role.Permissions) == 0 {
		return manager.cache.Clear()
	}
	return manager.cache.Write(fetched.Role.Permissions)
}

// teardown clears all local auth state and broadcasts exactly one change
// notification (via the cache clear).
func (manager *Manager) teardown() {
	manager.mu.Lock()
	manager.epoch++
	manager.session = nil
	manager.user = nil
	manager.settled = true
	manager.mu.Unlock()

	for _, key := range []string{constants.KeyAccessToken, constants.KeyRefreshToken, constants.KeyCurrentUser} {
		if err := manager.store.Delete(key); err != nil {
			manager.logger.Warn("session_teardown_delete_failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	if err := manager.cache.Clear(); err != nil {
		manager.logger.Warn("session_teardown_cache_clear_failed",
			slog.String("error", err.Error()),
		)
	}
}

// settle marks the startup probe as finished.
func (manager *Manager) settle() {
	manager.mu.Lock()
	manager.settled = true
	manager.mu.Unlock()
}

// persistToken writes a token value under its keystore key.
func (manager *Manager) persistToken(key, token string) error {
	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("session_token_serialize_failed: %w", err)
	}
	if err := manager.store.Set(key, data); err != nil {
		return fmt.Errorf("session_token_persist_failed: %w", err)
	}
	return nil
}

// readStoredToken loads a token value from the keystore.
func (manager *Manager) readStoredToken(key string) (string, bool) {
	data, ok, err := manager.store.Get(key)
	if err != nil || !ok {
		return "", false
	}

	var token string
	if err := json.Unmarshal(data, &token); err != nil {
		manager.logger.Warn("session_token_malformed",
			slog.String("key", key),
		)
		return "", false
	}
	return token, token != ""
}

// readStoredUser loads the persisted user snapshot, if any.
func (manager *Manager) readStoredUser() *User {
	data, ok, err := manager.store.Get(constants.KeyCurrentUser)
	if err != nil || !ok {
		return nil
	}

	user := &User{}
	if err := json.Unmarshal(data, user); err != nil {
		manager.logger.Warn("session_user_snapshot_malformed")
		return nil
	}
	return user
}
