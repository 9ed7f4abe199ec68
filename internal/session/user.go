// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package session implements the credential/session store of the client.

It owns the authenticated session and user record, and exposes the
login/logout/refresh/current-user operations against the Domara auth service.

# Architecture

This layer is the single writer of auth state. Every successful mutation of
the user record rewrites the permission snapshot and broadcasts a change
notification — unconditionally, on every path, because gated UI correctness
depends on each state change re-triggering re-evaluation downstream.
*/
package session

import (
	"github.com/domara/domara-go/internal/permission"
)

// # Domain Entities

// Role is a named bundle of permissions assigned to a user.
//
// It is a value snapshot taken at fetch time, never a shared mutable
// reference: two fetches of the same user yield independent copies.
type Role struct {
	Name        string                `json:"name"`
	Permissions permission.Collection `json:"permissions"`
}

// User represents an authenticated member of a Domara property organization.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}

// Session represents an established authentication session.
//
// # Validity
//
// A Session is either fully present or absent — partial sessions are not
// valid states. [Session.Valid] is the single definition of "fully present";
// the manager never stores a session that fails it.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	// ExpiresIn is the access token lifetime in seconds from issuance.
	ExpiresIn int64 `json:"expires_in"`
	User      *User `json:"user,omitempty"`
}

// Valid reports whether every field of the session is populated.
func (s *Session) Valid() bool {
	if s == nil {
		return false
	}
	return s.AccessToken != "" &&
		s.RefreshToken != "" &&
		s.TokenType != "" &&
		s.ExpiresIn > 0 &&
		s.User != nil &&
		s.User.ID != ""
}

// # Field Identifiers

// Global field names for validation and payload mapping in the session domain.
const (
	FieldEmail        = "email"
	FieldPassword     = "password"
	FieldAccessToken  = "access_token"
	FieldRefreshToken = "refresh_token"
	FieldTokenType    = "token_type"
	FieldExpiresIn    = "expires_in"
	FieldUser         = "user"
)
