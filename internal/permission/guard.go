// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package permission

import (
	"context"
	"strings"
)

// # Guard States

// Decision is the renderable outcome of a guard evaluation.
type Decision int

const (
	// DecisionPending means the session or permission state is still in
	// flight; the consumer should render its loading state.
	DecisionPending Decision = iota

	// DecisionDenied means access is resolved and refused; the consumer
	// renders its explicit fallback content.
	DecisionDenied

	// DecisionGranted means access is resolved and allowed; the consumer
	// renders the protected subtree.
	DecisionGranted
)

// String returns the lowercase name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionPending:
		return "pending"
	case DecisionDenied:
		return "denied"
	case DecisionGranted:
		return "granted"
	default:
		return "unknown"
	}
}

// Mode selects how a required permission set is combined.
type Mode int

const (
	// ModeAll grants only when every required permission is held.
	ModeAll Mode = iota

	// ModeAny grants when at least one required permission is held.
	ModeAny
)

// # Session Coupling

// SessionStatus is the guard's view of the credential store.
type SessionStatus int

const (
	// SessionUnknown means the startup restore has not settled yet.
	SessionUnknown SessionStatus = iota

	// SessionAnonymous means no user is signed in.
	SessionAnonymous

	// SessionActive means a user is signed in.
	SessionActive
)

// StatusFunc reports the live session status. Provided by the session layer.
type StatusFunc func() SessionStatus

// RoleFunc reports the current user's role name, or "" when anonymous.
// Provided by the session layer.
type RoleFunc func() string

// Guard gates protected subtrees on authorization state.
//
// # Contract
//
// Evaluate produces exactly one of three states: pending while the session
// is unresolved, denied when access is refused, granted otherwise. Visual
// behavior is entirely the consumer's concern.
type Guard struct {
	checker *Checker
	status  StatusFunc
	role    RoleFunc
}

// NewGuard constructs a [Guard] over the checker and session accessors.
func NewGuard(checker *Checker, status StatusFunc, role RoleFunc) *Guard {
	return &Guard{checker: checker, status: status, role: role}
}

/*
Evaluate decides access for a required permission set.

Parameters:
  - context: context.Context
  - required: []string (empty set grants for any signed-in user)
  - mode: Mode (ModeAll or ModeAny)

Returns:
  - Decision: Pending, Denied, or Granted
*/
func (guard *Guard) Evaluate(context context.Context, required []string, mode Mode) Decision {
	switch guard.status() {
	case SessionUnknown:
		return DecisionPending
	case SessionAnonymous:
		return DecisionDenied
	}

	if len(required) == 0 {
		return DecisionGranted
	}

	var allowed bool
	if mode == ModeAny {
		allowed = guard.checker.HasAnyPermission(context, required...)
	} else {
		allowed = guard.checker.HasAllPermissions(context, required...)
	}

	if allowed {
		return DecisionGranted
	}
	return DecisionDenied
}

/*
EvaluateRole decides access from a fixed allow-list of role names.

Description: Role gates (e.g. "Admin-only") are a specialization of the
guard. The current user's role name is compared case-insensitively against
the allow-list.

Parameters:
  - allowed: ...string (role names)

Returns:
  - Decision: Pending, Denied, or Granted
*/
func (guard *Guard) EvaluateRole(allowed ...string) Decision {
	switch guard.status() {
	case SessionUnknown:
		return DecisionPending
	case SessionAnonymous:
		return DecisionDenied
	}

	current := guard.role()
	for _, name := range allowed {
		if strings.EqualFold(current, name) {
			return DecisionGranted
		}
	}
	return DecisionDenied
}
