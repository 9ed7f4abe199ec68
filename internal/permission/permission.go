// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

/*
Package permission implements the permission snapshot, its persisted cache,
and the authorization check consulted by every gated surface of the client.

It handles the full lifecycle: the session layer rewrites the snapshot on
every user fetch, the cache persists it under a fixed keystore key, and the
checker answers "may the current user do X" without ever failing the caller.

Architecture:

  - Permission / Collection: The domain model, tolerant of legacy shapes.
  - Cache: Read/write/clear over the keystore; the sole source of truth.
  - Checker: Pure decision functions with a notification-driven generation.
  - Guard: The three-state (pending/denied/granted) gate for UI subtrees.

The package never propagates errors from the decision path. Malformed or
missing data degrades to "no permissions", the most restrictive answer.
*/
package permission

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/domara/domara-go/pkg/slice"
)

// # Domain Model

// Permission is an atomic authorization unit.
type Permission struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Resource string `json:"resource,omitempty"`
	Action   string `json:"action,omitempty"`
}

// Matches reports whether required refers to this permission.
//
// # Matching Rule
//
// ID equality is canonical and checked first; name equality is kept as a
// compatibility path for call sites that still pass display names.
func (p Permission) Matches(required string) bool {
	if p.ID != "" && p.ID == required {
		return true
	}
	return p.Name != "" && p.Name == required
}

// Collection is the permission set belonging to the current user.
//
// # Legacy Shapes
//
// Three shapes have historically been persisted under the snapshot key:
//
//	["perm-id", ...]                     -- array of ID strings
//	["Create Staff", ...]                -- array of display names
//	[{"id": "...", "name": "..."}, ...]  -- array of objects (canonical)
//
// Collection reads all three and always writes the canonical object shape.
// String elements are stored with the value in both ID and Name, since the
// legacy data gives no way to tell the two apart.
type Collection []Permission

// UnmarshalJSON implements the lenient reader across legacy shapes.
func (c *Collection) UnmarshalJSON(data []byte) error {
	var elements []json.RawMessage
	if err := json.Unmarshal(data, &elements); err != nil {
		return err
	}

	out := make(Collection, 0, len(elements))
	for _, element := range elements {
		trimmed := strings.TrimSpace(string(element))
		if len(trimmed) == 0 {
			continue
		}

		switch trimmed[0] {
		case '"':
			var value string
			if err := json.Unmarshal(element, &value); err != nil {
				return err
			}
			out = append(out, Permission{ID: value, Name: value})
		case '{':
			var value Permission
			if err := json.Unmarshal(element, &value); err != nil {
				return err
			}
			if value.Name == "" {
				// Objects missing a name fall back to the ID as the
				// effective display value.
				value.Name = value.ID
			}
			out = append(out, value)
		default:
			// Numbers, booleans, nested arrays: not a permission entry.
			return fmt.Errorf("permission: unsupported element shape %q", trimmed)
		}
	}

	*c = out
	return nil
}

// Contains reports whether any entry matches required.
func (c Collection) Contains(required string) bool {
	for _, entry := range c {
		if entry.Matches(required) {
			return true
		}
	}
	return false
}

// IDs returns the identifier of every entry, preserving order.
func (c Collection) IDs() []string {
	return slice.Map(c, func(entry Permission) string { return entry.ID })
}
