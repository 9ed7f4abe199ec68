// Copyright (c) 2026 Domara. All rights reserved.
// Author: platform@domara.io

package validate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domara/domara-go/internal/platform/apperr"
	"github.com/domara/domara-go/internal/platform/validate"
)

/*
TestValidator_Required tests the mandatory field validation logic.
*/
func TestValidator_Required(t *testing.T) {
	tests := []struct {
		name     string
		field    string
		value    string
		hasError bool
	}{
		{"valid_string", "email", "ops@domara.io", false},
		{"empty_string", "email", "", true},
		{"whitespace_only", "email", "   ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Required(tt.field, tt.value)

			if tt.hasError {
				assert.True(t, v.HasErrors())
				err := v.Err()
				require.NotNil(t, err)

				ae := apperr.As(err)
				require.NotNil(t, ae)
				assert.Equal(t, apperr.CodeValidation, ae.Code)
				assert.Equal(t, tt.field, ae.Details[0].Field)
			} else {
				assert.False(t, v.HasErrors())
				assert.Nil(t, v.Err())
			}
		})
	}
}

/*
TestValidator_Email checks the email format validation rule.
*/
func TestValidator_Email(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		isValid bool
	}{
		{"valid_address", "manager@domara.io", true},
		{"display_name_form", "Site Ops <ops@domara.io>", true},
		{"missing_at", "managerdomara.io", false},
		{"missing_domain", "manager@", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			v.Email("email", tt.email)
			assert.Equal(t, !tt.isValid, v.HasErrors())
		})
	}
}

/*
TestValidator_Chaining verifies that multiple failed rules accumulate details.
*/
func TestValidator_Chaining(t *testing.T) {
	v := &validate.Validator{}
	err := v.
		Required("email", "").
		MinLen("password", "abc", 8).
		Err()

	require.NotNil(t, err)
	ae := apperr.As(err)
	require.NotNil(t, ae)
	assert.Len(t, ae.Details, 2)
	assert.Equal(t, "email", ae.Details[0].Field)
	assert.Equal(t, "password", ae.Details[1].Field)
}

/*
TestValidator_OneOf checks the fixed-set membership rule used for locale codes.
*/
func TestValidator_OneOf(t *testing.T) {
	valid := &validate.Validator{}
	valid.OneOf("language", "en", "en", "de", "fr")
	assert.False(t, valid.HasErrors())

	invalid := &validate.Validator{}
	invalid.OneOf("language", "xx", "en", "de", "fr")
	assert.True(t, invalid.HasErrors())
}
