// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package phone_test

import (
	"testing"

	"github.com/Gayathri240502/persft-web-sub000/internal/phone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bare number", "9876543210", "+919876543210"},
		{"already prefixed", "+919876543210", "+919876543210"},
		{"prefix without plus", "919876543210", "+919876543210"},
		{"leading zero", "09876543210", "+919876543210"},
		{"spaces and dashes", "98765 432-10", "+919876543210"},
		{"parentheses", "(987) 654.3210", "+919876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := phone.Normalize(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_NeverDoublesPrefix(t *testing.T) {
	got, err := phone.Normalize("+919876543210")
	require.NoError(t, err)

	// Re-normalizing an already normalized number is a no-op.
	again, err := phone.Normalize(got)
	require.NoError(t, err)
	assert.Equal(t, got, again)
}

func TestNormalize_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"letters", "98a6543210"},
		{"too long", "98765432109876543210"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := phone.Normalize(tt.input)
			assert.ErrorIs(t, err, phone.ErrInvalid)
		})
	}
}
