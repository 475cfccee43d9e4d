// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Gayathri240502/persft-web-sub000/internal/config"
)

func TestIsLocalhost(t *testing.T) {
	tests := []struct {
		host string
		want bool
	}{
		{"localhost", true},
		{"127.0.0.1", true},
		{"::1", true},
		{"", true},
		{"console.localhost", true},
		{"example.com", false},
		{"192.168.1.10", false},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, config.IsLocalhost(tt.host))
		})
	}
}
