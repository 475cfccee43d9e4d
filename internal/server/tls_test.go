// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package server

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Gayathri240502/persft-web-sub000/internal/config"
)

func TestResolveTLSMode(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		want TLSMode
	}{
		{
			name: "explicit off",
			cfg:  config.Config{TLS: config.TLSConfig{Mode: "off"}, Server: config.ServerConfig{Host: "example.com"}},
			want: TLSModeOff,
		},
		{
			name: "explicit manual",
			cfg:  config.Config{TLS: config.TLSConfig{Mode: "manual"}},
			want: TLSModeManual,
		},
		{
			name: "auto on localhost",
			cfg:  config.Config{TLS: config.TLSConfig{Mode: "auto"}, Server: config.ServerConfig{Host: "localhost"}},
			want: TLSModeOff,
		},
		{
			name: "auto with cert files",
			cfg: config.Config{
				TLS:    config.TLSConfig{Mode: "auto", CertFile: "cert.pem", KeyFile: "key.pem"},
				Server: config.ServerConfig{Host: "example.com"},
			},
			want: TLSModeManual,
		},
		{
			name: "auto falls back to selfsigned without acme email",
			cfg:  config.Config{TLS: config.TLSConfig{Mode: "auto"}, Server: config.ServerConfig{Host: "example.com"}},
			want: TLSModeSelfSigned,
		},
		{
			name: "unknown mode behaves like auto",
			cfg:  config.Config{TLS: config.TLSConfig{Mode: "bogus"}, Server: config.ServerConfig{Host: "localhost"}},
			want: TLSModeOff,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolveTLSMode(&tt.cfg))
		})
	}
}

func TestSetupSelfSignedGeneratesCert(t *testing.T) {
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "example.com"},
		TLS:    config.TLSConfig{Mode: "selfsigned", CertDir: t.TempDir()},
	}

	result, err := SetupTLS(cfg)
	assert.NoError(t, err)
	assert.Equal(t, TLSModeSelfSigned, result.Mode)
	assert.NotNil(t, result.TLSConfig)
	assert.Len(t, result.TLSConfig.Certificates, 1)

	// A second call reuses the stored certificate.
	again, err := SetupTLS(cfg)
	assert.NoError(t, err)
	assert.Equal(t, TLSModeSelfSigned, again.Mode)
}
