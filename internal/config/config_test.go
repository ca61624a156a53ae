// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("SUPABASE_URL", "https://project.supabase.co")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 75*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, 10*time.Second, cfg.Backend.RollbackTimeout)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.HTTP.RequestTimeout+cfg.Backend.RollbackTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, ProfileStoreREST, cfg.Backend.ProfileStore)
	assert.Equal(t, ErrorStatusTyped, cfg.HTTP.ErrorStatusMode)
	assert.Equal(t, "*", cfg.HTTP.CORSAllowedOrigin)
	assert.Equal(t, 10.0, cfg.RateLimit.RequestsPerSecond)
	assert.Equal(t, 20, cfg.RateLimit.Burst)
	assert.Equal(t, "account-admin", cfg.Observability.ServiceName)
	assert.False(t, cfg.Observability.OTELEnabled)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"SUPABASE_URL=https://from-file.supabase.co\n"+
			"SUPABASE_SERVICE_ROLE_KEY=file-key\n"+
			"ERROR_STATUS_MODE=legacy\n"+
			"SERVER_PORT=9090\n"), 0o600))

	// process environment wins over the file
	t.Setenv("SERVER_PORT", "7070")
	t.Setenv("SUPABASE_URL", "")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "")
	t.Setenv("ERROR_STATUS_MODE", "")
	os.Unsetenv("SUPABASE_URL")
	os.Unsetenv("SUPABASE_SERVICE_ROLE_KEY")
	os.Unsetenv("ERROR_STATUS_MODE")

	cfg, err := Load(envFile)
	require.NoError(t, err)
	assert.Equal(t, "https://from-file.supabase.co", cfg.Backend.URL)
	assert.Equal(t, "file-key", cfg.Backend.ServiceRoleKey)
	assert.Equal(t, ErrorStatusLegacy, cfg.HTTP.ErrorStatusMode)
	assert.Equal(t, "7070", cfg.Server.Port)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server:    ServerConfig{WriteTimeout: 75 * time.Second},
			Backend:   BackendConfig{URL: "https://p.supabase.co", ServiceRoleKey: "k", ProfileStore: ProfileStoreREST, RollbackTimeout: 10 * time.Second},
			HTTP:      HTTPConfig{ErrorStatusMode: ErrorStatusTyped, RequestTimeout: 60 * time.Second},
			RateLimit: RateLimitConfig{RequestsPerSecond: 1, Burst: 1},
		}
	}

	require.NoError(t, valid().Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing url", func(c *Config) { c.Backend.URL = "" }},
		{"relative url", func(c *Config) { c.Backend.URL = "project.supabase.co" }},
		{"missing key", func(c *Config) { c.Backend.ServiceRoleKey = "" }},
		{"unknown store", func(c *Config) { c.Backend.ProfileStore = "mongo" }},
		{"postgres without password", func(c *Config) { c.Backend.ProfileStore = ProfileStorePostgres }},
		{"unknown status mode", func(c *Config) { c.HTTP.ErrorStatusMode = "strict" }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
		{"zero request timeout", func(c *Config) { c.HTTP.RequestTimeout = 0 }},
		{"write timeout below request timeout", func(c *Config) { c.Server.WriteTimeout = 15 * time.Second }},
		{"write timeout leaves no room for rollback", func(c *Config) { c.Server.WriteTimeout = 70 * time.Second }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}

	c := valid()
	c.Server.WriteTimeout = 0
	assert.NoError(t, c.Validate(), "zero write timeout disables the deadline")

	c = valid()
	c.Backend.ProfileStore = ProfileStorePostgres
	c.Database.Password = "secret"
	assert.NoError(t, c.Validate())
}
