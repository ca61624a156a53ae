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
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Profile store backends
const (
	ProfileStoreREST     = "rest"
	ProfileStorePostgres = "postgres"
)

// Error status modes
const (
	ErrorStatusTyped  = "typed"
	ErrorStatusLegacy = "legacy"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Backend       BackendConfig
	Database      DatabaseConfig
	HTTP          HTTPConfig
	Observability ObservabilityConfig
	RateLimit     RateLimitConfig
	Bootstrap     BootstrapConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// BackendConfig holds the identity provider and REST store configuration
type BackendConfig struct {
	URL             string
	ServiceRoleKey  string
	Timeout         time.Duration
	ProfileStore    string
	RollbackTimeout time.Duration
}

// DatabaseConfig holds database configuration, used when ProfileStore is postgres
type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	Database     string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// HTTPConfig holds response shaping configuration
type HTTPConfig struct {
	ErrorStatusMode   string
	CORSAllowedOrigin string
	RequestTimeout    time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// ObservabilityConfig holds logging and tracing configuration
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	OTELEnabled    bool
	ServiceName    string
	ServiceVersion string
}

// BootstrapConfig holds the optional first super admin
type BootstrapConfig struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
}

// Load loads configuration from .env files and environment variables.
// Variables already set in the environment win over .env values.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  parseDuration("SERVER_READ_TIMEOUT", "15s"),
			WriteTimeout: parseDuration("SERVER_WRITE_TIMEOUT", "75s"),
			IdleTimeout:  parseDuration("SERVER_IDLE_TIMEOUT", "60s"),
		},
		Backend: BackendConfig{
			URL:             getEnv("SUPABASE_URL", ""),
			ServiceRoleKey:  getEnv("SUPABASE_SERVICE_ROLE_KEY", ""),
			Timeout:         parseDuration("BACKEND_TIMEOUT", "30s"),
			ProfileStore:    getEnv("PROFILE_STORE", ProfileStoreREST),
			RollbackTimeout: parseDuration("ROLLBACK_TIMEOUT", "10s"),
		},
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", ""),
			Database:     getEnv("DB_NAME", "postgres"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: parseInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: parseInt("DB_MAX_IDLE_CONNS", 5),
		},
		HTTP: HTTPConfig{
			ErrorStatusMode:   getEnv("ERROR_STATUS_MODE", ErrorStatusTyped),
			CORSAllowedOrigin: getEnv("CORS_ALLOWED_ORIGIN", "*"),
			RequestTimeout:    parseDuration("REQUEST_TIMEOUT", "60s"),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			LogFormat:      getEnv("LOG_FORMAT", "json"),
			OTELEnabled:    parseBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "account-admin"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "0.1.0"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: parseFloat("RATELIMIT_RPS", 10),
			Burst:             parseInt("RATELIMIT_BURST", 20),
		},
		Bootstrap: BootstrapConfig{
			Email:       getEnv("ACCOUNT_BOOTSTRAP_SUPER_ADMIN_EMAIL", ""),
			Password:    getEnv("ACCOUNT_BOOTSTRAP_SUPER_ADMIN_PASSWORD", ""),
			FullName:    getEnv("ACCOUNT_BOOTSTRAP_SUPER_ADMIN_FULL_NAME", ""),
			PhoneNumber: getEnv("ACCOUNT_BOOTSTRAP_SUPER_ADMIN_PHONE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Backend.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if u, err := url.Parse(c.Backend.URL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("SUPABASE_URL must be an absolute URL")
	}
	if c.Backend.ServiceRoleKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required")
	}

	switch c.Backend.ProfileStore {
	case ProfileStoreREST:
	case ProfileStorePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required when PROFILE_STORE=postgres")
		}
	default:
		return fmt.Errorf("PROFILE_STORE must be %q or %q", ProfileStoreREST, ProfileStorePostgres)
	}

	switch c.HTTP.ErrorStatusMode {
	case ErrorStatusTyped, ErrorStatusLegacy:
	default:
		return fmt.Errorf("ERROR_STATUS_MODE must be %q or %q", ErrorStatusTyped, ErrorStatusLegacy)
	}

	if c.HTTP.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	// a cancelled request still runs its rollback before the response is written
	if c.Server.WriteTimeout > 0 && c.Server.WriteTimeout <= c.HTTP.RequestTimeout+c.Backend.RollbackTimeout {
		return fmt.Errorf("SERVER_WRITE_TIMEOUT (%s) must exceed REQUEST_TIMEOUT + ROLLBACK_TIMEOUT (%s)",
			c.Server.WriteTimeout, c.HTTP.RequestTimeout+c.Backend.RollbackTimeout)
	}

	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("RATELIMIT_RPS and RATELIMIT_BURST must be positive")
	}
	return nil
}

// Addr returns the listen address
func (s ServerConfig) Addr() string {
	return s.Host + ":" + s.Port
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func parseFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func parseBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func parseDuration(key string, defaultValue string) time.Duration {
	value := getEnv(key, defaultValue)
	d, err := time.ParseDuration(value)
	if err != nil {
		d, _ = time.ParseDuration(defaultValue)
	}
	return d
}
