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

// @title Account Admin API
// @version 0.1.0
// @description Administrative account provisioning and access control

// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/opentrusty/account-admin/internal/account"
	"github.com/opentrusty/account-admin/internal/observability/logger"
	"github.com/opentrusty/account-admin/internal/profile"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultRequestTimeout = 60 * time.Second

// AccountService is the account workflow exposed over HTTP
type AccountService interface {
	Authenticate(ctx context.Context, authorization string) (string, error)
	CreateAdmin(ctx context.Context, authorization string, req account.CreateAdminRequest) (*account.CreateAdminResult, error)
	GetProfile(ctx context.Context, authorization string, req account.GetProfileRequest) (*profile.Profile, error)
	UpdateStatus(ctx context.Context, authorization string, req account.UpdateStatusRequest) (*profile.Profile, error)
}

// Options holds response shaping configuration
type Options struct {
	ServiceName     string
	ErrorStatusMode StatusMode
	AllowedOrigin   string
	RequestTimeout  time.Duration
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	accounts AccountService
	opts     Options
}

// NewHandler creates a new HTTP handler
func NewHandler(accounts AccountService, opts Options) *Handler {
	if opts.ServiceName == "" {
		opts.ServiceName = "account-admin"
	}
	if opts.ErrorStatusMode == "" {
		opts.ErrorStatusMode = StatusModeTyped
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	return &Handler{accounts: accounts, opts: opts}
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(CORSMiddleware(h.opts.AllowedOrigin))
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(RequestInfoMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.opts.RequestTimeout))

	// Health check
	r.Get("/health", h.HealthCheck)

	r.Route("/functions/v1", func(r chi.Router) {
		r.Post("/create-admin-account", h.CreateAdminAccount)
		r.Post("/get-user-profile", h.GetUserProfile)
		r.Get("/get-user-profile", h.GetUserProfile)
		r.Post("/update-user-status", h.UpdateUserStatus)
	})

	return r
}

// HealthCheck returns the health status
// @Summary Health Check
// @Description Checks if the service is up and running
// @Tags System
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": h.opts.ServiceName,
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode response", logger.Error(err))
	}
}
