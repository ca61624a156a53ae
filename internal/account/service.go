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

// Package account implements the three administrative account operations:
// admin provisioning, profile reads and status updates.
package account

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/observability/logger"
	"github.com/opentrusty/account-admin/internal/observability/metrics"
	"github.com/opentrusty/account-admin/internal/observability/tracing"
	"github.com/opentrusty/account-admin/internal/profile"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const defaultRollbackTimeout = 10 * time.Second

// Confirmation messages returned with successful writes
const (
	MessageAdminCreated = "Admin account created successfully"
	MessageUserUpdated  = "User account updated successfully"
)

// Authenticator resolves the caller identity from an Authorization header
type Authenticator interface {
	Verify(ctx context.Context, authorization string) (string, error)
}

// Caller is the per-request view of who is asking for what
type Caller struct {
	ID       string
	Role     authz.Role
	TargetID string
}

// Service orchestrates verification, privilege resolution, policy and writes
type Service struct {
	auth            Authenticator
	identities      identity.Provider
	profiles        profile.Repository
	resolver        *profile.Resolver
	auditLogger     audit.Logger
	tracer          *tracing.Tracer
	metrics         *metrics.Account
	now             func() time.Time
	rollbackTimeout time.Duration
}

// NewService creates a new account service. A nil tracer or metrics records nothing.
func NewService(
	auth Authenticator,
	identities identity.Provider,
	profiles profile.Repository,
	auditLogger audit.Logger,
	tracer *tracing.Tracer,
	accountMetrics *metrics.Account,
) *Service {
	if tracer == nil {
		tracer = tracing.Noop()
	}
	return &Service{
		auth:            auth,
		identities:      identities,
		profiles:        profiles,
		resolver:        profile.NewResolver(profiles),
		auditLogger:     auditLogger,
		tracer:          tracer,
		metrics:         accountMetrics,
		now:             time.Now,
		rollbackTimeout: defaultRollbackTimeout,
	}
}

// Authenticate verifies the caller without performing any operation
func (s *Service) Authenticate(ctx context.Context, authorization string) (string, error) {
	return s.auth.Verify(ctx, authorization)
}

// SetRollbackTimeout bounds the compensating identity delete
func (s *Service) SetRollbackTimeout(d time.Duration) {
	if d > 0 {
		s.rollbackTimeout = d
	}
}

// authorize resolves the caller's role and applies the policy gate for op.
func (s *Service) authorize(ctx context.Context, caller *Caller, op authz.Operation) error {
	role, err := s.resolver.ResolveRole(ctx, caller.ID)
	if err != nil {
		return err
	}
	caller.Role = role

	if err := authz.Authorize(role, op); err != nil {
		s.denied(ctx, caller, op, err)
		return err
	}
	return nil
}

// denied records a policy denial
func (s *Service) denied(ctx context.Context, caller *Caller, op authz.Operation, err error) {
	slog.InfoContext(ctx, "account operation denied",
		logger.Component("account"),
		logger.Operation(string(op)),
		logger.UserID(caller.ID),
		logger.Role(caller.Role.String()),
		logger.TargetID(caller.TargetID),
	)
	s.metrics.AccessDenied(ctx, string(op))
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAccessDenied,
		ActorID:  caller.ID,
		TargetID: caller.TargetID,
		Resource: audit.ResourceProfile,
		Metadata: map[string]any{
			audit.AttrOperation: string(op),
			audit.AttrRole:      caller.Role.String(),
			audit.AttrReason:    apperr.From(err).Message,
		},
	})
}

// startSpan opens an operation span
func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// endSpan records err on span and ends it
func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(apperr.CodeOf(err)))
	}
	span.End()
}

// parseUserID rejects identifiers that are not UUIDs so they never reach a store filter.
func parseUserID(id string) (string, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return "", apperr.Wrap(apperr.CodeInvalidRequest, "Invalid userId", err)
	}
	return parsed.String(), nil
}

// detailer is implemented by backend errors carrying the upstream text
type detailer interface {
	Detail() string
}

// detail returns the upstream text of err for client messages
func detail(err error) string {
	var d detailer
	if errors.As(err, &d) {
		return d.Detail()
	}
	return err.Error()
}
