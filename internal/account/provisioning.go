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

package account

import (
	"context"
	"errors"
	"log/slog"

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/observability/logger"
	"github.com/opentrusty/account-admin/internal/observability/metrics"
	"github.com/opentrusty/account-admin/internal/profile"
	"go.opentelemetry.io/otel/attribute"
)

// ProvisionState is the furthest point an account creation reached.
//
//	NoIdentity -> IdentityOnly -> Provisioned
//	                           -> Compensated (identity deleted)
//	                           -> Orphaned    (identity delete failed)
type ProvisionState int

const (
	StateNoIdentity ProvisionState = iota
	StateIdentityOnly
	StateProvisioned
	StateCompensated
	StateOrphaned
)

func (s ProvisionState) String() string {
	switch s {
	case StateNoIdentity:
		return "no_identity"
	case StateIdentityOnly:
		return "identity_only"
	case StateProvisioned:
		return "provisioned"
	case StateCompensated:
		return "compensated"
	case StateOrphaned:
		return "orphaned"
	default:
		return "unknown"
	}
}

// provisioning is the outcome of one account creation.
// Err is what the client sees; RollbackErr is only set when Orphaned.
type provisioning struct {
	State       ProvisionState
	Identity    *identity.User
	Profile     *profile.Profile
	Err         error
	RollbackErr error
}

// provision creates the identity and then its profile. A failed profile
// insert deletes the identity before returning.
func (s *Service) provision(ctx context.Context, actorID string, nu identity.NewUser, np profile.NewProfile) *provisioning {
	p := &provisioning{State: StateNoIdentity}

	idCtx, span := s.startSpan(ctx, "account.provision.identity")
	user, err := s.identities.CreateUser(idCtx, nu)
	if err != nil {
		p.Err = apperr.Wrap(apperr.CodeIdentityCreationFailed, "Failed to create user: "+detail(err), err)
		endSpan(span, p.Err)
		return p
	}
	span.SetAttributes(attribute.String("account.identity_id", user.ID))
	endSpan(span, nil)

	p.State = StateIdentityOnly
	p.Identity = user

	np.ID = user.ID
	pCtx, span := s.startSpan(ctx, "account.provision.profile", attribute.String("account.identity_id", user.ID))
	created, err := s.profiles.Create(pCtx, np)
	if err != nil {
		p.Err = apperr.Wrap(apperr.CodeProfileCreationFailed, "Failed to create profile: "+detail(err), err)
		endSpan(span, p.Err)
		s.compensate(ctx, actorID, p)
		return p
	}
	endSpan(span, nil)

	p.State = StateProvisioned
	p.Profile = created
	return p
}

// compensate deletes the identity of a half-provisioned account. It runs
// even when the request context is already cancelled.
func (s *Service) compensate(ctx context.Context, actorID string, p *provisioning) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.rollbackTimeout)
	defer cancel()

	rctx, span := s.startSpan(rctx, "account.provision.rollback", attribute.String("account.identity_id", p.Identity.ID))
	err := s.identities.DeleteUser(rctx, p.Identity.ID)
	if err != nil && !errors.Is(err, identity.ErrUserNotFound) {
		p.State = StateOrphaned
		p.RollbackErr = err
		endSpan(span, err)

		slog.ErrorContext(ctx, "identity rollback failed, identity has no profile",
			logger.Component("account"),
			logger.TargetID(p.Identity.ID),
			logger.Email(p.Identity.Email),
			logger.SagaState(p.State.String()),
			logger.Error(err),
		)
		s.metrics.Rollback(ctx, metrics.OutcomeOrphaned)
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeIdentityOrphaned,
			ActorID:  actorID,
			TargetID: p.Identity.ID,
			Resource: audit.ResourceIdentity,
			Metadata: map[string]any{
				audit.AttrEmail: p.Identity.Email,
				audit.AttrState: p.State.String(),
				audit.AttrError: err.Error(),
			},
		})
		return
	}
	endSpan(span, nil)

	p.State = StateCompensated
	slog.WarnContext(ctx, "profile creation failed, identity rolled back",
		logger.Component("account"),
		logger.TargetID(p.Identity.ID),
		logger.SagaState(p.State.String()),
		logger.Error(p.Err),
	)
	s.metrics.Rollback(ctx, metrics.OutcomeCompensated)
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeIdentityRolledBack,
		ActorID:  actorID,
		TargetID: p.Identity.ID,
		Resource: audit.ResourceIdentity,
		Metadata: map[string]any{
			audit.AttrEmail: p.Identity.Email,
			audit.AttrState: p.State.String(),
		},
	})
}
