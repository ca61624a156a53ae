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

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/profile"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateStatusRequest is the input of UpdateStatus. An empty Role counts as absent.
type UpdateStatusRequest struct {
	UserID   string  `json:"userId"`
	IsActive *bool   `json:"isActive,omitempty"`
	Role     *string `json:"role,omitempty"`
}

func (r UpdateStatusRequest) validate() (target string, role *authz.Role, err error) {
	if r.UserID == "" {
		return "", nil, apperr.New(apperr.CodeMissingFields, "Missing required field: userId")
	}
	target, err = parseUserID(r.UserID)
	if err != nil {
		return "", nil, err
	}

	hasRole := r.Role != nil && *r.Role != ""
	if err := authz.RequireStatusFields(r.IsActive != nil, hasRole); err != nil {
		return "", nil, err
	}
	if hasRole {
		parsed, err := authz.ParseAssignableRole(*r.Role)
		if err != nil {
			return "", nil, err
		}
		role = &parsed
	}
	return target, role, nil
}

// UpdateStatus changes another user's active flag and/or role. Only super admins
// may do this and never on their own account.
func (s *Service) UpdateStatus(ctx context.Context, authorization string, req UpdateStatusRequest) (result *profile.Profile, err error) {
	ctx, span := s.startSpan(ctx, "account.update_status")
	defer func() { endSpan(span, err) }()

	callerID, err := s.auth.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}
	caller := &Caller{ID: callerID}

	target, role, err := req.validate()
	if err != nil {
		return nil, err
	}
	caller.TargetID = target

	if err := authz.ForbidSelfModification(caller.ID, caller.TargetID); err != nil {
		s.denied(ctx, caller, authz.OpUpdateStatus, err)
		return nil, err
	}

	if err := s.authorize(ctx, caller, authz.OpUpdateStatus); err != nil {
		return nil, err
	}

	update := profile.StatusUpdate{
		IsActive:  req.IsActive,
		Role:      role,
		UpdatedAt: s.now().UTC(),
	}
	if role != nil {
		span.SetAttributes(attribute.String("account.role", role.String()))
	}

	updated, err := s.profiles.UpdateStatus(ctx, caller.TargetID, update)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeUserNotFound, "User not found", err)
		}
		return nil, apperr.Wrap(apperr.CodeProfileUpdateFailed, "Failed to update profile: "+detail(err), err)
	}

	metadata := map[string]any{}
	if update.IsActive != nil {
		metadata[audit.AttrIsActive] = *update.IsActive
	}
	if update.Role != nil {
		metadata[audit.AttrRole] = update.Role.String()
	}
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeUserStatusUpdated,
		ActorID:  caller.ID,
		TargetID: caller.TargetID,
		Resource: audit.ResourceProfile,
		Metadata: metadata,
	})
	return updated, nil
}
