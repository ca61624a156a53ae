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

// GetProfileRequest is the input of GetProfile. An empty UserID reads the caller's own profile.
type GetProfileRequest struct {
	UserID string `json:"userId,omitempty"`
}

// GetProfile returns a profile. Reading another user's profile requires an admin role.
func (s *Service) GetProfile(ctx context.Context, authorization string, req GetProfileRequest) (result *profile.Profile, err error) {
	ctx, span := s.startSpan(ctx, "account.get_profile")
	defer func() { endSpan(span, err) }()

	callerID, err := s.auth.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}
	caller := &Caller{ID: callerID, TargetID: callerID}

	if req.UserID != "" {
		target, err := parseUserID(req.UserID)
		if err != nil {
			return nil, err
		}
		caller.TargetID = target
	}
	span.SetAttributes(attribute.Bool("account.self", caller.TargetID == caller.ID))

	if !authz.IsSelf(caller.ID, caller.TargetID) {
		if err := s.authorize(ctx, caller, authz.OpReadOtherProfile); err != nil {
			return nil, err
		}
	}

	p, err := s.profiles.GetByID(ctx, caller.TargetID)
	if err != nil {
		if errors.Is(err, profile.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeProfileNotFound, "Profile not found", err)
		}
		return nil, apperr.Wrap(apperr.CodeProfileLookupFailed, "Failed to fetch profile: "+detail(err), err)
	}

	if caller.TargetID != caller.ID {
		s.auditLogger.Log(ctx, audit.Event{
			Type:     audit.TypeProfileViewed,
			ActorID:  caller.ID,
			TargetID: caller.TargetID,
			Resource: audit.ResourceProfile,
			Metadata: map[string]any{audit.AttrRole: caller.Role.String()},
		})
	}
	return p, nil
}
