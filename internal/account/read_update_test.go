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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool             { return &b }
func strPtr(s string) *string          { return &s }
func rolePtr(r authz.Role) *authz.Role { return &r }

// TestPurpose: Validates that self-read never consults the caller's privilege.
// Scope: Unit Test
// Expected: Any authenticated caller reads their own profile; repeated reads are identical.
// Test Case ID: ACC-08
func TestService_GetProfile_Self(t *testing.T) {
	f := newFixture()
	f.auth.On("Verify", mock.Anything, "Bearer u").Return(userID, nil)
	stored := &profile.Profile{ID: userID, Email: "u@x.io", Role: authz.RoleUser, IsActive: true}
	f.repo.On("GetByID", mock.Anything, userID).Return(stored, nil)

	first, err := f.svc.GetProfile(context.Background(), "Bearer u", GetProfileRequest{})
	require.NoError(t, err)
	second, err := f.svc.GetProfile(context.Background(), "Bearer u", GetProfileRequest{UserID: userID})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	f.repo.AssertNotCalled(t, "GetRole", mock.Anything, mock.Anything)
	assert.Empty(t, f.audit.types())
}

// TestPurpose: Validates cross-user reads against the role matrix.
// Scope: Unit Test
// Security: Horizontal access control on profile data
// Expected: user is denied; admin and super_admin may read other profiles.
// Test Case ID: ACC-09
func TestService_GetProfile_Other(t *testing.T) {
	t.Run("user denied", func(t *testing.T) {
		f := newFixture()
		f.caller("u", userID, authz.RoleUser)

		_, err := f.svc.GetProfile(context.Background(), "Bearer u", GetProfileRequest{UserID: adminID})
		assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
		assert.Equal(t, "Only admins can view other user profiles", apperr.From(err).Message)
		f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
		assert.Equal(t, []string{audit.TypeAccessDenied}, f.audit.types())
	})

	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleSuperAdmin} {
		t.Run(string(role)+" allowed", func(t *testing.T) {
			f := newFixture()
			f.caller("a", adminID, role)
			f.repo.On("GetByID", mock.Anything, userID).Return(&profile.Profile{ID: userID}, nil)

			p, err := f.svc.GetProfile(context.Background(), "Bearer a", GetProfileRequest{UserID: userID})
			require.NoError(t, err)
			assert.Equal(t, userID, p.ID)
			assert.Equal(t, []string{audit.TypeProfileViewed}, f.audit.types())
		})
	}
}

func TestService_GetProfile_Failures(t *testing.T) {
	t.Run("invalid id", func(t *testing.T) {
		f := newFixture()
		f.auth.On("Verify", mock.Anything, "Bearer a").Return(adminID, nil)

		_, err := f.svc.GetProfile(context.Background(), "Bearer a", GetProfileRequest{UserID: "x&role=eq.user"})
		assert.True(t, apperr.HasCode(err, apperr.CodeInvalidRequest))
		assert.Equal(t, "Invalid userId", apperr.From(err).Message)
		f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.caller("a", adminID, authz.RoleAdmin)
		f.repo.On("GetByID", mock.Anything, userID).Return(nil, profile.ErrNotFound)

		_, err := f.svc.GetProfile(context.Background(), "Bearer a", GetProfileRequest{UserID: userID})
		assert.True(t, apperr.HasCode(err, apperr.CodeProfileNotFound))
		assert.Equal(t, "Profile not found", apperr.From(err).Message)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.auth.On("Verify", mock.Anything, "Bearer u").Return(userID, nil)
		f.repo.On("GetByID", mock.Anything, userID).Return(nil, &upstreamError{text: "relation does not exist"})

		_, err := f.svc.GetProfile(context.Background(), "Bearer u", GetProfileRequest{})
		assert.True(t, apperr.HasCode(err, apperr.CodeProfileLookupFailed))
		assert.Equal(t, "Failed to fetch profile: relation does not exist", apperr.From(err).Message)
	})

	t.Run("requester lookup failure", func(t *testing.T) {
		f := newFixture()
		f.auth.On("Verify", mock.Anything, "Bearer a").Return(adminID, nil)
		f.repo.On("GetRole", mock.Anything, adminID).Return(authz.Role(""), errors.New("503"))

		_, err := f.svc.GetProfile(context.Background(), "Bearer a", GetProfileRequest{UserID: userID})
		assert.True(t, apperr.HasCode(err, apperr.CodeProfileLookupFailed))
		assert.Equal(t, "Failed to verify requester profile", apperr.From(err).Message)
	})
}

// TestPurpose: Validates that self-modification is refused even for a super admin.
// Scope: Unit Test
// Security: Prevents an administrator from changing their own status or role
// Expected: FORBIDDEN before any privilege lookup or store write.
// Test Case ID: ACC-10
func TestService_UpdateStatus_SelfDenied(t *testing.T) {
	f := newFixture()
	f.auth.On("Verify", mock.Anything, "Bearer su").Return(superAdminID, nil)

	_, err := f.svc.UpdateStatus(context.Background(), "Bearer su", UpdateStatusRequest{
		UserID:   strings.ToUpper(superAdminID),
		IsActive: boolPtr(false),
	})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.Equal(t, "Cannot modify your own account status", apperr.From(err).Message)

	f.repo.AssertNotCalled(t, "GetRole", mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	assert.Equal(t, []string{audit.TypeAccessDenied}, f.audit.types())
}

// TestPurpose: Validates update request validation happens before any store call.
// Scope: Unit Test
// Expected: Missing userId, invalid id, no fields and unknown role are rejected without store access.
// Test Case ID: ACC-11
func TestService_UpdateStatus_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  UpdateStatusRequest
		code apperr.Code
		msg  string
	}{
		{"missing user", UpdateStatusRequest{IsActive: boolPtr(true)}, apperr.CodeMissingFields, "Missing required field: userId"},
		{"invalid user", UpdateStatusRequest{UserID: "42", IsActive: boolPtr(true)}, apperr.CodeInvalidRequest, "Invalid userId"},
		{"no fields", UpdateStatusRequest{UserID: userID}, apperr.CodeNoFieldsToUpdate, "Must provide at least one field to update: isActive or role"},
		{"empty role only", UpdateStatusRequest{UserID: userID, Role: strPtr("")}, apperr.CodeNoFieldsToUpdate, "Must provide at least one field to update: isActive or role"},
		{"bad role", UpdateStatusRequest{UserID: userID, Role: strPtr("owner")}, apperr.CodeInvalidRole, "Invalid role. Must be user, admin, or super_admin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.auth.On("Verify", mock.Anything, "Bearer su").Return(superAdminID, nil)

			_, err := f.svc.UpdateStatus(context.Background(), "Bearer su", tt.req)
			require.Error(t, err)
			assert.True(t, apperr.HasCode(err, tt.code))
			assert.Equal(t, tt.msg, apperr.From(err).Message)
			f.repo.AssertNotCalled(t, "GetRole", mock.Anything, mock.Anything)
			f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestService_UpdateStatus_AdminDenied(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	f := newFixture()
	f.caller("a", adminID, authz.RoleAdmin)

	_, err := f.svc.UpdateStatus(context.Background(), "Bearer a", UpdateStatusRequest{UserID: userID, IsActive: boolPtr(false)})
	assert.True(t, apperr.HasCode(err, apperr.CodeForbidden))
	assert.Equal(t, "Only super admins can update user accounts", apperr.From(err).Message)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "account operation denied", entry["msg"])
	assert.Equal(t, adminID, entry["user_id"])
	assert.Equal(t, "admin", entry["role"])
	assert.Equal(t, userID, entry["target_id"])
	assert.Equal(t, string(authz.OpUpdateStatus), entry["operation"])
}

// TestPurpose: Validates the partial update payload and its outcomes.
// Scope: Unit Test
// Expected: Only present fields plus updated_at are sent; zero rows is USER_NOT_FOUND; store error is PROFILE_UPDATE_FAILED.
// Test Case ID: ACC-12
func TestService_UpdateStatus_Apply(t *testing.T) {
	t.Run("deactivate", func(t *testing.T) {
		f := newFixture()
		f.caller("su", superAdminID, authz.RoleSuperAdmin)
		f.repo.On("UpdateStatus", mock.Anything, userID, profile.StatusUpdate{
			IsActive:  boolPtr(false),
			UpdatedAt: fixedNow,
		}).Return(&profile.Profile{ID: userID, IsActive: false, UpdatedAt: fixedNow}, nil).Once()

		p, err := f.svc.UpdateStatus(context.Background(), "Bearer su", UpdateStatusRequest{UserID: userID, IsActive: boolPtr(false)})
		require.NoError(t, err)
		assert.False(t, p.IsActive)
		assert.Equal(t, fixedNow, p.UpdatedAt)

		ev := f.audit.last()
		assert.Equal(t, audit.TypeUserStatusUpdated, ev.Type)
		assert.Equal(t, false, ev.Metadata[audit.AttrIsActive])
		assert.NotContains(t, ev.Metadata, audit.AttrRole)
		f.repo.AssertExpectations(t)
	})

	t.Run("promote", func(t *testing.T) {
		f := newFixture()
		f.caller("su", superAdminID, authz.RoleSuperAdmin)
		f.repo.On("UpdateStatus", mock.Anything, userID, profile.StatusUpdate{
			Role:      rolePtr(authz.RoleAdmin),
			UpdatedAt: fixedNow,
		}).Return(&profile.Profile{ID: userID, Role: authz.RoleAdmin}, nil).Once()

		p, err := f.svc.UpdateStatus(context.Background(), "Bearer su", UpdateStatusRequest{UserID: userID, Role: strPtr("admin")})
		require.NoError(t, err)
		assert.Equal(t, authz.RoleAdmin, p.Role)
	})

	t.Run("not found", func(t *testing.T) {
		f := newFixture()
		f.caller("su", superAdminID, authz.RoleSuperAdmin)
		f.repo.On("UpdateStatus", mock.Anything, userID, mock.Anything).Return(nil, profile.ErrNotFound)

		_, err := f.svc.UpdateStatus(context.Background(), "Bearer su", UpdateStatusRequest{UserID: userID, IsActive: boolPtr(true)})
		assert.True(t, apperr.HasCode(err, apperr.CodeUserNotFound))
		assert.Equal(t, "User not found", apperr.From(err).Message)
	})

	t.Run("store failure", func(t *testing.T) {
		f := newFixture()
		f.caller("su", superAdminID, authz.RoleSuperAdmin)
		f.repo.On("UpdateStatus", mock.Anything, userID, mock.Anything).Return(nil, &upstreamError{text: "invalid input value for enum"})

		_, err := f.svc.UpdateStatus(context.Background(), "Bearer su", UpdateStatusRequest{UserID: userID, IsActive: boolPtr(true)})
		assert.True(t, apperr.HasCode(err, apperr.CodeProfileUpdateFailed))
		assert.Equal(t, "Failed to update profile: invalid input value for enum", apperr.From(err).Message)
	})
}
