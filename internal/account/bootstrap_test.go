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
	"testing"

	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates first super admin provisioning on an empty installation.
// Scope: Unit Test
// Security: Bootstrap never runs when a super admin already exists
// Expected: Creates a super_admin with no creator once; later runs are no-ops.
// Test Case ID: ACC-13
func TestBootstrap(t *testing.T) {
	ctx := context.Background()
	cfg := BootstrapConfig{Email: "root@x.io", Password: "initial-pass", PhoneNumber: "+1"}

	t.Run("disabled", func(t *testing.T) {
		f := newFixture()
		created, err := NewBootstrapService(f.svc, BootstrapConfig{}).Bootstrap(ctx)
		require.NoError(t, err)
		assert.False(t, created)
		f.repo.AssertNotCalled(t, "HasRole", mock.Anything, mock.Anything)
	})

	t.Run("password required", func(t *testing.T) {
		f := newFixture()
		_, err := NewBootstrapService(f.svc, BootstrapConfig{Email: "root@x.io"}).Bootstrap(ctx)
		assert.Error(t, err)
	})

	t.Run("already bootstrapped", func(t *testing.T) {
		f := newFixture()
		f.repo.On("HasRole", mock.Anything, authz.RoleSuperAdmin).Return(true, nil)

		created, err := NewBootstrapService(f.svc, cfg).Bootstrap(ctx)
		require.NoError(t, err)
		assert.False(t, created)
		f.provider.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("creates super admin", func(t *testing.T) {
		f := newFixture()
		f.repo.On("HasRole", mock.Anything, authz.RoleSuperAdmin).Return(false, nil)
		f.provider.On("CreateUser", mock.Anything, identity.NewUser{
			Email: "root@x.io", Password: "initial-pass", FullName: "Super Admin", PhoneNumber: "+1", Role: authz.RoleSuperAdmin,
		}).Return(&identity.User{ID: newID, Email: "root@x.io"}, nil)
		f.repo.On("Create", mock.Anything, mock.MatchedBy(func(p profile.NewProfile) bool {
			return p.CreatedBy == nil && p.Role == authz.RoleSuperAdmin && p.AppType == "super_admin"
		})).Return(&profile.Profile{ID: newID}, nil)

		created, err := NewBootstrapService(f.svc, cfg).Bootstrap(ctx)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, []string{audit.TypeAdminCreated, audit.TypeSuperAdminBootstrap}, f.audit.types())
		assert.Equal(t, audit.ActorSystemBootstrap, f.audit.last().ActorID)
	})

	t.Run("rolls back on profile failure", func(t *testing.T) {
		f := newFixture()
		f.repo.On("HasRole", mock.Anything, authz.RoleSuperAdmin).Return(false, nil)
		f.provider.On("CreateUser", mock.Anything, mock.Anything).Return(&identity.User{ID: newID}, nil)
		f.repo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("no table"))
		f.provider.On("DeleteUser", mock.Anything, newID).Return(nil).Once()

		created, err := NewBootstrapService(f.svc, cfg).Bootstrap(ctx)
		assert.Error(t, err)
		assert.False(t, created)
		assert.Contains(t, err.Error(), "compensated")
		f.provider.AssertExpectations(t)
	})
}
