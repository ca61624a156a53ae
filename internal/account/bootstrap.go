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
	"fmt"

	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
)

const defaultBootstrapName = "Super Admin"

// BootstrapConfig describes the first super admin
type BootstrapConfig struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
}

// BootstrapService creates the first super admin of an empty installation
type BootstrapService struct {
	service *Service
	cfg     BootstrapConfig
}

// NewBootstrapService creates a new bootstrap service
func NewBootstrapService(service *Service, cfg BootstrapConfig) *BootstrapService {
	return &BootstrapService{service: service, cfg: cfg}
}

// Bootstrap provisions the configured super admin unless one already exists.
// It reports whether an account was created.
func (b *BootstrapService) Bootstrap(ctx context.Context) (bool, error) {
	if b.cfg.Email == "" {
		return false, nil
	}
	if b.cfg.Password == "" {
		return false, errors.New("bootstrap password is required when a bootstrap email is set")
	}

	exists, err := b.service.profiles.HasRole(ctx, authz.RoleSuperAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to check for existing super admin: %w", err)
	}
	if exists {
		return false, nil
	}

	name := b.cfg.FullName
	if name == "" {
		name = defaultBootstrapName
	}

	req := CreateAdminRequest{
		Email:       b.cfg.Email,
		Password:    b.cfg.Password,
		FullName:    name,
		PhoneNumber: b.cfg.PhoneNumber,
		Role:        authz.RoleSuperAdmin.String(),
	}
	p, err := b.service.createAccount(ctx, audit.ActorSystemBootstrap, nil, req, authz.RoleSuperAdmin)
	if err != nil {
		return false, fmt.Errorf("failed to bootstrap super admin (state %s): %w", p.State, err)
	}

	b.service.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeSuperAdminBootstrap,
		ActorID:  audit.ActorSystemBootstrap,
		TargetID: p.Identity.ID,
		Resource: audit.ResourceIdentity,
		Metadata: map[string]any{audit.AttrEmail: b.cfg.Email},
	})
	return true, nil
}
