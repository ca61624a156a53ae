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

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/profile"
	"go.opentelemetry.io/otel/attribute"
)

const credentialsNote = "Share these credentials securely with the admin"

// CreateAdminRequest is the input of CreateAdmin
type CreateAdminRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	FullName    string `json:"fullName"`
	PhoneNumber string `json:"phoneNumber"`
	Region      string `json:"region,omitempty"`
	Role        string `json:"role"`
	AppType     string `json:"appType,omitempty"`
}

// CreatedUser summarises the new identity
type CreatedUser struct {
	ID    string     `json:"id"`
	Email string     `json:"email"`
	Role  authz.Role `json:"role"`
}

// Credentials echoes the initial credentials back to the creating super admin
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Note     string `json:"note"`
}

// CreateAdminResult is the output of CreateAdmin
type CreateAdminResult struct {
	User        CreatedUser      `json:"user"`
	Credentials Credentials      `json:"credentials"`
	Profile     *profile.Profile `json:"profile"`
}

func (r CreateAdminRequest) validate() (authz.Role, error) {
	if r.Email == "" || r.Password == "" || r.FullName == "" || r.PhoneNumber == "" || r.Role == "" {
		return "", apperr.New(apperr.CodeMissingFields, "Missing required fields: email, password, fullName, phoneNumber, role")
	}
	return authz.ParseAdminRole(r.Role)
}

// CreateAdmin provisions an admin or super admin account on behalf of a super admin.
func (s *Service) CreateAdmin(ctx context.Context, authorization string, req CreateAdminRequest) (result *CreateAdminResult, err error) {
	ctx, span := s.startSpan(ctx, "account.create_admin")
	defer func() { endSpan(span, err) }()

	callerID, err := s.auth.Verify(ctx, authorization)
	if err != nil {
		return nil, err
	}
	caller := &Caller{ID: callerID}

	role, err := req.validate()
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("account.role", role.String()))

	if err := s.authorize(ctx, caller, authz.OpCreateAdmin); err != nil {
		return nil, err
	}

	p, err := s.createAccount(ctx, caller.ID, &caller.ID, req, role)
	if err != nil {
		return nil, err
	}

	return &CreateAdminResult{
		User: CreatedUser{ID: p.Identity.ID, Email: req.Email, Role: role},
		Credentials: Credentials{
			Email:    req.Email,
			Password: req.Password,
			Note:     credentialsNote,
		},
		Profile: p.Profile,
	}, nil
}

// createAccount runs the provisioning saga and records its success.
// createdBy is nil for accounts created by the system.
func (s *Service) createAccount(ctx context.Context, actorID string, createdBy *string, req CreateAdminRequest, role authz.Role) (*provisioning, error) {
	appType := req.AppType
	if appType == "" {
		appType = role.String()
	}
	var region *string
	if req.Region != "" {
		region = &req.Region
	}

	p := s.provision(ctx, actorID,
		identity.NewUser{
			Email:       req.Email,
			Password:    req.Password,
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Role:        role,
		},
		profile.NewProfile{
			Email:       req.Email,
			FullName:    req.FullName,
			PhoneNumber: req.PhoneNumber,
			Region:      region,
			Role:        role,
			AppType:     appType,
			IsActive:    true,
			IsVerified:  true,
			CreatedBy:   createdBy,
		},
	)
	if p.Err != nil {
		return p, p.Err
	}

	s.metrics.AdminCreated(ctx, role.String())
	s.auditLogger.Log(ctx, audit.Event{
		Type:     audit.TypeAdminCreated,
		ActorID:  actorID,
		TargetID: p.Identity.ID,
		Resource: audit.ResourceIdentity,
		Metadata: map[string]any{
			audit.AttrEmail: req.Email,
			audit.AttrRole:  role.String(),
		},
	})
	return p, nil
}
