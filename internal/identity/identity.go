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

package identity

import (
	"context"
	"errors"

	"github.com/opentrusty/account-admin/internal/authz"
)

// Domain errors
var (
	ErrUnauthorized = errors.New("credential rejected by identity provider")
	ErrUserNotFound = errors.New("identity not found")
)

// User is an authentication identity owned by the identity provider.
// It is never mutated here.
type User struct {
	ID    string
	Email string
}

// NewUser describes an identity to create. The identity is created
// pre-confirmed and carries name, phone and role as metadata.
type NewUser struct {
	Email       string
	Password    string
	FullName    string
	PhoneNumber string
	Role        authz.Role
}

// Provider is the external identity provider
type Provider interface {
	// CurrentUser resolves the identity behind a caller's bearer token.
	// A rejected token yields ErrUnauthorized.
	CurrentUser(ctx context.Context, token string) (*User, error)

	// CreateUser creates a confirmed identity with email and password
	CreateUser(ctx context.Context, user NewUser) (*User, error)

	// DeleteUser removes an identity. Used only to compensate a failed provisioning.
	DeleteUser(ctx context.Context, id string) error
}
