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

package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opentrusty/account-admin/internal/authz"
)

// Domain errors
var (
	ErrNotFound = errors.New("profile not found")
)

// Profile is the application-level record of an identity.
// Its ID equals the identity id.
//
// A Profile decoded from JSON encodes back to the exact document it was
// decoded from, so store columns not modelled here and null values reach
// clients unchanged. Profiles built in Go encode from their fields.
type Profile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Region      *string    `json:"region"`
	Role        authz.Role `json:"role"`
	AppType     string     `json:"app_type"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	CreatedBy   *string    `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	row json.RawMessage
}

// fields is Profile without its JSON methods
type fields Profile

// UnmarshalJSON decodes the known columns and keeps the whole document
func (p *Profile) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var f fields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*p = Profile(f)
	p.row = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON returns the decoded document when there is one
func (p Profile) MarshalJSON() ([]byte, error) {
	if len(p.row) > 0 {
		return p.row, nil
	}
	return json.Marshal(fields(p))
}

// NewProfile is the row inserted for a freshly created identity.
// Timestamps are assigned by the store.
type NewProfile struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FullName    string     `json:"full_name"`
	PhoneNumber string     `json:"phone_number"`
	Region      *string    `json:"region"`
	Role        authz.Role `json:"role"`
	AppType     string     `json:"app_type"`
	IsActive    bool       `json:"is_active"`
	IsVerified  bool       `json:"is_verified"`
	CreatedBy   *string    `json:"created_by"`
}

// StatusUpdate is a partial update. Nil fields are left untouched.
type StatusUpdate struct {
	IsActive  *bool       `json:"is_active,omitempty"`
	Role      *authz.Role `json:"role,omitempty"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// Repository defines the interface for profile storage
type Repository interface {
	// GetRole returns only the stored role. Missing rows yield ErrNotFound.
	GetRole(ctx context.Context, id string) (authz.Role, error)

	// GetByID returns the full profile. Missing rows yield ErrNotFound.
	GetByID(ctx context.Context, id string) (*Profile, error)

	// Create inserts a profile and returns the stored row
	Create(ctx context.Context, p NewProfile) (*Profile, error)

	// UpdateStatus applies a partial update and returns the updated row.
	// Missing rows yield ErrNotFound.
	UpdateStatus(ctx context.Context, id string, u StatusUpdate) (*Profile, error)

	// HasRole reports whether any profile holds role
	HasRole(ctx context.Context, role authz.Role) (bool, error)
}
