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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/profile"
)

const profileColumns = `id, email, full_name, phone_number, region, role, app_type,
	is_active, is_verified, created_by, created_at, updated_at`

// ProfileRepository implements profile.Repository
type ProfileRepository struct {
	db *DB
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

var _ profile.Repository = (*ProfileRepository)(nil)

func scanProfile(row pgx.Row) (*profile.Profile, error) {
	var p profile.Profile
	var role string
	err := row.Scan(
		&p.ID, &p.Email, &p.FullName, &p.PhoneNumber, &p.Region, &role, &p.AppType,
		&p.IsActive, &p.IsVerified, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Role = authz.Role(role)
	return &p, nil
}

// GetRole returns the stored role of a profile
func (r *ProfileRepository) GetRole(ctx context.Context, id string) (authz.Role, error) {
	var role string
	err := r.db.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE id = $1`, id).Scan(&role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", profile.ErrNotFound
		}
		return "", fmt.Errorf("failed to get role: %w", err)
	}
	return authz.Role(role), nil
}

// GetByID retrieves a profile by identity id
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	p, err := scanProfile(r.db.pool.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return p, nil
}

// Create inserts a profile
func (r *ProfileRepository) Create(ctx context.Context, np profile.NewProfile) (*profile.Profile, error) {
	p, err := scanProfile(r.db.pool.QueryRow(ctx, `
		INSERT INTO profiles (
			id, email, full_name, phone_number, region, role, app_type,
			is_active, is_verified, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING `+profileColumns,
		np.ID, np.Email, np.FullName, np.PhoneNumber, np.Region, string(np.Role), np.AppType,
		np.IsActive, np.IsVerified, np.CreatedBy,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert profile: %w", err)
	}
	return p, nil
}

// UpdateStatus applies a partial update. Nil fields keep their stored value.
func (r *ProfileRepository) UpdateStatus(ctx context.Context, id string, u profile.StatusUpdate) (*profile.Profile, error) {
	var role *string
	if u.Role != nil {
		s := string(*u.Role)
		role = &s
	}

	p, err := scanProfile(r.db.pool.QueryRow(ctx, `
		UPDATE profiles
		SET is_active = COALESCE($2, is_active),
			role = COALESCE($3, role),
			updated_at = $4
		WHERE id = $1
		RETURNING `+profileColumns,
		id, u.IsActive, role, u.UpdatedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, profile.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return p, nil
}

// HasRole reports whether any profile holds role
func (r *ProfileRepository) HasRole(ctx context.Context, role authz.Role) (bool, error) {
	var exists bool
	err := r.db.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM profiles WHERE role = $1)`, string(role)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check role: %w", err)
	}
	return exists, nil
}
