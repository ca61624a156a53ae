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

package backend

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/profile"
)

const pathProfiles = "/rest/v1/profiles"

var errNoRepresentation = errors.New("store returned no row")

// ProfileStore implements profile.Repository over the REST interface.
// Returned profiles encode to the rows exactly as the store sent them.
type ProfileStore struct {
	client *Client
}

// NewProfileStore creates a new REST profile repository
func NewProfileStore(client *Client) *ProfileStore {
	return &ProfileStore{client: client}
}

var _ profile.Repository = (*ProfileStore)(nil)

func byID(id string, columns string) url.Values {
	q := url.Values{}
	q.Set("id", "eq."+id)
	if columns != "" {
		q.Set("select", columns)
	}
	return q
}

// GetRole returns the stored role of a profile
func (s *ProfileStore) GetRole(ctx context.Context, id string) (authz.Role, error) {
	var rows []struct {
		Role authz.Role `json:"role"`
	}
	if err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   pathProfiles,
		query:  byID(id, "role"),
	}, &rows); err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", profile.ErrNotFound
	}
	return rows[0].Role, nil
}

// GetByID returns a full profile. The row keeps every stored column.
func (s *ProfileStore) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	var rows []profile.Profile
	if err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   pathProfiles,
		query:  byID(id, "*"),
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, profile.ErrNotFound
	}
	return &rows[0], nil
}

// Create inserts a profile and returns the stored representation
func (s *ProfileStore) Create(ctx context.Context, p profile.NewProfile) (*profile.Profile, error) {
	var rows []profile.Profile
	if err := s.client.do(ctx, request{
		method: http.MethodPost,
		path:   pathProfiles,
		body:   p,
		prefer: preferRepresentation,
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errNoRepresentation
	}
	return &rows[0], nil
}

// UpdateStatus patches the present fields and returns the updated row
func (s *ProfileStore) UpdateStatus(ctx context.Context, id string, u profile.StatusUpdate) (*profile.Profile, error) {
	var rows []profile.Profile
	if err := s.client.do(ctx, request{
		method: http.MethodPatch,
		path:   pathProfiles,
		query:  byID(id, ""),
		body:   u,
		prefer: preferRepresentation,
	}, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, profile.ErrNotFound
	}
	return &rows[0], nil
}

// HasRole reports whether at least one profile holds role
func (s *ProfileStore) HasRole(ctx context.Context, role authz.Role) (bool, error) {
	q := url.Values{}
	q.Set("role", "eq."+role.String())
	q.Set("select", "id")
	q.Set("limit", "1")

	var rows []struct {
		ID string `json:"id"`
	}
	if err := s.client.do(ctx, request{
		method: http.MethodGet,
		path:   pathProfiles,
		query:  q,
	}, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}
