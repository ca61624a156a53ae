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
	"context"
	"errors"

	"github.com/opentrusty/account-admin/internal/apperr"
	"github.com/opentrusty/account-admin/internal/authz"
)

// Resolver maps an authenticated identity to its stored role
type Resolver struct {
	repo Repository
}

// NewResolver creates a new privilege resolver
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// ResolveRole returns the caller's stored role. The role is read on every
// request, so a change takes effect on the caller's next request.
func (r *Resolver) ResolveRole(ctx context.Context, identityID string) (authz.Role, error) {
	role, err := r.repo.GetRole(ctx, identityID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", apperr.Wrap(apperr.CodeProfileNotFound, "Profile not found", err)
		}
		return "", apperr.Wrap(apperr.CodeProfileLookupFailed, "Failed to verify requester profile", err)
	}
	return role, nil
}
