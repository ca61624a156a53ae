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
	"fmt"
	"net/http"
	"net/url"

	"github.com/opentrusty/account-admin/internal/identity"
)

const (
	pathCurrentUser = "/auth/v1/user"
	pathAdminUsers  = "/auth/v1/admin/users"
)

// AuthAdmin implements identity.Provider over the auth API
type AuthAdmin struct {
	client *Client
}

// NewAuthAdmin creates a new identity provider adapter
func NewAuthAdmin(client *Client) *AuthAdmin {
	return &AuthAdmin{client: client}
}

var _ identity.Provider = (*AuthAdmin)(nil)

type authUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type createUserRequest struct {
	Email        string       `json:"email"`
	Password     string       `json:"password"`
	EmailConfirm bool         `json:"email_confirm"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userMetadata struct {
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number"`
	Role        string `json:"role"`
}

// CurrentUser resolves the caller's token. Any non-2xx answer is a rejection.
func (a *AuthAdmin) CurrentUser(ctx context.Context, token string) (*identity.User, error) {
	var u authUser
	err := a.client.do(ctx, request{
		method: http.MethodGet,
		path:   pathCurrentUser,
		bearer: token,
	}, &u)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: %w", identity.ErrUnauthorized, err)
		}
		return nil, err
	}
	return &identity.User{ID: u.ID, Email: u.Email}, nil
}

// CreateUser creates a pre-confirmed identity
func (a *AuthAdmin) CreateUser(ctx context.Context, nu identity.NewUser) (*identity.User, error) {
	var u authUser
	err := a.client.do(ctx, request{
		method: http.MethodPost,
		path:   pathAdminUsers,
		body: createUserRequest{
			Email:        nu.Email,
			Password:     nu.Password,
			EmailConfirm: true,
			UserMetadata: userMetadata{
				FullName:    nu.FullName,
				PhoneNumber: nu.PhoneNumber,
				Role:        nu.Role.String(),
			},
		},
	}, &u)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		return nil, errors.New("identity provider returned a user without id")
	}
	return &identity.User{ID: u.ID, Email: u.Email}, nil
}

// DeleteUser removes an identity
func (a *AuthAdmin) DeleteUser(ctx context.Context, id string) error {
	err := a.client.do(ctx, request{
		method: http.MethodDelete,
		path:   pathAdminUsers + "/" + url.PathEscape(id),
	}, nil)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %w", identity.ErrUserNotFound, err)
		}
		return err
	}
	return nil
}
