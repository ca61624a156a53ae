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
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/opentrusty/account-admin/internal/apperr"
)

const (
	msgNoAuthorization = "No authorization header"
	msgInvalidToken    = "Invalid token or unauthorized"
)

// Verifier resolves a caller's identity id from a bearer credential.
// Every account operation runs it first.
type Verifier struct {
	provider Provider
	parser   *jwt.Parser
	now      func() time.Time
}

// NewVerifier creates a new identity verifier
func NewVerifier(provider Provider) *Verifier {
	return &Verifier{
		provider: provider,
		parser:   jwt.NewParser(),
		now:      time.Now,
	}
}

// Verify returns the caller identity id for an Authorization header value.
// Malformed or expired tokens are rejected locally; the identity provider
// is the authority for everything else.
func (v *Verifier) Verify(ctx context.Context, authorization string) (string, error) {
	if strings.TrimSpace(authorization) == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, msgNoAuthorization)
	}

	token, ok := BearerToken(authorization)
	if !ok {
		return "", apperr.New(apperr.CodeUnauthenticated, msgInvalidToken)
	}

	if err := v.prescreen(token); err != nil {
		return "", apperr.Wrap(apperr.CodeUnauthenticated, msgInvalidToken, err)
	}

	user, err := v.provider.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", apperr.Wrap(apperr.CodeUnauthenticated, msgInvalidToken, err)
		}
		return "", apperr.Wrap(apperr.CodeInternal, "Failed to verify credential", err)
	}
	if user == nil || user.ID == "" {
		return "", apperr.New(apperr.CodeUnauthenticated, msgInvalidToken)
	}

	return user.ID, nil
}

// prescreen parses the token without verifying its signature
func (v *Verifier) prescreen(token string) error {
	claims := jwt.MapClaims{}
	if _, _, err := v.parser.ParseUnverified(token, claims); err != nil {
		return err
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return err
	}
	if exp != nil && !exp.After(v.now()) {
		return jwt.ErrTokenExpired
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(authorization string) (string, bool) {
	parts := strings.SplitN(strings.TrimSpace(authorization), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", false
	}
	return token, true
}
