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
	"sync"
	"time"

	"github.com/opentrusty/account-admin/internal/audit"
	"github.com/opentrusty/account-admin/internal/authz"
	"github.com/opentrusty/account-admin/internal/identity"
	"github.com/opentrusty/account-admin/internal/profile"
	"github.com/stretchr/testify/mock"
)

type mockAuth struct {
	mock.Mock
}

func (m *mockAuth) Verify(ctx context.Context, authorization string) (string, error) {
	args := m.Called(ctx, authorization)
	return args.String(0), args.Error(1)
}

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) CurrentUser(ctx context.Context, token string) (*identity.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *mockProvider) CreateUser(ctx context.Context, user identity.NewUser) (*identity.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *mockProvider) DeleteUser(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetRole(ctx context.Context, id string) (authz.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(authz.Role), args.Error(1)
}

func (m *mockRepository) GetByID(ctx context.Context, id string) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockRepository) Create(ctx context.Context, p profile.NewProfile) (*profile.Profile, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockRepository) UpdateStatus(ctx context.Context, id string, u profile.StatusUpdate) (*profile.Profile, error) {
	args := m.Called(ctx, id, u)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockRepository) HasRole(ctx context.Context, role authz.Role) (bool, error) {
	args := m.Called(ctx, role)
	return args.Bool(0), args.Error(1)
}

// recordingAudit keeps every logged event
type recordingAudit struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *recordingAudit) Log(_ context.Context, event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingAudit) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recordingAudit) last() audit.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

// upstreamError mimics a backend error carrying the upstream text
type upstreamError struct {
	text string
}

func (e *upstreamError) Error() string  { return "backend returned 409: " + e.text }
func (e *upstreamError) Detail() string { return e.text }

type fixture struct {
	auth     *mockAuth
	provider *mockProvider
	repo     *mockRepository
	audit    *recordingAudit
	svc      *Service
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		auth:     new(mockAuth),
		provider: new(mockProvider),
		repo:     new(mockRepository),
		audit:    &recordingAudit{},
	}
	f.svc = NewService(f.auth, f.provider, f.repo, f.audit, nil, nil)
	f.svc.now = func() time.Time { return fixedNow }
	return f
}

// caller registers a verified caller with a stored role
func (f *fixture) caller(token, id string, role authz.Role) {
	f.auth.On("Verify", mock.Anything, "Bearer "+token).Return(id, nil)
	f.repo.On("GetRole", mock.Anything, id).Return(role, nil)
}
