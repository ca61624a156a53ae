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

package authz

import (
	"github.com/opentrusty/account-admin/internal/apperr"
)

// Operation names a gated action
type Operation string

const (
	OpCreateAdmin      Operation = "create_admin"
	OpReadOtherProfile Operation = "read_other_profile"
	OpUpdateStatus     Operation = "update_status"
)

// Matrix maps each gated operation to the roles allowed to perform it.
// Reading one's own profile is not gated.
var Matrix = map[Operation][]Role{
	OpCreateAdmin:      {RoleSuperAdmin},
	OpReadOtherProfile: {RoleAdmin, RoleSuperAdmin},
	OpUpdateStatus:     {RoleSuperAdmin},
}

var denyMessages = map[Operation]string{
	OpCreateAdmin:      "Only super admins can create admin accounts",
	OpReadOtherProfile: "Only admins can view other user profiles",
	OpUpdateStatus:     "Only super admins can update user accounts",
}

const (
	msgSelfModification = "Cannot modify your own account status"
	msgInvalidAdminRole = "Role must be either admin or super_admin"
	msgInvalidRole      = "Invalid role. Must be user, admin, or super_admin"
	msgNoFieldsToUpdate = "Must provide at least one field to update: isActive or role"
)

// Allows reports whether role may perform op
func Allows(role Role, op Operation) bool {
	return role.in(Matrix[op])
}

// Authorize returns a FORBIDDEN error unless role may perform op
func Authorize(role Role, op Operation) error {
	if Allows(role, op) {
		return nil
	}
	msg, ok := denyMessages[op]
	if !ok {
		msg = "Access denied"
	}
	return apperr.New(apperr.CodeForbidden, msg)
}

// IsSelf reports whether a request targets the caller. An empty target means self.
func IsSelf(callerID, targetID string) bool {
	return targetID == "" || targetID == callerID
}

// ForbidSelfModification denies status changes a caller makes to their own account.
// It applies regardless of role.
func ForbidSelfModification(callerID, targetID string) error {
	if callerID == targetID {
		return apperr.New(apperr.CodeForbidden, msgSelfModification)
	}
	return nil
}

// ParseAdminRole validates the role requested for a new admin account.
func ParseAdminRole(s string) (Role, error) {
	r := Role(s)
	if !r.IsAdmin() {
		return "", apperr.New(apperr.CodeInvalidRole, msgInvalidAdminRole)
	}
	return r, nil
}

// ParseAssignableRole validates a role requested in a status update.
func ParseAssignableRole(s string) (Role, error) {
	r, ok := ParseRole(s)
	if !ok {
		return "", apperr.New(apperr.CodeInvalidRole, msgInvalidRole)
	}
	return r, nil
}

// RequireStatusFields rejects a status update carrying neither field.
func RequireStatusFields(hasActive, hasRole bool) error {
	if !hasActive && !hasRole {
		return apperr.New(apperr.CodeNoFieldsToUpdate, msgNoFieldsToUpdate)
	}
	return nil
}
