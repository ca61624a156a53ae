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

// -----------------------------------------------------------------------------
// Role Constants
// These are the canonical role values stored in the profiles table.
// -----------------------------------------------------------------------------

// Role is a profile's privilege level
type Role string

const (
	// RoleUser is a regular application user.
	RoleUser Role = "user"

	// RoleAdmin may view other users' profiles.
	RoleAdmin Role = "admin"

	// RoleSuperAdmin may additionally provision admins and change account status.
	RoleSuperAdmin Role = "super_admin"
)

// AllRoles lists every role in ascending privilege order.
var AllRoles = []Role{RoleUser, RoleAdmin, RoleSuperAdmin}

// AdminRoles lists the roles that can be provisioned through admin account creation.
var AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}

// ParseRole converts a stored or requested value to a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// Valid reports whether r is one of the three known roles
func (r Role) Valid() bool {
	return r.in(AllRoles)
}

// IsAdmin reports whether r is admin or super_admin
func (r Role) IsAdmin() bool {
	return r.in(AdminRoles)
}

func (r Role) String() string {
	return string(r)
}

func (r Role) in(set []Role) bool {
	for _, candidate := range set {
		if r == candidate {
			return true
		}
	}
	return false
}
