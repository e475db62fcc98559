// Copyright 2026 The Timesheet Authors
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
	"errors"
	"fmt"
	"strings"
)

// Domain errors
var (
	ErrDenied      = errors.New("access denied")
	ErrInvalidRole = errors.New("invalid role")
)

// Role is the authorization role carried by every user.
type Role string

// Action names an operation the guard can be asked about.
type Action string

// Scope qualifies a policy entry. ScopeAny allows the action on every
// resource in the tenant; ScopeOwn only on resources whose owner is the actor.
type Scope string

const (
	ScopeAny Scope = "any"
	ScopeOwn Scope = "own"
)

// Policy is one row of the (role, action) table.
type Policy struct {
	Role   Role
	Action Action
	Scope  Scope
}

// ParseRole converts a stored or submitted role name into a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsManagerial reports whether the role acts tenant-wide rather than only on
// its own records.
func (r Role) IsManagerial() bool {
	return r == RoleSuperAdmin || r == RoleAdmin || r == RoleManager
}

// rank orders roles for grant checks only. It does not imply inherited
// permissions; those come from the policy table alone.
func (r Role) rank() int {
	switch r {
	case RoleSuperAdmin:
		return 4
	case RoleAdmin:
		return 3
	case RoleManager:
		return 2
	case RoleEmployee:
		return 1
	}
	return 0
}

// CanGrant reports whether a user holding r may assign target to someone.
func (r Role) CanGrant(target Role) bool {
	return target.Valid() && r.rank() >= target.rank()
}

func (a Action) String() string { return string(a) }

// DeniedError is returned for every negative authorization decision.
type DeniedError struct {
	Role   Role
	Action Action
	Reason string
}

func (e *DeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// Is makes errors.Is(err, ErrDenied) hold for every DeniedError.
func (e *DeniedError) Is(target error) bool {
	return target == ErrDenied
}

// Deny builds a DeniedError with a free-form reason.
func Deny(role Role, action Action, reason string) error {
	return &DeniedError{Role: role, Action: action, Reason: reason}
}
