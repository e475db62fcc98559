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

package user

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
)

// Kind names users in store errors.
const Kind = "user"

// Domain errors
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrEmailTaken       = errors.New("email already registered")
	ErrUserLimitReached = errors.New("tenant user limit reached")
)

// User is a tenant member. Users are never physically removed; IsActive=false
// is the soft delete.
type User struct {
	store.Meta
	Email        string          `json:"email"`
	FirstName    string          `json:"first_name"`
	LastName     string          `json:"last_name"`
	PhoneNumber  string          `json:"phone_number,omitempty"`
	Role         authz.Role      `json:"role"`
	HourlyRate   decimal.Decimal `json:"hourly_rate"`
	IsActive     bool            `json:"is_active"`
	PasswordHash string          `json:"-"`
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	c := *u
	return &c
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Filter narrows user listings within a tenant.
type Filter struct {
	ActiveOnly bool
	Role       authz.Role
	IDs        []uuid.UUID
}

// Matches applies the filter in memory.
func (f Filter) Matches(u *User) bool {
	if f.ActiveOnly && !u.IsActive {
		return false
	}
	if f.Role != "" && u.Role != f.Role {
		return false
	}
	if len(f.IDs) > 0 {
		for _, id := range f.IDs {
			if id == u.ID {
				return true
			}
		}
		return false
	}
	return true
}

// Store is the tenant-scoped user table.
type Store = store.Scoped[*User, Filter]

// Directory answers the one question that must be asked before a tenant is
// known: which user owns this email. Emails are unique across all tenants.
type Directory interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// TenantLookup reads the tenant quota.
type TenantLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
}

// Hasher hashes passwords for storage.
type Hasher interface {
	Hash(password string) (string, error)
}

// NormalizeEmail is the canonical form used for storage and lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
