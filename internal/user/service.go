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
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// CreateCommand carries the fields of a new user.
type CreateCommand struct {
	Email       string          `json:"email" validate:"required,email,max=255"`
	Password    string          `json:"password" validate:"required,min=6,max=128"`
	FirstName   string          `json:"first_name" validate:"required,max=100"`
	LastName    string          `json:"last_name" validate:"required,max=100"`
	PhoneNumber string          `json:"phone_number" validate:"max=32"`
	Role        authz.Role      `json:"role" validate:"required,oneof=SUPER_ADMIN ADMIN MANAGER EMPLOYEE"`
	HourlyRate  decimal.Decimal `json:"hourly_rate"`
}

// UpdateCommand changes only the non-nil fields. A non-nil Password replaces
// the stored hash.
type UpdateCommand struct {
	Email       *string
	Password    *string
	FirstName   *string
	LastName    *string
	PhoneNumber *string
	Role        *authz.Role
	HourlyRate  *decimal.Decimal
}

// Service provides user management business logic
type Service struct {
	users       Store
	directory   Directory
	tenants     TenantLookup
	hasher      Hasher
	guard       *authz.Guard
	auditLogger audit.Logger
}

// NewService creates a new user service
func NewService(users Store, directory Directory, tenants TenantLookup, hasher Hasher, guard *authz.Guard, auditLogger audit.Logger) *Service {
	return &Service{
		users:       users,
		directory:   directory,
		tenants:     tenants,
		hasher:      hasher,
		guard:       guard,
		auditLogger: auditLogger,
	}
}

// List returns every user of the active tenant.
func (s *Service) List(ctx context.Context, filter Filter, page store.Page) (store.Result[*User], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*User]{}, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserRead, uuid.Nil, rc.UserID()); err != nil {
		return store.Result[*User]{}, err
	}
	return s.users.List(ctx, rc.TenantID(), filter, page)
}

// ListActive returns the active users of the tenant; any role may call it.
func (s *Service) ListActive(ctx context.Context, page store.Page) (store.Result[*User], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*User]{}, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserReadActive, uuid.Nil, rc.UserID()); err != nil {
		return store.Result[*User]{}, err
	}
	return s.users.List(ctx, rc.TenantID(), Filter{ActiveOnly: true}, page)
}

// Get returns one user. Employees may only read themselves.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserRead, id, rc.UserID()); err != nil {
		return nil, err
	}
	return s.users.FindByID(ctx, rc.TenantID(), id)
}

// Create adds a user to the active tenant.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*User, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserCreate, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}
	if !rc.Role().CanGrant(cmd.Role) {
		return nil, authz.Deny(rc.Role(), authz.ActionUserCreate, fmt.Sprintf("may not grant role %s", cmd.Role))
	}

	u, err := s.Provision(ctx, rc.TenantID(), cmd)
	if err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeUserCreated,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityUser,
		EntityID:   u.ID.String(),
		Metadata:   map[string]any{"role": string(u.Role)},
	})
	return u, nil
}

// Provision creates a user without an acting identity. Registration and
// bootstrap use it; the tenant quota and email uniqueness still apply.
func (s *Service) Provision(ctx context.Context, tenantID uuid.UUID, cmd CreateCommand) (*User, error) {
	cmd, err := Prepare(cmd)
	if err != nil {
		return nil, err
	}

	if err := s.ensureEmailFree(ctx, cmd.Email, uuid.Nil); err != nil {
		return nil, err
	}
	if err := s.ensureSeat(ctx, tenantID); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(cmd.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        cmd.Email,
		FirstName:    cmd.FirstName,
		LastName:     cmd.LastName,
		PhoneNumber:  cmd.PhoneNumber,
		Role:         cmd.Role,
		HourlyRate:   cmd.HourlyRate,
		IsActive:     true,
		PasswordHash: hash,
	}
	return s.users.Save(ctx, tenantID, u)
}

// Prepare normalizes cmd and validates it without touching storage.
func Prepare(cmd CreateCommand) (CreateCommand, error) {
	cmd.Email = NormalizeEmail(cmd.Email)
	cmd.FirstName = strings.TrimSpace(cmd.FirstName)
	cmd.LastName = strings.TrimSpace(cmd.LastName)
	cmd.PhoneNumber = strings.TrimSpace(cmd.PhoneNumber)
	if err := validation.Struct(cmd); err != nil {
		return cmd, err
	}
	if cmd.HourlyRate.IsNegative() {
		return cmd, validation.New("hourly_rate", "must not be negative")
	}
	return cmd, nil
}

// Update changes profile fields, password, role or rate.
func (s *Service) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*User, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserUpdate, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}

	u, err := s.users.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if !rc.Role().CanGrant(u.Role) {
		return nil, authz.Deny(rc.Role(), authz.ActionUserUpdate, "may not modify a user with a higher role")
	}

	changed := []string{}
	if cmd.Email != nil {
		email := NormalizeEmail(*cmd.Email)
		if err := validation.Struct(struct {
			Email string `json:"email" validate:"required,email,max=255"`
		}{email}); err != nil {
			return nil, err
		}
		if email != u.Email {
			if err := s.ensureEmailFree(ctx, email, u.ID); err != nil {
				return nil, err
			}
			u.Email = email
			changed = append(changed, "email")
		}
	}
	if cmd.FirstName != nil {
		if strings.TrimSpace(*cmd.FirstName) == "" {
			return nil, validation.New("first_name", "is required")
		}
		u.FirstName = strings.TrimSpace(*cmd.FirstName)
		changed = append(changed, "first_name")
	}
	if cmd.LastName != nil {
		if strings.TrimSpace(*cmd.LastName) == "" {
			return nil, validation.New("last_name", "is required")
		}
		u.LastName = strings.TrimSpace(*cmd.LastName)
		changed = append(changed, "last_name")
	}
	if cmd.PhoneNumber != nil {
		phone := strings.TrimSpace(*cmd.PhoneNumber)
		if len(phone) > 32 {
			return nil, validation.New("phone_number", "must be at most 32")
		}
		u.PhoneNumber = phone
		changed = append(changed, "phone_number")
	}
	if cmd.Password != nil {
		if err := validation.Struct(struct {
			Password string `json:"password" validate:"min=6,max=128"`
		}{*cmd.Password}); err != nil {
			return nil, err
		}
		hash, err := s.hasher.Hash(*cmd.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
		changed = append(changed, "password")
	}
	if cmd.Role != nil && *cmd.Role != u.Role {
		if !cmd.Role.Valid() {
			return nil, validation.New("role", "must be one of SUPER_ADMIN ADMIN MANAGER EMPLOYEE")
		}
		if !rc.Role().CanGrant(*cmd.Role) {
			return nil, authz.Deny(rc.Role(), authz.ActionUserUpdate, fmt.Sprintf("may not grant role %s", *cmd.Role))
		}
		if u.ID == rc.UserID() {
			return nil, authz.Deny(rc.Role(), authz.ActionUserUpdate, "may not change own role")
		}
		u.Role = *cmd.Role
		changed = append(changed, "role")
	}
	if cmd.HourlyRate != nil {
		if cmd.HourlyRate.IsNegative() {
			return nil, validation.New("hourly_rate", "must not be negative")
		}
		u.HourlyRate = *cmd.HourlyRate
		changed = append(changed, "hourly_rate")
	}

	if _, err := s.users.Save(ctx, rc.TenantID(), u); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeUserUpdated,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityUser,
		EntityID:   u.ID.String(),
		Metadata:   map[string]any{"fields": changed},
	})
	return u, nil
}

// Deactivate soft-deletes a user. The row stays so historical time entries
// keep their submitter.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserDelete, uuid.Nil, rc.UserID()); err != nil {
		return err
	}
	if id == rc.UserID() {
		return authz.Deny(rc.Role(), authz.ActionUserDelete, "may not deactivate own account")
	}

	u, err := s.users.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return err
	}
	if !u.IsActive {
		return nil
	}
	u.IsActive = false
	if _, err := s.users.Save(ctx, rc.TenantID(), u); err != nil {
		return err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeUserDeactivated,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityUser,
		EntityID:   id.String(),
	})
	return nil
}

// ToggleStatus flips IsActive. Reactivation needs a free seat.
func (s *Service) ToggleStatus(ctx context.Context, id uuid.UUID) (*User, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionUserToggle, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}
	if id == rc.UserID() {
		return nil, authz.Deny(rc.Role(), authz.ActionUserToggle, "may not change own status")
	}

	u, err := s.users.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		if err := s.ensureSeat(ctx, rc.TenantID()); err != nil {
			return nil, err
		}
	}
	u.IsActive = !u.IsActive
	if _, err := s.users.Save(ctx, rc.TenantID(), u); err != nil {
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeUserStatusToggled,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityUser,
		EntityID:   id.String(),
		Metadata:   map[string]any{"is_active": u.IsActive},
	})
	return u, nil
}

// ensureEmailFree fails unless email is unused or used by self.
func (s *Service) ensureEmailFree(ctx context.Context, email string, self uuid.UUID) error {
	existing, err := s.directory.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, ErrUserNotFound):
		return nil
	case err != nil:
		return fmt.Errorf("failed to check email: %w", err)
	case existing.ID == self:
		return nil
	default:
		return ErrEmailTaken
	}
}

// ensureSeat counts active users against the tenant's MaxUsers.
func (s *Service) ensureSeat(ctx context.Context, tenantID uuid.UUID) error {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	active, err := s.users.List(ctx, tenantID, Filter{ActiveOnly: true}, store.Page{Size: 1})
	if err != nil {
		return err
	}
	if active.Total >= t.MaxUsers {
		return fmt.Errorf("%w: %d of %d seats in use", ErrUserLimitReached, active.Total, t.MaxUsers)
	}
	return nil
}
