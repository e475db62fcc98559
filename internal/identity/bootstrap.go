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

package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

// ErrBootstrapConflict is returned when the bootstrap email belongs to a user
// that is not a SUPER_ADMIN.
var ErrBootstrapConflict = errors.New("bootstrap email is registered to a non super admin")

// BootstrapConfig names the initial platform operator.
type BootstrapConfig struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// Bootstrap provisions the first SUPER_ADMIN inside the platform tenant. It
// is idempotent: an existing SUPER_ADMIN with the same email is returned
// unchanged. An empty email skips bootstrap.
func (s *Service) Bootstrap(ctx context.Context, cfg BootstrapConfig) (*user.User, error) {
	if cfg.Email == "" {
		return nil, nil
	}
	email := user.NormalizeEmail(cfg.Email)

	existing, err := s.directory.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if existing.Role != authz.RoleSuperAdmin {
			return nil, ErrBootstrapConflict
		}
		return existing, nil
	case !errors.Is(err, user.ErrUserNotFound):
		return nil, fmt.Errorf("failed to check bootstrap user: %w", err)
	}

	platform, err := s.tenantRepo.GetBySubdomain(ctx, tenant.PlatformSubdomain)
	if errors.Is(err, tenant.ErrTenantNotFound) {
		platform, err = s.tenants.CreateTenant(ctx, "Platform", tenant.PlatformSubdomain)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to prepare platform tenant: %w", err)
	}

	firstName, lastName := cfg.FirstName, cfg.LastName
	if firstName == "" {
		firstName = "Platform"
	}
	if lastName == "" {
		lastName = "Administrator"
	}
	admin, err := s.users.Provision(ctx, platform.ID, user.CreateCommand{
		Email:     email,
		Password:  cfg.Password,
		FirstName: firstName,
		LastName:  lastName,
		Role:      authz.RoleSuperAdmin,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to provision super admin: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeSuperAdminBootstrapped,
		TenantID:   platform.ID.String(),
		ActorID:    audit.ActorSystem,
		EntityType: audit.EntityUser,
		EntityID:   admin.ID.String(),
		Metadata:   map[string]any{"email": email},
	})
	s.log.InfoContext(ctx, "bootstrapped super admin",
		logger.Email(email), logger.TenantID(platform.ID.String()))
	return admin, nil
}
