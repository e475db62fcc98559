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

// Package identity registers tenants, logs users in and turns bearer tokens
// back into request identities.
package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Domain errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("account is disabled")
)

// RegisterCommand creates a tenant and its first ADMIN.
type RegisterCommand struct {
	OrganizationName string `json:"organization_name" validate:"required,max=200"`
	Subdomain        string `json:"subdomain" validate:"required,subdomain"`
	Email            string `json:"email" validate:"required,email,max=255"`
	Password         string `json:"password" validate:"required,min=6,max=128"`
	FirstName        string `json:"first_name" validate:"required,max=100"`
	LastName         string `json:"last_name" validate:"required,max=100"`
}

// LoginCommand carries login credentials.
type LoginCommand struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	IPAddress string `json:"-"`
}

// Profile is the authenticated user and its tenant.
type Profile struct {
	User   *user.User     `json:"user"`
	Tenant *tenant.Tenant `json:"tenant"`
}

// AuthResult is returned by Register, Login and Refresh.
type AuthResult struct {
	TokenPair
	Profile
}

// Service provides identity-related business logic
type Service struct {
	tenants     *tenant.Service
	tenantRepo  tenant.Repository
	users       *user.Service
	userStore   user.Store
	directory   user.Directory
	hasher      *PasswordHasher
	tokens      *TokenManager
	auditLogger audit.Logger
	log         *slog.Logger
}

// NewService creates a new identity service
func NewService(
	tenants *tenant.Service,
	tenantRepo tenant.Repository,
	users *user.Service,
	userStore user.Store,
	directory user.Directory,
	hasher *PasswordHasher,
	tokens *TokenManager,
	auditLogger audit.Logger,
) *Service {
	return &Service{
		tenants:     tenants,
		tenantRepo:  tenantRepo,
		users:       users,
		userStore:   userStore,
		directory:   directory,
		hasher:      hasher,
		tokens:      tokens,
		auditLogger: auditLogger,
		log:         slog.Default().With(logger.Component("identity")),
	}
}

// Register creates a FREE tenant with the caller as its ADMIN and logs them in.
// All input is validated before the tenant is written; if the administrator
// still cannot be stored the tenant is discarded so the subdomain stays free.
func (s *Service) Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error) {
	cmd.OrganizationName = strings.TrimSpace(cmd.OrganizationName)
	cmd.Subdomain = strings.ToLower(strings.TrimSpace(cmd.Subdomain))
	cmd.Email = user.NormalizeEmail(cmd.Email)
	cmd.FirstName = strings.TrimSpace(cmd.FirstName)
	cmd.LastName = strings.TrimSpace(cmd.LastName)
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	adminCmd, err := user.Prepare(user.CreateCommand{
		Email:     cmd.Email,
		Password:  cmd.Password,
		FirstName: cmd.FirstName,
		LastName:  cmd.LastName,
		Role:      authz.RoleAdmin,
	})
	if err != nil {
		return nil, err
	}

	if _, err := s.directory.FindByEmail(ctx, adminCmd.Email); err == nil {
		return nil, user.ErrEmailTaken
	} else if !errors.Is(err, user.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	t, err := s.tenants.CreateTenant(ctx, cmd.OrganizationName, cmd.Subdomain)
	if err != nil {
		return nil, err
	}

	admin, err := s.users.Provision(ctx, t.ID, adminCmd)
	if err != nil {
		if derr := s.tenants.Discard(ctx, t.ID); derr != nil {
			s.log.ErrorContext(ctx, "failed to discard tenant after registration failure",
				logger.TenantID(t.ID.String()), logger.Error(derr))
		}
		return nil, err
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeTenantRegistered,
		TenantID:   t.ID.String(),
		ActorID:    admin.ID.String(),
		EntityType: audit.EntityTenant,
		EntityID:   t.ID.String(),
		Metadata:   map[string]any{"subdomain": t.Subdomain, "email": admin.Email},
	})

	return s.issue(admin, t)
}

// Login checks credentials against the global email index.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*AuthResult, error) {
	email := user.NormalizeEmail(cmd.Email)

	u, err := s.directory.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, user.ErrUserNotFound) {
			return nil, fmt.Errorf("failed to look up user: %w", err)
		}
		s.loginFailed(ctx, "", "", cmd.IPAddress, "user_not_found")
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasher.Verify(cmd.Password, u.PasswordHash)
	if err != nil || !ok {
		s.loginFailed(ctx, u.TenantID.String(), u.ID.String(), cmd.IPAddress, "invalid_password")
		return nil, ErrInvalidCredentials
	}

	t, err := s.tenantRepo.GetByID(ctx, u.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if !u.IsActive || !t.IsActive {
		s.loginFailed(ctx, u.TenantID.String(), u.ID.String(), cmd.IPAddress, "disabled")
		return nil, ErrAccountDisabled
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeLoginSuccess,
		TenantID:   u.TenantID.String(),
		ActorID:    u.ID.String(),
		EntityType: audit.EntityUser,
		EntityID:   u.ID.String(),
		IPAddress:  cmd.IPAddress,
	})
	return s.issue(u, t)
}

// Refresh exchanges a refresh token for a new pair. The role is re-read from
// the user record.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	id, err := s.tokens.VerifyRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	u, t, err := s.active(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.issue(u, t)
}

// Authenticate implements requestctx.Authenticator. Beyond the signature it
// requires the user and its tenant to still be active and takes the role from
// the stored user, so deactivation and role changes apply immediately.
func (s *Service) Authenticate(ctx context.Context, credential string) (requestctx.Identity, error) {
	id, err := s.tokens.Authenticate(ctx, credential)
	if err != nil {
		return requestctx.Identity{}, err
	}
	u, _, err := s.active(ctx, id)
	if err != nil {
		return requestctx.Identity{}, err
	}
	return requestctx.Identity{UserID: u.ID, TenantID: u.TenantID, Role: u.Role}, nil
}

// Me returns the caller's profile.
func (s *Service) Me(ctx context.Context) (*Profile, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.users.Get(ctx, rc.UserID())
	if err != nil {
		return nil, err
	}
	t, err := s.tenantRepo.GetByID(ctx, rc.TenantID())
	if err != nil {
		return nil, err
	}
	return &Profile{User: u, Tenant: t}, nil
}

func (s *Service) active(ctx context.Context, id requestctx.Identity) (*user.User, *tenant.Tenant, error) {
	u, err := s.userStore.FindByID(ctx, id.TenantID, id.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown user", requestctx.ErrAuthenticationFailed)
		}
		return nil, nil, err
	}
	if !u.IsActive {
		return nil, nil, fmt.Errorf("%w: %v", requestctx.ErrAuthenticationFailed, ErrAccountDisabled)
	}
	t, err := s.tenantRepo.GetByID(ctx, u.TenantID)
	if err != nil {
		if errors.Is(err, tenant.ErrTenantNotFound) {
			return nil, nil, fmt.Errorf("%w: unknown tenant", requestctx.ErrAuthenticationFailed)
		}
		return nil, nil, err
	}
	if !t.IsActive {
		return nil, nil, fmt.Errorf("%w: tenant is inactive", requestctx.ErrAuthenticationFailed)
	}
	return u, t, nil
}

func (s *Service) issue(u *user.User, t *tenant.Tenant) (*AuthResult, error) {
	pair, err := s.tokens.Issue(requestctx.Identity{UserID: u.ID, TenantID: u.TenantID, Role: u.Role})
	if err != nil {
		return nil, err
	}
	return &AuthResult{TokenPair: pair, Profile: Profile{User: u, Tenant: t}}, nil
}

func (s *Service) loginFailed(ctx context.Context, tenantID, userID, ip, reason string) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeLoginFailed,
		TenantID:   tenantID,
		ActorID:    userID,
		EntityType: audit.EntityUser,
		EntityID:   userID,
		IPAddress:  ip,
		Metadata:   map[string]any{"reason": reason},
	})
}

var _ requestctx.Authenticator = (*Service)(nil)
