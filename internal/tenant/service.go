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

package tenant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Service provides tenant management business logic
type Service struct {
	repo        Repository
	auditLogger audit.Logger
	now         func() time.Time
}

// NewService creates a new tenant service
func NewService(repo Repository, auditLogger audit.Logger) *Service {
	return &Service{
		repo:        repo,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// CreateTenant creates a new active tenant on the free plan.
func (s *Service) CreateTenant(ctx context.Context, name, subdomain string) (*Tenant, error) {
	name = strings.TrimSpace(name)
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if name == "" {
		return nil, validation.New("tenant_name", "is required")
	}
	if !validation.Subdomain(subdomain) {
		return nil, validation.New("subdomain", "must contain only lowercase letters, digits and inner hyphens")
	}

	if _, err := s.repo.GetBySubdomain(ctx, subdomain); err == nil {
		return nil, ErrSubdomainTaken
	} else if !errors.Is(err, ErrTenantNotFound) {
		return nil, fmt.Errorf("failed to check subdomain: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate tenant id: %w", err)
	}
	now := s.now().UTC()
	t := &Tenant{
		ID:        id,
		Name:      name,
		Subdomain: subdomain,
		IsActive:  true,
		MaxUsers:  DefaultMaxUsers,
		Plan:      PlanFree,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}
	return t, nil
}

// GetTenant retrieves a tenant by ID
func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	return s.repo.GetByID(ctx, id)
}

// ListTenants lists tenants with pagination
func (s *Service) ListTenants(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	return s.repo.List(ctx, limit, offset)
}

// Discard removes a tenant created by a registration that failed before its
// administrator existed, which frees the subdomain again.
func (s *Service) Discard(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to discard tenant: %w", err)
	}
	return nil
}

// Deactivate switches a tenant off. Its data is kept; requests pinned to it
// fail with ErrTenantNotFound from then on.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID, actorID string) error {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !t.IsActive {
		return nil
	}

	t.IsActive = false
	t.UpdatedAt = s.now().UTC()
	if err := s.repo.Update(ctx, t); err != nil {
		return fmt.Errorf("failed to deactivate tenant: %w", err)
	}

	s.auditLogger.Log(ctx, audit.Event{
		Type:       audit.TypeTenantDeactivated,
		TenantID:   id.String(),
		ActorID:    actorID,
		EntityType: audit.EntityTenant,
		EntityID:   id.String(),
	})
	return nil
}
