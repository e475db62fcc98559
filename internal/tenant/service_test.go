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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Create(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	args := m.Called(ctx, subdomain)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Tenant), args.Error(1)
}

func (m *mockRepo) Update(ctx context.Context, t *Tenant) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]*Tenant, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]*Tenant), args.Error(1)
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockAudit struct {
	mock.Mock
}

func (m *mockAudit) Log(ctx context.Context, event audit.Event) {
	m.Called(ctx, event)
}

// TestPurpose: Validates that tenant creation generates UUIDv7 ids and applies the free-plan defaults.
// Scope: Unit Test
// Security: Traceability and unique identification of tenants
// Expected: A new active tenant with MaxUsers 10 and plan FREE is stored.
// Test Case ID: TEN-01
func TestTenant_Service_CreateTenant(t *testing.T) {
	repo := new(mockRepo)
	service := NewService(repo, new(mockAudit))
	ctx := context.Background()

	repo.On("GetBySubdomain", ctx, "acme").Return(nil, ErrTenantNotFound)
	repo.On("Create", ctx, mock.MatchedBy(func(t *Tenant) bool {
		return t.ID.Version() == 7 && t.Name == "Acme" && t.Subdomain == "acme"
	})).Return(nil)

	tenant, err := service.CreateTenant(ctx, " Acme ", "ACME")
	require.NoError(t, err)
	assert.True(t, tenant.IsActive)
	assert.Equal(t, DefaultMaxUsers, tenant.MaxUsers)
	assert.Equal(t, PlanFree, tenant.Plan)

	repo.AssertExpectations(t)
}

// TestPurpose: Validates that subdomains are globally unique and syntactically checked.
// Scope: Unit Test
// Security: Tenant naming integrity
// Expected: ErrSubdomainTaken for duplicates, a validation error for bad syntax.
// Test Case ID: TEN-02
func TestTenant_Service_CreateTenant_Rejections(t *testing.T) {
	ctx := context.Background()

	t.Run("DuplicateSubdomain", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("GetBySubdomain", ctx, "acme").Return(&Tenant{ID: uuid.New()}, nil)

		_, err := NewService(repo, new(mockAudit)).CreateTenant(ctx, "Acme", "acme")
		assert.ErrorIs(t, err, ErrSubdomainTaken)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("BadSubdomain", func(t *testing.T) {
		repo := new(mockRepo)
		_, err := NewService(repo, new(mockAudit)).CreateTenant(ctx, "Acme", "acme_corp")

		var verr *validation.Error
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "subdomain", verr.Field)
	})

	t.Run("EmptyName", func(t *testing.T) {
		repo := new(mockRepo)
		_, err := NewService(repo, new(mockAudit)).CreateTenant(ctx, "  ", "acme")
		assert.ErrorIs(t, err, validation.ErrValidation)
	})
}

// TestPurpose: Validates that deactivation keeps the tenant and records an audit event.
// Scope: Unit Test
// Security: Tenants are never hard deleted
// Expected: Update is called with IsActive=false and an audit event is logged once.
// Test Case ID: TEN-03
func TestTenant_Service_Deactivate(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	service := NewService(repo, auditLogger)
	ctx := context.Background()
	id := uuid.New()

	repo.On("GetByID", ctx, id).Return(&Tenant{ID: id, IsActive: true}, nil)
	repo.On("Update", ctx, mock.MatchedBy(func(t *Tenant) bool { return !t.IsActive })).Return(nil)
	auditLogger.On("Log", mock.Anything, mock.MatchedBy(func(e audit.Event) bool {
		return e.Type == audit.TypeTenantDeactivated && e.EntityID == id.String()
	})).Return()

	require.NoError(t, service.Deactivate(ctx, id, "ops"))

	repo.AssertExpectations(t)
	auditLogger.AssertExpectations(t)
}

func TestTenant_Service_GetTenant_PropagatesNotFound(t *testing.T) {
	repo := new(mockRepo)
	ctx := context.Background()
	id := uuid.New()
	repo.On("GetByID", ctx, id).Return(nil, ErrTenantNotFound)

	_, err := NewService(repo, new(mockAudit)).GetTenant(ctx, id)
	assert.True(t, errors.Is(err, ErrTenantNotFound))
}
