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

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Admin exposes platform operations on tenants to the request's caller.
// Only SUPER_ADMIN passes its guard checks.
type Admin struct {
	tenants *Service
	guard   *authz.Guard
}

// NewAdmin wraps s with guard checks.
func NewAdmin(s *Service, guard *authz.Guard) *Admin {
	return &Admin{tenants: s, guard: guard}
}

// List returns one page of tenants, oldest first.
func (a *Admin) List(ctx context.Context, page store.Page) ([]*Tenant, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.guard.Check(rc.Role(), authz.ActionTenantList, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}
	if page.Unpaged {
		page = store.Page{Size: store.MaxPageSize}
	}
	page = page.Normalize()
	return a.tenants.ListTenants(ctx, page.Size, page.Offset())
}

// Deactivate switches a customer tenant off. The platform tenant cannot be
// deactivated.
func (a *Admin) Deactivate(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.guard.Check(rc.Role(), authz.ActionTenantDeactivate, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}

	t, err := a.tenants.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.Subdomain == PlatformSubdomain {
		return nil, validation.New("id", "the platform tenant cannot be deactivated")
	}
	if err := a.tenants.Deactivate(ctx, id, rc.UserID().String()); err != nil {
		return nil, err
	}
	return a.tenants.GetTenant(ctx, id)
}
