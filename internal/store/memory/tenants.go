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

package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
)

// Tenants implements tenant.Repository in memory.
type Tenants struct {
	mu   sync.RWMutex
	rows map[uuid.UUID]tenant.Tenant
}

// NewTenants creates an empty tenant table.
func NewTenants() *Tenants {
	return &Tenants{rows: make(map[uuid.UUID]tenant.Tenant)}
}

func (r *Tenants) Create(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, row := range r.rows {
		if row.Subdomain == t.Subdomain {
			return tenant.ErrSubdomainTaken
		}
	}
	r.rows[t.ID] = *t
	return nil
}

func (r *Tenants) GetByID(_ context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	row, ok := r.rows[id]
	if !ok {
		return nil, tenant.ErrTenantNotFound
	}
	return &row, nil
}

func (r *Tenants) GetBySubdomain(_ context.Context, subdomain string) (*tenant.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, row := range r.rows {
		if row.Subdomain == subdomain {
			return &row, nil
		}
	}
	return nil, tenant.ErrTenantNotFound
}

func (r *Tenants) Update(_ context.Context, t *tenant.Tenant) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[t.ID]; !ok {
		return tenant.ErrTenantNotFound
	}
	r.rows[t.ID] = *t
	return nil
}

func (r *Tenants) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rows[id]; !ok {
		return tenant.ErrTenantNotFound
	}
	delete(r.rows, id)
	return nil
}

func (r *Tenants) List(_ context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	r.mu.RLock()
	out := make([]*tenant.Tenant, 0, len(r.rows))
	for _, row := range r.rows {
		row := row
		out = append(out, &row)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if offset >= len(out) {
		return []*tenant.Tenant{}, nil
	}
	out = out[offset:]
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

var _ tenant.Repository = (*Tenants)(nil)
