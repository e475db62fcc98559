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

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
)

const tenantColumns = "id, name, subdomain, is_active, max_users, plan, created_at, updated_at"

// TenantRepository implements tenant.Repository
type TenantRepository struct {
	db *DB
}

// NewTenantRepository creates a new tenant repository
func NewTenantRepository(db *DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func scanTenant(row pgx.Row) (*tenant.Tenant, error) {
	var t tenant.Tenant
	err := row.Scan(&t.ID, &t.Name, &t.Subdomain, &t.IsActive, &t.MaxUsers, &t.Plan, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, tenant.ErrTenantNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}
	return &t, nil
}

// Create creates a new tenant
func (r *TenantRepository) Create(ctx context.Context, t *tenant.Tenant) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO tenants (`+tenantColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, t.ID, t.Name, t.Subdomain, t.IsActive, t.MaxUsers, t.Plan, t.CreatedAt, t.UpdatedAt)
	if uniqueViolation(err, "tenants_subdomain_key") {
		return tenant.ErrSubdomainTaken
	}
	if err != nil {
		return fmt.Errorf("failed to create tenant: %w", err)
	}
	return nil
}

// GetByID retrieves a tenant by ID
func (r *TenantRepository) GetByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return scanTenant(r.db.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE id = $1", id))
}

// GetBySubdomain retrieves a tenant by its subdomain
func (r *TenantRepository) GetBySubdomain(ctx context.Context, subdomain string) (*tenant.Tenant, error) {
	return scanTenant(r.db.pool.QueryRow(ctx,
		"SELECT "+tenantColumns+" FROM tenants WHERE subdomain = $1", subdomain))
}

// Update updates a tenant
func (r *TenantRepository) Update(ctx context.Context, t *tenant.Tenant) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE tenants
		SET name = $2, subdomain = $3, is_active = $4, max_users = $5, plan = $6, updated_at = $7
		WHERE id = $1
	`, t.ID, t.Name, t.Subdomain, t.IsActive, t.MaxUsers, t.Plan, t.UpdatedAt)
	if uniqueViolation(err, "tenants_subdomain_key") {
		return tenant.ErrSubdomainTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// Delete removes a tenant row. Rows referencing it make this fail with a
// foreign key violation.
func (r *TenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.pool.Exec(ctx, "DELETE FROM tenants WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return tenant.ErrTenantNotFound
	}
	return nil
}

// List retrieves tenants oldest first
func (r *TenantRepository) List(ctx context.Context, limit, offset int) ([]*tenant.Tenant, error) {
	query := "SELECT " + tenantColumns + " FROM tenants ORDER BY created_at"
	args := []any{offset}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}
	rows, err := r.db.pool.Query(ctx, query+" OFFSET $1", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	defer rows.Close()

	tenants := []*tenant.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, t)
	}
	return tenants, rows.Err()
}

var _ tenant.Repository = (*TenantRepository)(nil)
