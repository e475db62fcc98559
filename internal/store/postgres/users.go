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

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

const userColumns = `id, tenant_id, email, password_hash, first_name, last_name, phone_number, role,
	hourly_rate, is_active, version, created_at, updated_at`

// Users implements the user backend and the cross-tenant email directory.
type Users struct {
	table
}

// NewUsers creates a new user backend
func NewUsers(db *DB) *Users {
	return &Users{table{db: db, name: "users"}}
}

func scanUser(row pgx.Row) (*user.User, error) {
	var u user.User
	var role string
	if err := row.Scan(
		&u.ID, &u.TenantID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, &u.PhoneNumber, &role,
		&u.HourlyRate, &u.IsActive, &u.Version, &u.CreatedAt, &u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = authz.Role(role)
	return &u, nil
}

func (r *Users) Get(ctx context.Context, tenantID, id uuid.UUID) (*user.User, error) {
	u, err := scanUser(r.db.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

func (r *Users) Query(ctx context.Context, tenantID uuid.UUID, f user.Filter, p store.Page) ([]*user.User, int, error) {
	w := tenantWhere(tenantID)
	if f.ActiveOnly {
		w.add("is_active = TRUE")
	}
	if f.Role != "" {
		w.add("role = ?", string(f.Role))
	}
	if len(f.IDs) > 0 {
		ids := make([]string, len(f.IDs))
		for i, id := range f.IDs {
			ids[i] = id.String()
		}
		w.add("id = ANY(?::uuid[])", ids)
	}

	total, err := r.count(ctx, w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.pool.Query(ctx,
		"SELECT "+userColumns+" FROM users "+w.String()+" ORDER BY last_name, first_name, id"+limit(p), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var out []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan user: %w", err)
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *Users) Insert(ctx context.Context, u *user.User) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		u.ID, u.TenantID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, string(u.Role),
		u.HourlyRate, u.IsActive, u.Version, u.CreatedAt, u.UpdatedAt,
	)
	if uniqueViolation(err, "users_email_key") {
		return user.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (r *Users) Update(ctx context.Context, u *user.User, expectedVersion int) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE users SET
			email = $4,
			password_hash = $5,
			first_name = $6,
			last_name = $7,
			phone_number = $8,
			role = $9,
			hourly_rate = $10,
			is_active = $11,
			version = $12,
			updated_at = $13
		WHERE id = $1 AND tenant_id = $2 AND version = $3
	`,
		u.ID, u.TenantID, expectedVersion,
		u.Email, u.PasswordHash, u.FirstName, u.LastName, u.PhoneNumber, string(u.Role),
		u.HourlyRate, u.IsActive, u.Version, u.UpdatedAt,
	)
	if uniqueViolation(err, "users_email_key") {
		return user.ErrEmailTaken
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return r.updated(ctx, tag.RowsAffected(), u.TenantID, u.ID)
}

func (r *Users) Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	return r.remove(ctx, tenantID, id, expectedVersion)
}

// FindByEmail implements user.Directory. It is the only query on users
// without a tenant filter.
func (r *Users) FindByEmail(ctx context.Context, email string) (*user.User, error) {
	u, err := scanUser(r.db.pool.QueryRow(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = $1", user.NormalizeEmail(email)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return u, nil
}

var (
	_ store.Backend[*user.User, user.Filter] = (*Users)(nil)
	_ user.Directory                         = (*Users)(nil)
)
