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

	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
)

const projectColumns = `id, tenant_id, name, description, client_name, status, start_date, end_date,
	budget, created_by, version, created_at, updated_at`

// Projects is the project backend.
type Projects struct {
	table
}

// NewProjects creates a new project backend
func NewProjects(db *DB) *Projects {
	return &Projects{table{db: db, name: "projects"}}
}

func scanProject(row pgx.Row) (*project.Project, error) {
	var p project.Project
	var status string
	if err := row.Scan(
		&p.ID, &p.TenantID, &p.Name, &p.Description, &p.ClientName, &status, &p.StartDate, &p.EndDate,
		&p.Budget, &p.CreatedBy, &p.Version, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.Status = project.Status(status)
	return &p, nil
}

func (r *Projects) Get(ctx context.Context, tenantID, id uuid.UUID) (*project.Project, error) {
	p, err := scanProject(r.db.pool.QueryRow(ctx,
		"SELECT "+projectColumns+" FROM projects WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

func (r *Projects) Query(ctx context.Context, tenantID uuid.UUID, f project.Filter, p store.Page) ([]*project.Project, int, error) {
	w := tenantWhere(tenantID)
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.MemberID != uuid.Nil {
		w.add(`EXISTS (
			SELECT 1 FROM project_members m
			WHERE m.project_id = projects.id AND m.tenant_id = projects.tenant_id AND m.user_id = ?
		)`, f.MemberID)
	}

	total, err := r.count(ctx, w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.pool.Query(ctx,
		"SELECT "+projectColumns+" FROM projects "+w.String()+" ORDER BY LOWER(name), id"+limit(p), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	var out []*project.Project
	for rows.Next() {
		pr, err := scanProject(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project: %w", err)
		}
		out = append(out, pr)
	}
	return out, total, rows.Err()
}

func (r *Projects) Insert(ctx context.Context, p *project.Project) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		p.ID, p.TenantID, p.Name, p.Description, p.ClientName, string(p.Status), p.StartDate, p.EndDate,
		p.Budget, p.CreatedBy, p.Version, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert project: %w", err)
	}
	return nil
}

func (r *Projects) Update(ctx context.Context, p *project.Project, expectedVersion int) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE projects SET
			name = $4,
			description = $5,
			client_name = $6,
			status = $7,
			start_date = $8,
			end_date = $9,
			budget = $10,
			version = $11,
			updated_at = $12
		WHERE id = $1 AND tenant_id = $2 AND version = $3
	`,
		p.ID, p.TenantID, expectedVersion,
		p.Name, p.Description, p.ClientName, string(p.Status), p.StartDate, p.EndDate,
		p.Budget, p.Version, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	return r.updated(ctx, tag.RowsAffected(), p.TenantID, p.ID)
}

func (r *Projects) Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	err := r.remove(ctx, tenantID, id, expectedVersion)
	if foreignKeyViolation(err, entryProjectFK) {
		return project.ErrProjectInUse
	}
	return err
}

const memberColumns = "id, tenant_id, project_id, user_id, role, version, created_at, updated_at"

// Members is the project membership backend.
type Members struct {
	table
}

// NewMembers creates a new membership backend
func NewMembers(db *DB) *Members {
	return &Members{table{db: db, name: "project_members"}}
}

func scanMember(row pgx.Row) (*project.Member, error) {
	var m project.Member
	var role string
	if err := row.Scan(&m.ID, &m.TenantID, &m.ProjectID, &m.UserID, &role, &m.Version, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	m.Role = project.MemberRole(role)
	return &m, nil
}

func (r *Members) Get(ctx context.Context, tenantID, id uuid.UUID) (*project.Member, error) {
	m, err := scanMember(r.db.pool.QueryRow(ctx,
		"SELECT "+memberColumns+" FROM project_members WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project member: %w", err)
	}
	return m, nil
}

func (r *Members) Query(ctx context.Context, tenantID uuid.UUID, f project.MemberFilter, p store.Page) ([]*project.Member, int, error) {
	w := tenantWhere(tenantID)
	if f.ProjectID != uuid.Nil {
		w.add("project_id = ?", f.ProjectID)
	}
	if f.UserID != uuid.Nil {
		w.add("user_id = ?", f.UserID)
	}

	total, err := r.count(ctx, w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.pool.Query(ctx,
		"SELECT "+memberColumns+" FROM project_members "+w.String()+" ORDER BY created_at, id"+limit(p), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list project members: %w", err)
	}
	defer rows.Close()

	var out []*project.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan project member: %w", err)
		}
		out = append(out, m)
	}
	return out, total, rows.Err()
}

func (r *Members) Insert(ctx context.Context, m *project.Member) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO project_members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, m.ID, m.TenantID, m.ProjectID, m.UserID, string(m.Role), m.Version, m.CreatedAt, m.UpdatedAt)
	if uniqueViolation(err, "project_members_project_user_key") {
		return project.ErrAlreadyMember
	}
	if err != nil {
		return fmt.Errorf("failed to insert project member: %w", err)
	}
	return nil
}

func (r *Members) Update(ctx context.Context, m *project.Member, expectedVersion int) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE project_members SET role = $4, version = $5, updated_at = $6
		WHERE id = $1 AND tenant_id = $2 AND version = $3
	`, m.ID, m.TenantID, expectedVersion, string(m.Role), m.Version, m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update project member: %w", err)
	}
	return r.updated(ctx, tag.RowsAffected(), m.TenantID, m.ID)
}

func (r *Members) Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	return r.remove(ctx, tenantID, id, expectedVersion)
}

var (
	_ store.Backend[*project.Project, project.Filter]      = (*Projects)(nil)
	_ store.Backend[*project.Member, project.MemberFilter] = (*Members)(nil)
)
