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

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
)

const entryColumns = `id, tenant_id, user_id, project_id, entry_date, hours, description, is_billable,
	status, approved_by, approved_at, rejection_reason, version, created_at, updated_at`

// TimeEntries is the time entry backend. Status transitions rely on the
// version predicate of Update.
type TimeEntries struct {
	table
}

// NewTimeEntries creates a new time entry backend
func NewTimeEntries(db *DB) *TimeEntries {
	return &TimeEntries{table{db: db, name: "time_entries"}}
}

func scanEntry(row pgx.Row) (*timesheet.TimeEntry, error) {
	var e timesheet.TimeEntry
	var status string
	if err := row.Scan(
		&e.ID, &e.TenantID, &e.UserID, &e.ProjectID, &e.Date, &e.Hours, &e.Description, &e.IsBillable,
		&status, &e.ApprovedBy, &e.ApprovedAt, &e.RejectionReason, &e.Version, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	e.Status = timesheet.Status(status)
	e.Date = timesheet.Day(e.Date)
	return &e, nil
}

func (r *TimeEntries) Get(ctx context.Context, tenantID, id uuid.UUID) (*timesheet.TimeEntry, error) {
	e, err := scanEntry(r.db.pool.QueryRow(ctx,
		"SELECT "+entryColumns+" FROM time_entries WHERE id = $1 AND tenant_id = $2", id, tenantID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get time entry: %w", err)
	}
	return e, nil
}

func (r *TimeEntries) Query(ctx context.Context, tenantID uuid.UUID, f timesheet.Filter, p store.Page) ([]*timesheet.TimeEntry, int, error) {
	w := tenantWhere(tenantID)
	if f.Status != "" {
		w.add("status = ?", string(f.Status))
	}
	if f.UserID != uuid.Nil {
		w.add("user_id = ?", f.UserID)
	}
	if f.ProjectID != uuid.Nil {
		w.add("project_id = ?", f.ProjectID)
	}
	if !f.From.IsZero() {
		w.add("entry_date >= ?", timesheet.Day(f.From))
	}
	if !f.To.IsZero() {
		w.add("entry_date <= ?", timesheet.Day(f.To))
	}

	total, err := r.count(ctx, w)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.pool.Query(ctx,
		"SELECT "+entryColumns+" FROM time_entries "+w.String()+" ORDER BY entry_date DESC, created_at DESC, id"+limit(p), w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list time entries: %w", err)
	}
	defer rows.Close()

	var out []*timesheet.TimeEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan time entry: %w", err)
		}
		out = append(out, e)
	}
	return out, total, rows.Err()
}

func (r *TimeEntries) Insert(ctx context.Context, e *timesheet.TimeEntry) error {
	_, err := r.db.pool.Exec(ctx, `
		INSERT INTO time_entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`,
		e.ID, e.TenantID, e.UserID, e.ProjectID, e.Date, e.Hours, e.Description, e.IsBillable,
		string(e.Status), e.ApprovedBy, e.ApprovedAt, e.RejectionReason, e.Version, e.CreatedAt, e.UpdatedAt,
	)
	if foreignKeyViolation(err, entryProjectFK) {
		return fmt.Errorf("project %s: %w", e.ProjectID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert time entry: %w", err)
	}
	return nil
}

func (r *TimeEntries) Update(ctx context.Context, e *timesheet.TimeEntry, expectedVersion int) error {
	tag, err := r.db.pool.Exec(ctx, `
		UPDATE time_entries SET
			project_id = $4,
			entry_date = $5,
			hours = $6,
			description = $7,
			is_billable = $8,
			status = $9,
			approved_by = $10,
			approved_at = $11,
			rejection_reason = $12,
			version = $13,
			updated_at = $14
		WHERE id = $1 AND tenant_id = $2 AND version = $3
	`,
		e.ID, e.TenantID, expectedVersion,
		e.ProjectID, e.Date, e.Hours, e.Description, e.IsBillable,
		string(e.Status), e.ApprovedBy, e.ApprovedAt, e.RejectionReason, e.Version, e.UpdatedAt,
	)
	if foreignKeyViolation(err, entryProjectFK) {
		return fmt.Errorf("project %s: %w", e.ProjectID, store.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to update time entry: %w", err)
	}
	return r.updated(ctx, tag.RowsAffected(), e.TenantID, e.ID)
}

func (r *TimeEntries) Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	return r.remove(ctx, tenantID, id, expectedVersion)
}

var _ store.Backend[*timesheet.TimeEntry, timesheet.Filter] = (*TimeEntries)(nil)
