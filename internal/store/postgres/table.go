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
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
)

// where accumulates AND-ed conditions. A "?" in a condition is replaced by
// the next positional parameter.
type where struct {
	conds []string
	args  []any
}

func tenantWhere(tenantID uuid.UUID) *where {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	return w
}

func (w *where) add(cond string, args ...any) {
	for _, arg := range args {
		w.args = append(w.args, arg)
		cond = strings.Replace(cond, "?", fmt.Sprintf("$%d", len(w.args)), 1)
	}
	w.conds = append(w.conds, cond)
}

func (w *where) String() string {
	return "WHERE " + strings.Join(w.conds, " AND ")
}

func limit(p store.Page) string {
	if p.Unpaged {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", p.Size, p.Offset())
}

// table is the shared plumbing of one tenant-owned table.
type table struct {
	db   *DB
	name string
}

func (t table) count(ctx context.Context, w *where) (int, error) {
	var n int
	if err := t.db.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+t.name+" "+w.String(), w.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", t.name, err)
	}
	return n, nil
}

// miss explains an UPDATE or DELETE that touched no row.
func (t table) miss(ctx context.Context, tenantID, id uuid.UUID) error {
	var version int
	err := t.db.pool.QueryRow(ctx,
		"SELECT version FROM "+t.name+" WHERE id = $1 AND tenant_id = $2", id, tenantID,
	).Scan(&version)
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read %s version: %w", t.name, err)
	}
	return store.ErrConflict
}

func (t table) remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	w := tenantWhere(tenantID)
	w.add("id = ?", id)
	if expectedVersion != 0 {
		w.add("version = ?", expectedVersion)
	}
	tag, err := t.db.pool.Exec(ctx, "DELETE FROM "+t.name+" "+w.String(), w.args...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", t.name, err)
	}
	if tag.RowsAffected() == 0 {
		return t.miss(ctx, tenantID, id)
	}
	return nil
}

func (t table) updated(ctx context.Context, rows int64, tenantID, id uuid.UUID) error {
	if rows == 0 {
		return t.miss(ctx, tenantID, id)
	}
	return nil
}
