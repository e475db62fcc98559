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

// Package memory provides in-process store backends used by tests and by the
// server when STORAGE_DRIVER=memory.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
)

// Backend is a mutex-guarded map implementing store.Backend. Rows are copied
// on the way in and out so callers never share memory with the table.
type Backend[E store.Record, F any] struct {
	mu    sync.RWMutex
	rows  map[uuid.UUID]E
	clone func(E) E
	match func(E, F) bool
	less  func(a, b E) bool
}

// NewBackend creates an empty table. match applies the filter; less orders
// listings and may be nil for creation order by id.
func NewBackend[E store.Record, F any](clone func(E) E, match func(E, F) bool, less func(a, b E) bool) *Backend[E, F] {
	if less == nil {
		less = func(a, b E) bool {
			return a.RecordMeta().ID.String() < b.RecordMeta().ID.String()
		}
	}
	return &Backend[E, F]{
		rows:  make(map[uuid.UUID]E),
		clone: clone,
		match: match,
		less:  less,
	}
}

func (b *Backend[E, F]) Get(_ context.Context, tenantID, id uuid.UUID) (E, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	row, ok := b.rows[id]
	if !ok || row.RecordMeta().TenantID != tenantID {
		var zero E
		return zero, store.ErrNotFound
	}
	return b.clone(row), nil
}

func (b *Backend[E, F]) Query(_ context.Context, tenantID uuid.UUID, filter F, page store.Page) ([]E, int, error) {
	b.mu.RLock()
	matched := make([]E, 0)
	for _, row := range b.rows {
		if row.RecordMeta().TenantID != tenantID {
			continue
		}
		if b.match != nil && !b.match(row, filter) {
			continue
		}
		matched = append(matched, b.clone(row))
	}
	b.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return b.less(matched[i], matched[j]) })

	lo, hi := page.Window(len(matched))
	return matched[lo:hi], len(matched), nil
}

func (b *Backend[E, F]) Insert(_ context.Context, entity E) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := entity.RecordMeta().ID
	if _, exists := b.rows[id]; exists {
		return store.ErrConflict
	}
	b.rows[id] = b.clone(entity)
	return nil
}

func (b *Backend[E, F]) Update(_ context.Context, entity E, expectedVersion int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	meta := entity.RecordMeta()
	cur, ok := b.rows[meta.ID]
	if !ok || cur.RecordMeta().TenantID != meta.TenantID {
		return store.ErrNotFound
	}
	if cur.RecordMeta().Version != expectedVersion {
		return store.ErrConflict
	}
	b.rows[meta.ID] = b.clone(entity)
	return nil
}

func (b *Backend[E, F]) Remove(_ context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	row, ok := b.rows[id]
	if !ok || row.RecordMeta().TenantID != tenantID {
		return store.ErrNotFound
	}
	if expectedVersion != 0 && row.RecordMeta().Version != expectedVersion {
		return store.ErrConflict
	}
	delete(b.rows, id)
	return nil
}

// Find scans every tenant for the first row satisfying pred. It exists for
// lookups that precede tenant resolution, such as login by email.
func (b *Backend[E, F]) Find(pred func(E) bool) (E, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, row := range b.rows {
		if pred(row) {
			return b.clone(row), true
		}
	}
	var zero E
	return zero, false
}
