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

// Package store defines the tenant-scoped persistence contract. Every read
// and write of a tenant-owned entity goes through Store, which filters by and
// stamps the active tenant before any backend sees the call.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrNotFound         = errors.New("not found")
	ErrCrossTenantWrite = errors.New("cross-tenant write rejected")
	ErrConflict         = errors.New("record was modified concurrently")
	ErrMissingTenant    = errors.New("tenant id is required")
)

// NotFoundError names the entity kind and id that could not be found in the
// active tenant. It matches ErrNotFound.
type NotFoundError struct {
	Kind string
	ID   uuid.UUID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Meta is embedded in every tenant-owned entity.
type Meta struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RecordMeta exposes the embedded metadata to Store.
func (m *Meta) RecordMeta() *Meta { return m }

// Record is implemented by pointers to entities embedding Meta.
type Record interface {
	RecordMeta() *Meta
}

// Scoped is the tenant-scoped store contract for one entity kind.
type Scoped[E Record, F any] interface {
	// FindByID never returns an entity owned by a different tenant.
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (E, error)

	// List is always pre-filtered to tenantID; filter narrows it further.
	List(ctx context.Context, tenantID uuid.UUID, filter F, page Page) (Result[E], error)

	// Save inserts (Version 0) or updates (Version > 0, optimistic) entity.
	// It stamps the tenant on first save and rejects foreign tenants.
	Save(ctx context.Context, tenantID uuid.UUID, entity E) (E, error)

	// Delete removes the entity or fails with a NotFoundError.
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// DeleteIfUnchanged removes entity only while its stored version still
	// equals entity's version, failing with ErrConflict otherwise.
	DeleteIfUnchanged(ctx context.Context, tenantID uuid.UUID, entity E) error
}

// Backend is the raw storage a Store delegates to. Implementations must
// include tenantID in every lookup and must only apply Update, or Remove with
// a non-zero expectedVersion, when the stored version equals expectedVersion.
type Backend[E Record, F any] interface {
	Get(ctx context.Context, tenantID, id uuid.UUID) (E, error)
	Query(ctx context.Context, tenantID uuid.UUID, filter F, page Page) ([]E, int, error)
	Insert(ctx context.Context, entity E) error
	Update(ctx context.Context, entity E, expectedVersion int) error
	Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error
}
