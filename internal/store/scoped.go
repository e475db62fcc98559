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

package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
)

var tracer = otel.Tracer("github.com/anand1357/timesheet-multitenant-backend/internal/store")

// Store enforces tenant scoping on top of a Backend. It is the only type in
// the module that implements Scoped.
type Store[E Record, F any] struct {
	kind    string
	backend Backend[E, F]
	now     func() time.Time
	log     *slog.Logger
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New wraps backend. kind names the entity in errors and logs.
func New[E Record, F any](kind string, backend Backend[E, F], opts ...Option) *Store[E, F] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[E, F]{
		kind:    kind,
		backend: backend,
		now:     o.now,
		log:     slog.Default().With(logger.Component("store"), logger.EntityKind(kind)),
	}
}

// Kind returns the entity kind this store serves.
func (s *Store[E, F]) Kind() string { return s.kind }

func (s *Store[E, F]) startSpan(ctx context.Context, op string, tenantID uuid.UUID) (context.Context, trace.Span) {
	return tracer.Start(ctx, "store."+s.kind+"."+op, trace.WithAttributes(
		attribute.String("entity.kind", s.kind),
		attribute.String("tenant.id", tenantID.String()),
	))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Store[E, F]) FindByID(ctx context.Context, tenantID, id uuid.UUID) (e E, err error) {
	ctx, span := s.startSpan(ctx, "find", tenantID)
	defer func() { endSpan(span, err) }()

	var zero E
	if tenantID == uuid.Nil {
		return zero, ErrMissingTenant
	}

	found, err := s.backend.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return zero, &NotFoundError{Kind: s.kind, ID: id}
		}
		return zero, fmt.Errorf("failed to get %s: %w", s.kind, err)
	}

	if owner := found.RecordMeta().TenantID; owner != tenantID {
		s.log.ErrorContext(ctx, "backend returned foreign-tenant row",
			logger.TenantID(tenantID.String()), logger.EntityID(id.String()))
		return zero, &NotFoundError{Kind: s.kind, ID: id}
	}
	return found, nil
}

func (s *Store[E, F]) List(ctx context.Context, tenantID uuid.UUID, filter F, page Page) (res Result[E], err error) {
	ctx, span := s.startSpan(ctx, "list", tenantID)
	defer func() { endSpan(span, err) }()

	if tenantID == uuid.Nil {
		return Result[E]{}, ErrMissingTenant
	}
	page = page.Normalize()

	rows, total, err := s.backend.Query(ctx, tenantID, filter, page)
	if err != nil {
		return Result[E]{}, fmt.Errorf("failed to list %s: %w", s.kind, err)
	}

	items := rows[:0]
	for _, row := range rows {
		if row.RecordMeta().TenantID != tenantID {
			s.log.ErrorContext(ctx, "backend listed foreign-tenant row",
				logger.TenantID(tenantID.String()), logger.EntityID(row.RecordMeta().ID.String()))
			total--
			continue
		}
		items = append(items, row)
	}
	span.SetAttributes(attribute.Int("result.count", len(items)))

	return Result[E]{Items: items, Total: total, Page: page}, nil
}

func (s *Store[E, F]) Save(ctx context.Context, tenantID uuid.UUID, entity E) (_ E, err error) {
	ctx, span := s.startSpan(ctx, "save", tenantID)
	defer func() { endSpan(span, err) }()

	var zero E
	if tenantID == uuid.Nil {
		return zero, ErrMissingTenant
	}

	meta := entity.RecordMeta()
	switch meta.TenantID {
	case uuid.Nil:
		if meta.Version != 0 {
			return zero, fmt.Errorf("%w: persisted %s has no tenant", ErrCrossTenantWrite, s.kind)
		}
		meta.TenantID = tenantID
	case tenantID:
	default:
		s.log.WarnContext(ctx, "cross-tenant write rejected",
			logger.TenantID(tenantID.String()), logger.EntityID(meta.ID.String()))
		return zero, fmt.Errorf("%w: %s belongs to another tenant", ErrCrossTenantWrite, s.kind)
	}

	now := s.now().UTC()
	if meta.Version == 0 {
		if meta.ID == uuid.Nil {
			id, err := uuid.NewV7()
			if err != nil {
				return zero, fmt.Errorf("failed to generate id: %w", err)
			}
			meta.ID = id
		}
		meta.Version = 1
		meta.CreatedAt = now
		meta.UpdatedAt = now
		if err := s.backend.Insert(ctx, entity); err != nil {
			meta.Version = 0
			return zero, fmt.Errorf("failed to insert %s: %w", s.kind, err)
		}
		return entity, nil
	}

	expected, prevUpdated := meta.Version, meta.UpdatedAt
	meta.Version = expected + 1
	meta.UpdatedAt = now
	if err := s.backend.Update(ctx, entity, expected); err != nil {
		meta.Version, meta.UpdatedAt = expected, prevUpdated
		if errors.Is(err, ErrNotFound) {
			return zero, &NotFoundError{Kind: s.kind, ID: meta.ID}
		}
		if errors.Is(err, ErrConflict) {
			return zero, fmt.Errorf("%s %s: %w", s.kind, meta.ID, ErrConflict)
		}
		return zero, fmt.Errorf("failed to update %s: %w", s.kind, err)
	}
	return entity, nil
}

func (s *Store[E, F]) Delete(ctx context.Context, tenantID, id uuid.UUID) (err error) {
	ctx, span := s.startSpan(ctx, "delete", tenantID)
	defer func() { endSpan(span, err) }()

	if tenantID == uuid.Nil {
		return ErrMissingTenant
	}
	return s.remove(ctx, tenantID, id, 0)
}

func (s *Store[E, F]) DeleteIfUnchanged(ctx context.Context, tenantID uuid.UUID, entity E) (err error) {
	ctx, span := s.startSpan(ctx, "delete", tenantID)
	defer func() { endSpan(span, err) }()

	if tenantID == uuid.Nil {
		return ErrMissingTenant
	}
	meta := entity.RecordMeta()
	if meta.TenantID != tenantID {
		return fmt.Errorf("%w: %s belongs to another tenant", ErrCrossTenantWrite, s.kind)
	}
	if meta.Version == 0 {
		return &NotFoundError{Kind: s.kind, ID: meta.ID}
	}
	return s.remove(ctx, tenantID, meta.ID, meta.Version)
}

func (s *Store[E, F]) remove(ctx context.Context, tenantID, id uuid.UUID, version int) error {
	if err := s.backend.Remove(ctx, tenantID, id, version); err != nil {
		if errors.Is(err, ErrNotFound) {
			return &NotFoundError{Kind: s.kind, ID: id}
		}
		if errors.Is(err, ErrConflict) {
			return fmt.Errorf("%s %s: %w", s.kind, id, ErrConflict)
		}
		return fmt.Errorf("failed to delete %s: %w", s.kind, err)
	}
	return nil
}
