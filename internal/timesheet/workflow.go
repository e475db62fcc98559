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

package timesheet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

var tracer = otel.Tracer("github.com/anand1357/timesheet-multitenant-backend/internal/timesheet")

// Workflow operation names, used for spans and transition metrics.
const (
	OpSubmit  = "submit"
	OpEdit    = "edit"
	OpDelete  = "delete"
	OpApprove = "approve"
	OpReject  = "reject"
)

// Recorder counts workflow outcomes.
type Recorder interface {
	RecordTransition(ctx context.Context, transition, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordTransition(context.Context, string, string) {}

// SubmitCommand carries a new time entry.
type SubmitCommand struct {
	ProjectID   uuid.UUID       `json:"project_id"`
	Date        time.Time       `json:"date"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description" validate:"max=2000"`
	IsBillable  bool            `json:"is_billable"`
}

// EditCommand changes only the non-nil fields of a PENDING entry.
type EditCommand struct {
	ProjectID   *uuid.UUID
	Date        *time.Time
	Hours       *decimal.Decimal
	Description *string
	IsBillable  *bool
}

// Workflow owns every change to a time entry's status.
type Workflow struct {
	entries     Store
	projects    project.Store
	guard       *authz.Guard
	auditLogger audit.Logger
	metrics     Recorder
	now         func() time.Time
	log         *slog.Logger
}

// Option configures a Workflow.
type Option func(*Workflow)

// WithRecorder sets the transition metrics sink.
func WithRecorder(r Recorder) Option {
	return func(w *Workflow) { w.metrics = r }
}

// WithClock overrides the decision timestamp source.
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) { w.now = now }
}

// NewWorkflow creates the time entry workflow.
func NewWorkflow(entries Store, projects project.Store, guard *authz.Guard, auditLogger audit.Logger, opts ...Option) *Workflow {
	w := &Workflow{
		entries:     entries,
		projects:    projects,
		guard:       guard,
		auditLogger: auditLogger,
		metrics:     nopRecorder{},
		now:         time.Now,
		log:         slog.Default().With(logger.Component("timesheet")),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Submit records a new PENDING entry for the caller.
func (w *Workflow) Submit(ctx context.Context, cmd SubmitCommand) (entry *TimeEntry, err error) {
	err = w.observe(ctx, OpSubmit, func(ctx context.Context) error {
		rc, err := requestctx.Require(ctx)
		if err != nil {
			return err
		}
		if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryCreate, rc.UserID(), rc.UserID()); err != nil {
			return err
		}

		e := &TimeEntry{
			UserID:      rc.UserID(),
			ProjectID:   cmd.ProjectID,
			Date:        Day(cmd.Date),
			Hours:       cmd.Hours,
			Description: strings.TrimSpace(cmd.Description),
			IsBillable:  cmd.IsBillable,
			Status:      StatusPending,
		}
		if cmd.Date.IsZero() {
			return validation.New("date", "is required")
		}
		if err := validation.Struct(cmd); err != nil {
			return err
		}
		if err := w.validate(ctx, rc.TenantID(), e); err != nil {
			return err
		}

		if _, err := w.entries.Save(ctx, rc.TenantID(), e); err != nil {
			// The project was deleted after validate looked it up.
			if errors.Is(err, store.ErrNotFound) {
				return validation.New("project_id", "does not belong to this tenant")
			}
			return err
		}
		w.audit(ctx, rc, audit.TypeTimeEntryCreated, e, map[string]any{"hours": e.Hours.StringFixed(2)})
		entry = e
		return nil
	})
	return entry, err
}

// Edit changes a PENDING entry owned by the caller. Status is unchanged.
func (w *Workflow) Edit(ctx context.Context, id uuid.UUID, cmd EditCommand) (entry *TimeEntry, err error) {
	err = w.observe(ctx, OpEdit, func(ctx context.Context) error {
		rc, err := requestctx.Require(ctx)
		if err != nil {
			return err
		}
		e, err := w.entries.FindByID(ctx, rc.TenantID(), id)
		if err != nil {
			return err
		}
		if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryEdit, e.UserID, rc.UserID()); err != nil {
			return err
		}
		if e.Status != StatusPending {
			return fmt.Errorf("%w: entry is %s", ErrLockedRecord, e.Status)
		}

		if cmd.ProjectID != nil {
			e.ProjectID = *cmd.ProjectID
		}
		if cmd.Date != nil {
			e.Date = Day(*cmd.Date)
		}
		if cmd.Hours != nil {
			e.Hours = *cmd.Hours
		}
		if cmd.Description != nil {
			e.Description = strings.TrimSpace(*cmd.Description)
			if len(e.Description) > 2000 {
				return validation.New("description", "must be at most 2000 characters")
			}
		}
		if cmd.IsBillable != nil {
			e.IsBillable = *cmd.IsBillable
		}
		if err := w.validate(ctx, rc.TenantID(), e); err != nil {
			return err
		}

		if _, err := w.entries.Save(ctx, rc.TenantID(), e); err != nil {
			return err
		}
		w.audit(ctx, rc, audit.TypeTimeEntryUpdated, e, nil)
		entry = e
		return nil
	})
	return entry, err
}

// Delete removes a PENDING entry. Owners may delete their own entries;
// roles with tenant-wide delete may remove any PENDING entry.
func (w *Workflow) Delete(ctx context.Context, id uuid.UUID) error {
	return w.observe(ctx, OpDelete, func(ctx context.Context) error {
		rc, err := requestctx.Require(ctx)
		if err != nil {
			return err
		}
		e, err := w.entries.FindByID(ctx, rc.TenantID(), id)
		if err != nil {
			return err
		}
		if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryDelete, e.UserID, rc.UserID()); err != nil {
			return err
		}
		if e.Status != StatusPending {
			return fmt.Errorf("%w: entry is %s", ErrLockedRecord, e.Status)
		}

		if err := w.entries.DeleteIfUnchanged(ctx, rc.TenantID(), e); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("%w: %w", ErrLockedRecord, err)
			}
			return err
		}
		w.audit(ctx, rc, audit.TypeTimeEntryDeleted, e, nil)
		return nil
	})
}

// Approve moves a PENDING entry to APPROVED.
func (w *Workflow) Approve(ctx context.Context, id uuid.UUID) (*TimeEntry, error) {
	return w.decide(ctx, id, StatusApproved, "")
}

// Reject moves a PENDING entry to REJECTED. reason is required and stored
// verbatim; it is checked after the status, so a decided entry always yields
// ErrInvalidTransition.
func (w *Workflow) Reject(ctx context.Context, id uuid.UUID, reason string) (*TimeEntry, error) {
	return w.decide(ctx, id, StatusRejected, reason)
}

// Decide is Approve or Reject selected by approve.
func (w *Workflow) Decide(ctx context.Context, id uuid.UUID, approve bool, reason string) (*TimeEntry, error) {
	if approve {
		return w.Approve(ctx, id)
	}
	return w.Reject(ctx, id, reason)
}

func (w *Workflow) decide(ctx context.Context, id uuid.UUID, to Status, reason string) (entry *TimeEntry, err error) {
	op, typ := OpApprove, audit.TypeTimeEntryApproved
	if to == StatusRejected {
		op, typ = OpReject, audit.TypeTimeEntryRejected
	}

	err = w.observe(ctx, op, func(ctx context.Context) error {
		rc, err := requestctx.Require(ctx)
		if err != nil {
			return err
		}
		if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryDecide, uuid.Nil, rc.UserID()); err != nil {
			return err
		}

		e, err := w.entries.FindByID(ctx, rc.TenantID(), id)
		if err != nil {
			return err
		}
		if e.Status != StatusPending {
			return fmt.Errorf("%w: entry is already %s", ErrInvalidTransition, e.Status)
		}
		if to == StatusRejected && strings.TrimSpace(reason) == "" {
			return validation.New("rejection_reason", "is required")
		}

		approver := rc.UserID()
		at := w.now().UTC()
		e.Status = to
		e.ApprovedBy = &approver
		e.ApprovedAt = &at
		if to == StatusRejected {
			e.RejectionReason = reason
		}

		if _, err := w.entries.Save(ctx, rc.TenantID(), e); err != nil {
			if errors.Is(err, store.ErrConflict) {
				return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
			}
			return err
		}

		w.log.InfoContext(ctx, "time entry decided",
			logger.TenantID(rc.TenantID().String()),
			logger.UserID(approver.String()),
			logger.EntityID(e.ID.String()),
			logger.Transition(op),
		)
		var md map[string]any
		if to == StatusRejected {
			md = map[string]any{"reason": reason}
		}
		w.audit(ctx, rc, typ, e, md)
		entry = e
		return nil
	})
	return entry, err
}

// Get returns one entry. Employees may only read their own.
func (w *Workflow) Get(ctx context.Context, id uuid.UUID) (*TimeEntry, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	e, err := w.entries.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryRead, e.UserID, rc.UserID()); err != nil {
		return nil, err
	}
	return e, nil
}

// List returns tenant entries matching filter.
func (w *Workflow) List(ctx context.Context, filter Filter, page store.Page) (store.Result[*TimeEntry], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*TimeEntry]{}, err
	}
	if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryList, uuid.Nil, rc.UserID()); err != nil {
		return store.Result[*TimeEntry]{}, err
	}
	return w.entries.List(ctx, rc.TenantID(), filter, page)
}

// ListMine returns the caller's own entries.
func (w *Workflow) ListMine(ctx context.Context, filter Filter, page store.Page) (store.Result[*TimeEntry], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*TimeEntry]{}, err
	}
	filter.UserID = rc.UserID()
	return w.entries.List(ctx, rc.TenantID(), filter, page)
}

// ListPending returns the entries awaiting a decision.
func (w *Workflow) ListPending(ctx context.Context, page store.Page) (store.Result[*TimeEntry], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*TimeEntry]{}, err
	}
	if err := w.guard.Check(rc.Role(), authz.ActionTimeEntryList, uuid.Nil, rc.UserID()); err != nil {
		return store.Result[*TimeEntry]{}, err
	}
	return w.entries.List(ctx, rc.TenantID(), Filter{Status: StatusPending}, page)
}

// validate checks the fields shared by submit and edit. The project must
// resolve inside tenantID.
func (w *Workflow) validate(ctx context.Context, tenantID uuid.UUID, e *TimeEntry) error {
	if err := ValidateHours(e.Hours); err != nil {
		return err
	}
	if e.ProjectID == uuid.Nil {
		return validation.New("project_id", "is required")
	}
	if _, err := w.projects.FindByID(ctx, tenantID, e.ProjectID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return validation.New("project_id", "does not belong to this tenant")
		}
		return err
	}
	return nil
}

func (w *Workflow) observe(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "timesheet."+op)
	defer span.End()

	err := fn(ctx)
	outcome := Outcome(err)
	span.SetAttributes(attribute.String("outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	w.metrics.RecordTransition(ctx, op, outcome)
	return err
}

// Outcome classifies err for metrics.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrLockedRecord):
		return "locked"
	case errors.Is(err, authz.ErrDenied):
		return "denied"
	case errors.Is(err, validation.ErrValidation):
		return "validation"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (w *Workflow) audit(ctx context.Context, rc requestctx.RequestContext, typ string, e *TimeEntry, md map[string]any) {
	w.auditLogger.Log(ctx, audit.Event{
		Type:       typ,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityTimeEntry,
		EntityID:   e.ID.String(),
		Metadata:   md,
	})
}

// Usage answers project.UsageChecker from the time entry table.
type Usage struct {
	entries Store
}

// NewUsage creates a Usage over entries.
func NewUsage(entries Store) *Usage {
	return &Usage{entries: entries}
}

func (u *Usage) ProjectInUse(ctx context.Context, tenantID, projectID uuid.UUID) (bool, error) {
	res, err := u.entries.List(ctx, tenantID, Filter{ProjectID: projectID}, store.Page{Size: 1})
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}

var _ project.UsageChecker = (*Usage)(nil)
