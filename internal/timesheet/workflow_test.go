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

package timesheet_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store/memory"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

type transitionLog struct {
	mu   sync.Mutex
	seen []string
}

func (l *transitionLog) RecordTransition(_ context.Context, transition, outcome string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen = append(l.seen, transition+":"+outcome)
}

type actor struct {
	id       uuid.UUID
	tenantID uuid.UUID
	role     authz.Role
}

func (a actor) ctx(t *testing.T) context.Context {
	t.Helper()
	rc, err := requestctx.New(a.tenantID, a.id, a.role)
	require.NoError(t, err)
	return requestctx.With(context.Background(), rc)
}

type fixture struct {
	wf       *timesheet.Workflow
	projects project.Store
	recorder *audit.Recorder
	metrics  *transitionLog

	tenantID uuid.UUID
	project  *project.Project
	alice    actor // EMPLOYEE
	carol    actor // EMPLOYEE
	bob      actor // MANAGER
	admin    actor
	super    actor
}

var decidedAt = time.Date(2026, 1, 7, 9, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	guard, err := authz.NewDefaultGuard()
	require.NoError(t, err)

	projects := store.New[*project.Project, project.Filter](project.Kind, memory.NewProjects(memory.NewMembers()))
	entries := store.New[*timesheet.TimeEntry, timesheet.Filter](timesheet.Kind, memory.NewTimeEntries())
	rec := &audit.Recorder{}
	metrics := &transitionLog{}
	wf := timesheet.NewWorkflow(entries, projects, guard, rec,
		timesheet.WithRecorder(metrics),
		timesheet.WithClock(func() time.Time { return decidedAt }),
	)

	tenantID := uuid.New()
	p, err := projects.Save(context.Background(), tenantID, &project.Project{Name: "P", Status: project.StatusActive})
	require.NoError(t, err)

	mk := func(role authz.Role) actor { return actor{id: uuid.New(), tenantID: tenantID, role: role} }
	return &fixture{
		wf: wf, projects: projects, recorder: rec, metrics: metrics,
		tenantID: tenantID, project: p,
		alice: mk(authz.RoleEmployee), carol: mk(authz.RoleEmployee), bob: mk(authz.RoleManager),
		admin: mk(authz.RoleAdmin), super: mk(authz.RoleSuperAdmin),
	}
}

func (f *fixture) submit(t *testing.T, who actor, hours string) *timesheet.TimeEntry {
	t.Helper()
	e, err := f.wf.Submit(who.ctx(t), timesheet.SubmitCommand{
		ProjectID: f.project.ID,
		Date:      time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC),
		Hours:     decimal.RequireFromString(hours),
	})
	require.NoError(t, err)
	return e
}

// TestPurpose: Walks an entry from submission to approval and checks it is locked afterwards.
// Scope: Unit Test
// Expected: PENDING after submit, APPROVED by bob, alice's later edit fails with ErrLockedRecord.
// Test Case ID: TS-01
func TestWorkflow_EndToEnd(t *testing.T) {
	f := newFixture(t)

	entry := f.submit(t, f.alice, "8.00")
	assert.Equal(t, timesheet.StatusPending, entry.Status)
	assert.Equal(t, f.alice.id, entry.UserID)
	assert.Equal(t, f.tenantID, entry.TenantID)
	assert.True(t, decimal.RequireFromString("8").Equal(entry.Hours))

	approved, err := f.wf.Approve(f.bob.ctx(t), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, f.bob.id, *approved.ApprovedBy)
	require.NotNil(t, approved.ApprovedAt)
	assert.Equal(t, decidedAt, *approved.ApprovedAt)

	four := decimal.NewFromInt(4)
	_, err = f.wf.Edit(f.alice.ctx(t), entry.ID, timesheet.EditCommand{Hours: &four})
	assert.ErrorIs(t, err, timesheet.ErrLockedRecord)

	stored, err := f.wf.Get(f.alice.ctx(t), entry.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8").Equal(stored.Hours))
	assert.Equal(t, []string{audit.TypeTimeEntryCreated, audit.TypeTimeEntryApproved}, f.recorder.Types())
}

// TestPurpose: Validates that decided entries accept no further transition.
// Scope: Unit Test
// Expected: approve, reject, edit and delete all fail on APPROVED and REJECTED entries.
// Test Case ID: TS-02
func TestWorkflow_TerminalStates(t *testing.T) {
	f := newFixture(t)

	approved := f.submit(t, f.alice, "8")
	_, err := f.wf.Approve(f.bob.ctx(t), approved.ID)
	require.NoError(t, err)

	rejected := f.submit(t, f.alice, "3.5")
	_, err = f.wf.Reject(f.bob.ctx(t), rejected.ID, "wrong project")
	require.NoError(t, err)

	one := decimal.NewFromInt(1)
	for _, e := range []*timesheet.TimeEntry{approved, rejected} {
		_, err = f.wf.Approve(f.admin.ctx(t), e.ID)
		assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)

		_, err = f.wf.Reject(f.admin.ctx(t), e.ID, "again")
		assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)

		_, err = f.wf.Edit(f.alice.ctx(t), e.ID, timesheet.EditCommand{Hours: &one})
		assert.ErrorIs(t, err, timesheet.ErrLockedRecord)

		assert.ErrorIs(t, f.wf.Delete(f.alice.ctx(t), e.ID), timesheet.ErrLockedRecord)
		assert.ErrorIs(t, f.wf.Delete(f.admin.ctx(t), e.ID), timesheet.ErrLockedRecord)
	}
}

// TestPurpose: Validates the hours bound on submit and edit.
// Scope: Unit Test
// Expected: 0 and values above 24 fail validation; exactly 24 succeeds.
// Test Case ID: TS-03
func TestWorkflow_HoursBound(t *testing.T) {
	f := newFixture(t)
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	for _, h := range []string{"0", "-1", "24.01", "25", "1.005"} {
		_, err := f.wf.Submit(f.alice.ctx(t), timesheet.SubmitCommand{
			ProjectID: f.project.ID, Date: day, Hours: decimal.RequireFromString(h),
		})
		assert.ErrorIs(t, err, validation.ErrValidation, "hours %s", h)
	}

	full := f.submit(t, f.alice, "24")
	assert.True(t, decimal.NewFromInt(24).Equal(full.Hours))

	zero := decimal.Zero
	_, err := f.wf.Edit(f.alice.ctx(t), full.ID, timesheet.EditCommand{Hours: &zero})
	assert.ErrorIs(t, err, validation.ErrValidation)
}

// TestPurpose: Validates that a rejection needs a reason and stores it verbatim.
// Scope: Unit Test
// Expected: Empty reason fails validation and leaves the entry PENDING; a reason is stored as given; a decided entry gives ErrInvalidTransition even without a reason.
// Test Case ID: TS-04
func TestWorkflow_RejectReason(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.alice, "2")

	_, err := f.wf.Reject(f.bob.ctx(t), entry.ID, "  ")
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "rejection_reason", verr.Field)

	still, err := f.wf.Get(f.bob.ctx(t), entry.ID)
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusPending, still.Status)

	rejected, err := f.wf.Decide(f.bob.ctx(t), entry.ID, false, "scope creep")
	require.NoError(t, err)
	assert.Equal(t, timesheet.StatusRejected, rejected.Status)
	assert.Equal(t, "scope creep", rejected.RejectionReason)

	// A decided entry reports the transition, whatever the reason.
	_, err = f.wf.Reject(f.bob.ctx(t), entry.ID, "")
	assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
	assert.NotErrorIs(t, err, validation.ErrValidation)
}

// TestPurpose: Validates which roles may decide entries.
// Scope: Unit Test
// Security: Employees and platform operators cannot approve tenant time
// Expected: EMPLOYEE and SUPER_ADMIN are denied; MANAGER and ADMIN succeed on entries they did not author.
// Test Case ID: TS-05
func TestWorkflow_RoleGate(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.alice, "8")

	_, err := f.wf.Approve(f.carol.ctx(t), entry.ID)
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = f.wf.Approve(f.alice.ctx(t), entry.ID)
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = f.wf.Approve(f.super.ctx(t), entry.ID)
	assert.ErrorIs(t, err, authz.ErrDenied)

	_, err = f.wf.Approve(f.admin.ctx(t), entry.ID)
	assert.NoError(t, err)

	other := f.submit(t, f.carol, "1")
	_, err = f.wf.Approve(f.bob.ctx(t), other.ID)
	assert.NoError(t, err)
}

// TestPurpose: Validates ownership rules for edit and delete.
// Scope: Unit Test
// Security: Only the author edits; admins may delete pending entries of others
// Expected: Non-owner edit and employee delete are denied; admin delete succeeds.
// Test Case ID: TS-06
func TestWorkflow_Ownership(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.alice, "8")

	desc := "hijack"
	_, err := f.wf.Edit(f.carol.ctx(t), entry.ID, timesheet.EditCommand{Description: &desc})
	assert.ErrorIs(t, err, authz.ErrDenied)
	_, err = f.wf.Edit(f.bob.ctx(t), entry.ID, timesheet.EditCommand{Description: &desc})
	assert.ErrorIs(t, err, authz.ErrDenied)

	assert.ErrorIs(t, f.wf.Delete(f.carol.ctx(t), entry.ID), authz.ErrDenied)
	assert.ErrorIs(t, f.wf.Delete(f.bob.ctx(t), entry.ID), authz.ErrDenied)

	_, err = f.wf.Get(f.carol.ctx(t), entry.ID)
	assert.ErrorIs(t, err, authz.ErrDenied)

	desc = "planning"
	edited, err := f.wf.Edit(f.alice.ctx(t), entry.ID, timesheet.EditCommand{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "planning", edited.Description)
	assert.Equal(t, timesheet.StatusPending, edited.Status)

	require.NoError(t, f.wf.Delete(f.admin.ctx(t), entry.ID))
	_, err = f.wf.Get(f.admin.ctx(t), entry.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// TestPurpose: Validates that concurrent decisions on one entry cannot both win.
// Scope: Concurrency Test
// Expected: Exactly one decision succeeds per entry; the other fails with ErrInvalidTransition.
// Test Case ID: TS-07
func TestWorkflow_ConcurrentDecisions(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 25; i++ {
		entry := f.submit(t, f.alice, "1")

		var wg sync.WaitGroup
		start := make(chan struct{})
		errs := make([]error, 2)
		ctxs := []context.Context{f.bob.ctx(t), f.admin.ctx(t)}
		for j := range ctxs {
			wg.Add(1)
			go func(j int) {
				defer wg.Done()
				<-start
				ctx := ctxs[j]
				if j == 0 {
					_, errs[j] = f.wf.Approve(ctx, entry.ID)
				} else {
					_, errs[j] = f.wf.Reject(ctx, entry.ID, "duplicate")
				}
			}(j)
		}
		close(start)
		wg.Wait()

		wins := 0
		for _, err := range errs {
			if err == nil {
				wins++
				continue
			}
			assert.ErrorIs(t, err, timesheet.ErrInvalidTransition)
		}
		assert.Equal(t, 1, wins)

		final, err := f.wf.Get(f.bob.ctx(t), entry.ID)
		require.NoError(t, err)
		assert.True(t, final.Status.Terminal())
		if final.Status == timesheet.StatusApproved {
			assert.Empty(t, final.RejectionReason)
			assert.Equal(t, f.bob.id, *final.ApprovedBy)
		} else {
			assert.Equal(t, "duplicate", final.RejectionReason)
			assert.Equal(t, f.admin.id, *final.ApprovedBy)
		}
	}
}

// TestPurpose: Validates tenant isolation of time entries and project references.
// Scope: Unit Test
// Security: Cross-tenant leakage
// Expected: Another tenant's manager sees NotFound; a foreign project id is a validation error.
// Test Case ID: TS-08
func TestWorkflow_CrossTenant(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.alice, "8")

	otherTenant := uuid.New()
	foreignManager := actor{id: uuid.New(), tenantID: otherTenant, role: authz.RoleManager}

	_, err := f.wf.Approve(foreignManager.ctx(t), entry.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.wf.Get(foreignManager.ctx(t), entry.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	res, err := f.wf.List(foreignManager.ctx(t), timesheet.Filter{}, store.Page{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)

	foreignProject, err := f.projects.Save(context.Background(), otherTenant, &project.Project{Name: "Q", Status: project.StatusActive})
	require.NoError(t, err)
	_, err = f.wf.Submit(f.alice.ctx(t), timesheet.SubmitCommand{
		ProjectID: foreignProject.ID, Date: time.Now(), Hours: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, validation.ErrValidation)

	moved := foreignProject.ID
	_, err = f.wf.Edit(f.alice.ctx(t), entry.ID, timesheet.EditCommand{ProjectID: &moved})
	assert.ErrorIs(t, err, validation.ErrValidation)
}

// TestPurpose: Validates the listing operations.
// Scope: Unit Test
// Expected: ListMine returns only the caller's entries; ListPending drops decided ones; employees cannot list the tenant.
// Test Case ID: TS-09
func TestWorkflow_Listings(t *testing.T) {
	f := newFixture(t)
	a1 := f.submit(t, f.alice, "1")
	f.submit(t, f.alice, "2")
	f.submit(t, f.carol, "3")

	_, err := f.wf.Approve(f.bob.ctx(t), a1.ID)
	require.NoError(t, err)

	mine, err := f.wf.ListMine(f.alice.ctx(t), timesheet.Filter{}, store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, mine.Total)
	for _, e := range mine.Items {
		assert.Equal(t, f.alice.id, e.UserID)
	}

	pending, err := f.wf.ListPending(f.bob.ctx(t), store.Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, pending.Total)

	approved, err := f.wf.List(f.bob.ctx(t), timesheet.Filter{Status: timesheet.StatusApproved}, store.Page{})
	require.NoError(t, err)
	require.Len(t, approved.Items, 1)
	assert.Equal(t, a1.ID, approved.Items[0].ID)

	_, err = f.wf.List(f.alice.ctx(t), timesheet.Filter{}, store.Page{})
	assert.ErrorIs(t, err, authz.ErrDenied)
}

// TestPurpose: Validates transition metrics and the project usage check.
// Scope: Unit Test
// Expected: Each operation records its outcome; a project with entries reports in use.
// Test Case ID: TS-10
func TestWorkflow_MetricsAndUsage(t *testing.T) {
	f := newFixture(t)
	entry := f.submit(t, f.alice, "1")
	_, _ = f.wf.Approve(f.alice.ctx(t), entry.ID)
	_, _ = f.wf.Reject(f.bob.ctx(t), entry.ID, "no")
	_, _ = f.wf.Approve(f.bob.ctx(t), entry.ID)

	assert.Equal(t, []string{
		"submit:ok", "approve:denied", "reject:ok", "approve:invalid_transition",
	}, f.metrics.seen)

	entries := store.New[*timesheet.TimeEntry, timesheet.Filter](timesheet.Kind, memory.NewTimeEntries())
	usage := timesheet.NewUsage(entries)
	inUse, err := usage.ProjectInUse(context.Background(), f.tenantID, f.project.ID)
	require.NoError(t, err)
	assert.False(t, inUse)

	_, err = entries.Save(context.Background(), f.tenantID, &timesheet.TimeEntry{
		UserID: f.alice.id, ProjectID: f.project.ID, Date: timesheet.Day(time.Now()),
		Hours: decimal.NewFromInt(1), Status: timesheet.StatusPending,
	})
	require.NoError(t, err)
	inUse, err = usage.ProjectInUse(context.Background(), f.tenantID, f.project.ID)
	require.NoError(t, err)
	assert.True(t, inUse)
}

// race runs a and b at the same moment and waits for both.
func race(a, b func()) {
	var wg sync.WaitGroup
	start := make(chan struct{})
	for _, fn := range []func(){a, b} {
		wg.Add(1)
		go func(fn func()) {
			defer wg.Done()
			<-start
			fn()
		}(fn)
	}
	close(start)
	wg.Wait()
}

// TestPurpose: Validates that an edit racing an approval is never lost.
// Scope: Concurrency Test
// Expected: If both succeed the approved entry carries the edited hours; otherwise the loser fails with ErrLockedRecord, ErrConflict or ErrInvalidTransition.
// Test Case ID: TS-11
func TestWorkflow_ConcurrentEditAndApprove(t *testing.T) {
	f := newFixture(t)
	edited := decimal.RequireFromString("5")
	aliceCtx, bobCtx := f.alice.ctx(t), f.bob.ctx(t)

	for i := 0; i < 50; i++ {
		entry := f.submit(t, f.alice, "1")

		var editErr, approveErr error
		race(func() {
			_, editErr = f.wf.Edit(aliceCtx, entry.ID, timesheet.EditCommand{Hours: &edited})
		}, func() {
			_, approveErr = f.wf.Approve(bobCtx, entry.ID)
		})

		if editErr != nil {
			assert.True(t, errors.Is(editErr, timesheet.ErrLockedRecord) || errors.Is(editErr, store.ErrConflict), editErr)
		}
		if approveErr != nil {
			assert.ErrorIs(t, approveErr, timesheet.ErrInvalidTransition)
		}
		require.False(t, editErr != nil && approveErr != nil, "one side must win")

		final, err := f.wf.Get(bobCtx, entry.ID)
		require.NoError(t, err)
		if editErr == nil {
			assert.True(t, edited.Equal(final.Hours), "edit lost: %s", final.Hours)
		} else {
			assert.True(t, decimal.NewFromInt(1).Equal(final.Hours))
		}
		if approveErr == nil {
			assert.Equal(t, timesheet.StatusApproved, final.Status)
		} else {
			assert.Equal(t, timesheet.StatusPending, final.Status)
		}
	}
}

// TestPurpose: Validates that a delete racing an approval leaves exactly one outcome.
// Scope: Concurrency Test
// Expected: Either the entry is gone and the approval failed, or it is APPROVED and the delete failed with ErrLockedRecord.
// Test Case ID: TS-12
func TestWorkflow_ConcurrentDeleteAndApprove(t *testing.T) {
	f := newFixture(t)
	aliceCtx, bobCtx := f.alice.ctx(t), f.bob.ctx(t)

	for i := 0; i < 50; i++ {
		entry := f.submit(t, f.alice, "1")

		var deleteErr, approveErr error
		race(func() {
			deleteErr = f.wf.Delete(aliceCtx, entry.ID)
		}, func() {
			_, approveErr = f.wf.Approve(bobCtx, entry.ID)
		})

		require.True(t, (deleteErr == nil) != (approveErr == nil), "delete=%v approve=%v", deleteErr, approveErr)

		final, err := f.wf.Get(bobCtx, entry.ID)
		if deleteErr == nil {
			assert.ErrorIs(t, err, store.ErrNotFound)
			assert.True(t, errors.Is(approveErr, store.ErrNotFound) || errors.Is(approveErr, timesheet.ErrInvalidTransition), approveErr)
		} else {
			require.NoError(t, err)
			assert.Equal(t, timesheet.StatusApproved, final.Status)
			assert.ErrorIs(t, deleteErr, timesheet.ErrLockedRecord)
		}
	}
}
