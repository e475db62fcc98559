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

package dashboard_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/dashboard"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store/memory"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Wednesday
var today = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc      *dashboard.Service
	users    user.Store
	projects project.Store
	entries  timesheet.Store
	tenantID uuid.UUID
	alice    *user.User
	bob      *user.User
	apollo   *project.Project
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	guard, err := authz.NewDefaultGuard()
	require.NoError(t, err)

	members := memory.NewMembers()
	users := store.New[*user.User, user.Filter](user.Kind, memory.NewUsers())
	projects := store.New[*project.Project, project.Filter](project.Kind, memory.NewProjects(members))
	memberStore := store.New[*project.Member, project.MemberFilter](project.MemberKind, members)
	entries := store.New[*timesheet.TimeEntry, timesheet.Filter](timesheet.Kind, memory.NewTimeEntries())

	access := project.NewService(projects, memberStore, users, nil, guard, &audit.Recorder{})
	svc := dashboard.NewService(projects, users, entries, access, guard).WithClock(func() time.Time { return today })

	f := &fixture{svc: svc, users: users, projects: projects, entries: entries, tenantID: uuid.New()}
	f.alice, err = users.Save(ctx, f.tenantID, &user.User{Email: "alice@acme.io", Role: authz.RoleEmployee, IsActive: true, HourlyRate: decimal.RequireFromString("50")})
	require.NoError(t, err)
	f.bob, err = users.Save(ctx, f.tenantID, &user.User{Email: "bob@acme.io", Role: authz.RoleManager, IsActive: true, HourlyRate: decimal.RequireFromString("80.50")})
	require.NoError(t, err)

	f.apollo, err = projects.Save(ctx, f.tenantID, &project.Project{Name: "Apollo", Status: project.StatusActive})
	require.NoError(t, err)
	_, err = projects.Save(ctx, f.tenantID, &project.Project{Name: "Gemini", Status: project.StatusCompleted})
	require.NoError(t, err)
	_, err = memberStore.Save(ctx, f.tenantID, &project.Member{ProjectID: f.apollo.ID, UserID: f.alice.ID, Role: project.MemberDeveloper})
	require.NoError(t, err)
	return f
}

func (f *fixture) entry(t *testing.T, u *user.User, day time.Time, hours string, status timesheet.Status, billable bool) {
	t.Helper()
	_, err := f.entries.Save(context.Background(), f.tenantID, &timesheet.TimeEntry{
		UserID: u.ID, ProjectID: f.apollo.ID, Date: timesheet.Day(day),
		Hours: decimal.RequireFromString(hours), Status: status, IsBillable: billable,
	})
	require.NoError(t, err)
}

func as(t *testing.T, u *user.User) context.Context {
	t.Helper()
	rc, err := requestctx.New(u.TenantID, u.ID, u.Role)
	require.NoError(t, err)
	return requestctx.With(context.Background(), rc)
}

// TestPurpose: Validates the dashboard counters and monthly hour totals.
// Scope: Unit Test
// Expected: Tenant counts, every member's hours split by month, pending count.
// Test Case ID: DSH-01
func TestDashboard_Stats(t *testing.T) {
	f := newFixture(t)
	f.entry(t, f.alice, today, "8", timesheet.StatusPending, true)
	f.entry(t, f.alice, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), "2.5", timesheet.StatusApproved, true)
	f.entry(t, f.alice, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), "4", timesheet.StatusApproved, false)
	f.entry(t, f.bob, today, "6", timesheet.StatusPending, true)
	_, err := f.entries.Save(context.Background(), uuid.New(), &timesheet.TimeEntry{
		UserID: uuid.New(), ProjectID: uuid.New(), Date: timesheet.Day(today),
		Hours: decimal.RequireFromString("12"), Status: timesheet.StatusPending,
	})
	require.NoError(t, err)

	stats, err := f.svc.Stats(as(t, f.alice))
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProjects)
	assert.Equal(t, 1, stats.ActiveProjects)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 2, stats.PendingTimesheets)
	assert.Equal(t, "16.5", stats.TotalHoursThisMonth.String())
	assert.Equal(t, "4", stats.TotalHoursLastMonth.String())
}

// TestPurpose: Validates the per-day chart of the caller's hours.
// Scope: Unit Test
// Expected: One point per day ending today, zero-filled, weekday names.
// Test Case ID: DSH-02
func TestDashboard_HoursChart(t *testing.T) {
	f := newFixture(t)
	f.entry(t, f.alice, today, "3", timesheet.StatusPending, true)
	f.entry(t, f.alice, today, "1.5", timesheet.StatusApproved, true)
	f.entry(t, f.alice, today.AddDate(0, 0, -2), "7", timesheet.StatusPending, true)
	f.entry(t, f.bob, today, "9", timesheet.StatusPending, true)

	points, err := f.svc.HoursChart(as(t, f.alice), 0)
	require.NoError(t, err)
	require.Len(t, points, dashboard.DefaultChartDays)

	first, last := points[0], points[len(points)-1]
	assert.Equal(t, "2026-03-05", first.Date)
	assert.Equal(t, "Thu", first.Name)
	assert.True(t, first.Hours.IsZero())
	assert.Equal(t, "2026-03-11", last.Date)
	assert.Equal(t, "Wed", last.Name)
	assert.Equal(t, "4.5", last.Hours.String())
	assert.Equal(t, "7", points[4].Hours.String())

	_, err = f.svc.HoursChart(as(t, f.alice), 365)
	assert.ErrorIs(t, err, validation.ErrValidation)
}

// TestPurpose: Validates project cost totals.
// Scope: Unit Test
// Security: Employees only summarize projects they belong to
// Expected: Only approved billable hours are costed at each user's current rate.
// Test Case ID: DSH-03
func TestDashboard_Summary(t *testing.T) {
	f := newFixture(t)
	f.entry(t, f.alice, today, "2", timesheet.StatusApproved, true)
	f.entry(t, f.alice, today, "1", timesheet.StatusApproved, false)
	f.entry(t, f.bob, today, "4", timesheet.StatusApproved, true)
	f.entry(t, f.bob, today, "5", timesheet.StatusPending, true)
	f.entry(t, f.bob, today, "6", timesheet.StatusRejected, true)

	sum, err := f.svc.Summary(as(t, f.bob), f.apollo.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Entries)
	assert.Equal(t, "7", sum.ApprovedHours.String())
	assert.Equal(t, "6", sum.BillableHours.String())
	assert.Equal(t, "5", sum.PendingHours.String())
	// 2*50 + 4*80.50
	assert.Equal(t, "422", sum.BillableCost.String())

	gemini, err := f.projects.List(context.Background(), f.tenantID, project.Filter{Status: project.StatusCompleted}, store.Page{})
	require.NoError(t, err)
	require.Len(t, gemini.Items, 1)
	_, err = f.svc.Summary(as(t, f.alice), gemini.Items[0].ID)
	assert.ErrorIs(t, err, authz.ErrDenied)
}
