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

// Package dashboard aggregates tenant figures for the landing page.
package dashboard

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Chart window bounds in days.
const (
	DefaultChartDays = 7
	MaxChartDays     = 90
)

// Stats is the dashboard header.
type Stats struct {
	TotalProjects       int             `json:"total_projects"`
	ActiveProjects      int             `json:"active_projects"`
	TotalUsers          int             `json:"total_users"`
	TotalHoursThisMonth decimal.Decimal `json:"total_hours_this_month"`
	TotalHoursLastMonth decimal.Decimal `json:"total_hours_last_month"`
	PendingTimesheets   int             `json:"pending_timesheets"`
}

// ChartPoint is one day of the hours chart.
type ChartPoint struct {
	Name  string          `json:"name"`
	Date  string          `json:"date"`
	Hours decimal.Decimal `json:"hours"`
}

// ProjectSummary totals approved time on a project. Cost uses each user's
// current hourly rate.
type ProjectSummary struct {
	ProjectID     uuid.UUID       `json:"project_id"`
	ApprovedHours decimal.Decimal `json:"approved_hours"`
	BillableHours decimal.Decimal `json:"billable_hours"`
	BillableCost  decimal.Decimal `json:"billable_cost"`
	PendingHours  decimal.Decimal `json:"pending_hours"`
	Entries       int             `json:"entries"`
}

// Service computes dashboard figures inside the caller's tenant.
type Service struct {
	projects project.Store
	users    user.Store
	entries  timesheet.Store
	access   *project.Service
	guard    *authz.Guard
	now      func() time.Time
}

// NewService creates a dashboard service. access decides which projects the
// caller may summarize.
func NewService(projects project.Store, users user.Store, entries timesheet.Store, access *project.Service, guard *authz.Guard) *Service {
	return &Service{
		projects: projects,
		users:    users,
		entries:  entries,
		access:   access,
		guard:    guard,
		now:      time.Now,
	}
}

// WithClock overrides the reference time used for month and chart windows.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Stats returns tenant counts and the tenant's logged hours, in any status,
// for this and last month.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	rc, err := s.require(ctx)
	if err != nil {
		return nil, err
	}
	tid := rc.TenantID()

	totalProjects, err := s.projects.List(ctx, tid, project.Filter{}, store.Page{Size: 1})
	if err != nil {
		return nil, err
	}
	activeProjects, err := s.projects.List(ctx, tid, project.Filter{Status: project.StatusActive}, store.Page{Size: 1})
	if err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx, tid, user.Filter{}, store.Page{Size: 1})
	if err != nil {
		return nil, err
	}
	pending, err := s.entries.List(ctx, tid, timesheet.Filter{Status: timesheet.StatusPending}, store.Page{Size: 1})
	if err != nil {
		return nil, err
	}

	today := timesheet.Day(s.now())
	firstOfMonth := today.AddDate(0, 0, 1-today.Day())
	thisMonth, err := s.sumHours(ctx, rc, firstOfMonth, firstOfMonth.AddDate(0, 1, -1))
	if err != nil {
		return nil, err
	}
	firstOfLast := firstOfMonth.AddDate(0, -1, 0)
	lastMonth, err := s.sumHours(ctx, rc, firstOfLast, firstOfMonth.AddDate(0, 0, -1))
	if err != nil {
		return nil, err
	}

	return &Stats{
		TotalProjects:       totalProjects.Total,
		ActiveProjects:      activeProjects.Total,
		TotalUsers:          users.Total,
		TotalHoursThisMonth: thisMonth,
		TotalHoursLastMonth: lastMonth,
		PendingTimesheets:   pending.Total,
	}, nil
}

// HoursChart returns the caller's hours for each of the last days days,
// oldest first, with empty days reported as zero.
func (s *Service) HoursChart(ctx context.Context, days int) ([]ChartPoint, error) {
	rc, err := s.require(ctx)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		days = DefaultChartDays
	}
	if days < 1 || days > MaxChartDays {
		return nil, validation.New("days", "must be between 1 and 90")
	}

	end := timesheet.Day(s.now())
	start := end.AddDate(0, 0, 1-days)
	res, err := s.entries.List(ctx, rc.TenantID(), timesheet.Filter{UserID: rc.UserID(), From: start, To: end}, store.All)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time]decimal.Decimal, days)
	for _, e := range res.Items {
		byDay[e.Date] = byDay[e.Date].Add(e.Hours)
	}

	points := make([]ChartPoint, 0, days)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		points = append(points, ChartPoint{
			Name:  d.Weekday().String()[:3],
			Date:  d.Format(time.DateOnly),
			Hours: byDay[d],
		})
	}
	return points, nil
}

// Summary totals the approved time on one project the caller may read.
func (s *Service) Summary(ctx context.Context, projectID uuid.UUID) (*ProjectSummary, error) {
	rc, err := s.require(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Get(ctx, projectID); err != nil {
		return nil, err
	}

	res, err := s.entries.List(ctx, rc.TenantID(), timesheet.Filter{ProjectID: projectID}, store.All)
	if err != nil {
		return nil, err
	}

	sum := &ProjectSummary{ProjectID: projectID, Entries: len(res.Items)}
	billable := make(map[uuid.UUID]decimal.Decimal)
	for _, e := range res.Items {
		switch e.Status {
		case timesheet.StatusPending:
			sum.PendingHours = sum.PendingHours.Add(e.Hours)
		case timesheet.StatusApproved:
			sum.ApprovedHours = sum.ApprovedHours.Add(e.Hours)
			if e.IsBillable {
				sum.BillableHours = sum.BillableHours.Add(e.Hours)
				billable[e.UserID] = billable[e.UserID].Add(e.Hours)
			}
		}
	}
	if len(billable) == 0 {
		return sum, nil
	}

	ids := make([]uuid.UUID, 0, len(billable))
	for id := range billable {
		ids = append(ids, id)
	}
	users, err := s.users.List(ctx, rc.TenantID(), user.Filter{IDs: ids}, store.All)
	if err != nil {
		return nil, err
	}
	for _, u := range users.Items {
		sum.BillableCost = sum.BillableCost.Add(billable[u.ID].Mul(u.HourlyRate))
	}
	sum.BillableCost = sum.BillableCost.Round(2)
	return sum, nil
}

func (s *Service) sumHours(ctx context.Context, rc requestctx.RequestContext, from, to time.Time) (decimal.Decimal, error) {
	res, err := s.entries.List(ctx, rc.TenantID(), timesheet.Filter{From: from, To: to}, store.All)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, e := range res.Items {
		total = total.Add(e.Hours)
	}
	return total, nil
}

func (s *Service) require(ctx context.Context) (requestctx.RequestContext, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return requestctx.RequestContext{}, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionDashboardView, uuid.Nil, rc.UserID()); err != nil {
		return requestctx.RequestContext{}, err
	}
	return rc, nil
}
