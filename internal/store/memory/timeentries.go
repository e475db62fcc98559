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

package memory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
)

// TimeEntries is the time entry table ordered newest day first.
type TimeEntries struct {
	*Backend[*timesheet.TimeEntry, timesheet.Filter]
	projects *Projects
}

// NewTimeEntries creates an empty time entry table without project checks.
func NewTimeEntries() *TimeEntries {
	return &TimeEntries{
		Backend: NewBackend((*timesheet.TimeEntry).Clone, func(e *timesheet.TimeEntry, f timesheet.Filter) bool {
			return f.Matches(e)
		}, func(a, b *timesheet.TimeEntry) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.CreatedAt.After(b.CreatedAt)
		}),
	}
}

// NewLinkedTimeEntries creates an empty time entry table that references
// projects. Writes naming a missing project fail with store.ErrNotFound, and
// projects refuses to remove a project entries still point at.
func NewLinkedTimeEntries(projects *Projects) *TimeEntries {
	t := NewTimeEntries()
	t.projects = projects
	projects.entries = t
	return t
}

func (t *TimeEntries) Insert(ctx context.Context, e *timesheet.TimeEntry) error {
	if t.projects == nil {
		return t.Backend.Insert(ctx, e)
	}
	t.projects.refs.Lock()
	defer t.projects.refs.Unlock()

	if err := t.projectExists(ctx, e.TenantID, e.ProjectID); err != nil {
		return err
	}
	return t.Backend.Insert(ctx, e)
}

func (t *TimeEntries) Update(ctx context.Context, e *timesheet.TimeEntry, expectedVersion int) error {
	if t.projects == nil {
		return t.Backend.Update(ctx, e, expectedVersion)
	}
	t.projects.refs.Lock()
	defer t.projects.refs.Unlock()

	if err := t.projectExists(ctx, e.TenantID, e.ProjectID); err != nil {
		return err
	}
	return t.Backend.Update(ctx, e, expectedVersion)
}

func (t *TimeEntries) projectExists(ctx context.Context, tenantID, projectID uuid.UUID) error {
	if _, err := t.projects.Get(ctx, tenantID, projectID); err != nil {
		return fmt.Errorf("project %s: %w", projectID, store.ErrNotFound)
	}
	return nil
}
