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
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
)

// Members is the membership table with the (project, user) uniqueness rule.
type Members struct {
	*Backend[*project.Member, project.MemberFilter]
	writeMu sync.Mutex
}

// NewMembers creates an empty membership table.
func NewMembers() *Members {
	return &Members{
		Backend: NewBackend((*project.Member).Clone, func(m *project.Member, f project.MemberFilter) bool {
			return f.Matches(m)
		}, func(a, b *project.Member) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}),
	}
}

func (m *Members) Insert(ctx context.Context, entity *project.Member) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	_, dup := m.Find(func(row *project.Member) bool {
		return row.TenantID == entity.TenantID && row.ProjectID == entity.ProjectID && row.UserID == entity.UserID
	})
	if dup {
		return project.ErrAlreadyMember
	}
	return m.Backend.Insert(ctx, entity)
}

// Projects is the project table. Once linked to a time entry table it acts
// like the foreign key in PostgreSQL: a project that entries reference cannot
// be removed, and entries cannot reference a missing project.
type Projects struct {
	*Backend[*project.Project, project.Filter]
	// refs serializes reference checks with the writes they guard.
	refs    sync.Mutex
	entries *TimeEntries
}

// NewProjects creates an empty project table. Member filters are answered
// from members.
func NewProjects(members *Members) *Projects {
	return &Projects{Backend: newProjectBackend(members)}
}

func (p *Projects) Remove(ctx context.Context, tenantID, id uuid.UUID, expectedVersion int) error {
	p.refs.Lock()
	defer p.refs.Unlock()

	if p.entries != nil {
		_, used := p.entries.Find(func(e *timesheet.TimeEntry) bool {
			return e.TenantID == tenantID && e.ProjectID == id
		})
		if used {
			return project.ErrProjectInUse
		}
	}
	return p.Backend.Remove(ctx, tenantID, id, expectedVersion)
}

func newProjectBackend(members *Members) *Backend[*project.Project, project.Filter] {
	return NewBackend((*project.Project).Clone, func(p *project.Project, f project.Filter) bool {
		if f.Status != "" && p.Status != f.Status {
			return false
		}
		if f.MemberID != uuid.Nil {
			_, ok := members.Find(func(m *project.Member) bool {
				return m.TenantID == p.TenantID && m.ProjectID == p.ID && m.UserID == f.MemberID
			})
			return ok
		}
		return true
	}, func(a, b *project.Project) bool {
		return strings.ToLower(a.Name) < strings.ToLower(b.Name)
	})
}
