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

package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
)

// Entity kinds used in store errors.
const (
	Kind       = "project"
	MemberKind = "project_member"
)

// Domain errors
var (
	ErrAlreadyMember  = errors.New("user is already a member of this project")
	ErrNotMember      = errors.New("user is not a member of this project")
	ErrProjectInUse   = errors.New("project has time entries")
	ErrInvalidStatus  = errors.New("invalid project status")
	ErrInvalidRoleTag = errors.New("invalid member role")
)

// Status is the project lifecycle state.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusOnHold    Status = "ON_HOLD"
	StatusCancelled Status = "CANCELLED"
)

// ParseStatus accepts any casing.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusActive, StatusCompleted, StatusOnHold, StatusCancelled:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// MemberRole is an informational tag on a membership. It grants nothing.
type MemberRole string

const (
	MemberLead      MemberRole = "LEAD"
	MemberDeveloper MemberRole = "DEVELOPER"
	MemberDesigner  MemberRole = "DESIGNER"
	MemberTester    MemberRole = "TESTER"
	MemberMember    MemberRole = "MEMBER"
)

// ParseMemberRole defaults an empty tag to MEMBER.
func ParseMemberRole(s string) (MemberRole, error) {
	if strings.TrimSpace(s) == "" {
		return MemberMember, nil
	}
	r := MemberRole(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case MemberLead, MemberDeveloper, MemberDesigner, MemberTester, MemberMember:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRoleTag, s)
}

// Project belongs to one tenant.
type Project struct {
	store.Meta
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ClientName  string          `json:"client_name"`
	Status      Status          `json:"status"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	// CreatedBy is unset on projects imported without an author.
	CreatedBy *uuid.UUID `json:"created_by,omitempty"`
}

// Clone returns a deep copy.
func (p *Project) Clone() *Project {
	c := *p
	if p.CreatedBy != nil {
		id := *p.CreatedBy
		c.CreatedBy = &id
	}
	if p.StartDate != nil {
		d := *p.StartDate
		c.StartDate = &d
	}
	if p.EndDate != nil {
		d := *p.EndDate
		c.EndDate = &d
	}
	return &c
}

// Filter narrows project listings within a tenant.
type Filter struct {
	Status Status
	// MemberID restricts the listing to projects the user belongs to.
	MemberID uuid.UUID
}

// Member links one user to one project. A (project, user) pair is unique.
type Member struct {
	store.Meta
	ProjectID uuid.UUID  `json:"project_id"`
	UserID    uuid.UUID  `json:"user_id"`
	Role      MemberRole `json:"role"`
}

// Clone returns a copy.
func (m *Member) Clone() *Member {
	c := *m
	return &c
}

// MemberFilter narrows membership listings.
type MemberFilter struct {
	ProjectID uuid.UUID
	UserID    uuid.UUID
}

// Matches applies the filter in memory.
func (f MemberFilter) Matches(m *Member) bool {
	if f.ProjectID != uuid.Nil && m.ProjectID != f.ProjectID {
		return false
	}
	if f.UserID != uuid.Nil && m.UserID != f.UserID {
		return false
	}
	return true
}

// Store is the tenant-scoped project table.
type Store = store.Scoped[*Project, Filter]

// MemberStore is the tenant-scoped membership table.
type MemberStore = store.Scoped[*Member, MemberFilter]

// UsageChecker reports whether anything still references a project.
type UsageChecker interface {
	ProjectInUse(ctx context.Context, tenantID, projectID uuid.UUID) (bool, error)
}
