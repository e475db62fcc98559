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

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// CreateCommand carries the fields of a new project.
type CreateCommand struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=2000"`
	ClientName  string          `json:"client_name" validate:"max=200"`
	Status      Status          `json:"status" validate:"omitempty,oneof=ACTIVE COMPLETED ON_HOLD CANCELLED"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	Budget      decimal.Decimal `json:"budget"`
}

// UpdateCommand changes only the non-nil fields.
type UpdateCommand struct {
	Name        *string
	Description *string
	ClientName  *string
	Status      *Status
	StartDate   *time.Time
	EndDate     *time.Time
	Budget      *decimal.Decimal
}

// Service provides project and membership business logic
type Service struct {
	projects    Store
	members     MemberStore
	users       user.Store
	usage       UsageChecker
	guard       *authz.Guard
	auditLogger audit.Logger
}

// NewService creates a new project service. usage may be nil, in which case
// projects can always be deleted.
func NewService(projects Store, members MemberStore, users user.Store, usage UsageChecker, guard *authz.Guard, auditLogger audit.Logger) *Service {
	return &Service{
		projects:    projects,
		members:     members,
		users:       users,
		usage:       usage,
		guard:       guard,
		auditLogger: auditLogger,
	}
}

// List returns tenant projects. Roles without tenant-wide read only see the
// projects they are members of.
func (s *Service) List(ctx context.Context, filter Filter, page store.Page) (store.Result[*Project], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*Project]{}, err
	}
	if !s.guard.Allows(rc.Role(), authz.ActionProjectList) {
		if err := s.guard.Check(rc.Role(), authz.ActionProjectRead, rc.UserID(), rc.UserID()); err != nil {
			return store.Result[*Project]{}, err
		}
		filter.MemberID = rc.UserID()
	}
	return s.projects.List(ctx, rc.TenantID(), filter, page)
}

// ListActive is List restricted to ACTIVE projects.
func (s *Service) ListActive(ctx context.Context, page store.Page) (store.Result[*Project], error) {
	return s.List(ctx, Filter{Status: StatusActive}, page)
}

// ListMine returns the projects the caller is a member of.
func (s *Service) ListMine(ctx context.Context, page store.Page) (store.Result[*Project], error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return store.Result[*Project]{}, err
	}
	return s.projects.List(ctx, rc.TenantID(), Filter{MemberID: rc.UserID()}, page)
}

// Get returns one project if the caller may read it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Project, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.projects.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, rc, id); err != nil {
		return nil, err
	}
	return p, nil
}

// Create adds a project to the active tenant.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Project, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionProjectCreate, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}

	cmd.Name = strings.TrimSpace(cmd.Name)
	if err := validation.Struct(cmd); err != nil {
		return nil, err
	}
	if cmd.Status == "" {
		cmd.Status = StatusActive
	}
	p := &Project{
		Name:        cmd.Name,
		Description: cmd.Description,
		ClientName:  cmd.ClientName,
		Status:      cmd.Status,
		StartDate:   cmd.StartDate,
		EndDate:     cmd.EndDate,
		Budget:      cmd.Budget,
	}
	author := rc.UserID()
	p.CreatedBy = &author
	if err := validateProject(p); err != nil {
		return nil, err
	}

	if _, err := s.projects.Save(ctx, rc.TenantID(), p); err != nil {
		return nil, err
	}
	s.log(ctx, rc, audit.TypeProjectCreated, p.ID, nil)
	return p, nil
}

// Update changes project fields.
func (s *Service) Update(ctx context.Context, id uuid.UUID, cmd UpdateCommand) (*Project, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionProjectUpdate, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}

	p, err := s.projects.FindByID(ctx, rc.TenantID(), id)
	if err != nil {
		return nil, err
	}
	if cmd.Name != nil {
		p.Name = strings.TrimSpace(*cmd.Name)
	}
	if cmd.Description != nil {
		p.Description = *cmd.Description
	}
	if cmd.ClientName != nil {
		p.ClientName = *cmd.ClientName
	}
	if cmd.Status != nil {
		st, err := ParseStatus(string(*cmd.Status))
		if err != nil {
			return nil, validation.New("status", "must be one of ACTIVE COMPLETED ON_HOLD CANCELLED")
		}
		p.Status = st
	}
	if cmd.StartDate != nil {
		p.StartDate = cmd.StartDate
	}
	if cmd.EndDate != nil {
		p.EndDate = cmd.EndDate
	}
	if cmd.Budget != nil {
		p.Budget = *cmd.Budget
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}

	if _, err := s.projects.Save(ctx, rc.TenantID(), p); err != nil {
		return nil, err
	}
	s.log(ctx, rc, audit.TypeProjectUpdated, p.ID, nil)
	return p, nil
}

// Delete removes a project and its memberships. Projects with time entries
// are kept and ErrProjectInUse is returned; set them to CANCELLED instead.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionProjectDelete, uuid.Nil, rc.UserID()); err != nil {
		return err
	}
	if _, err := s.projects.FindByID(ctx, rc.TenantID(), id); err != nil {
		return err
	}
	if s.usage != nil {
		inUse, err := s.usage.ProjectInUse(ctx, rc.TenantID(), id)
		if err != nil {
			return err
		}
		if inUse {
			return ErrProjectInUse
		}
	}

	// The backend re-checks references atomically with the delete, so an entry
	// submitted after the check above still keeps the project.
	if err := s.projects.Delete(ctx, rc.TenantID(), id); err != nil {
		return err
	}
	members, err := s.members.List(ctx, rc.TenantID(), MemberFilter{ProjectID: id}, store.All)
	if err != nil {
		return err
	}
	for _, m := range members.Items {
		if err := s.members.Delete(ctx, rc.TenantID(), m.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
	}
	s.log(ctx, rc, audit.TypeProjectDeleted, id, nil)
	return nil
}

// AddMember links a user of the same tenant to the project.
func (s *Service) AddMember(ctx context.Context, projectID, userID uuid.UUID, role string) (*Member, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionProjectMembers, uuid.Nil, rc.UserID()); err != nil {
		return nil, err
	}

	tag, err := ParseMemberRole(role)
	if err != nil {
		return nil, validation.New("role", "must be one of LEAD DEVELOPER DESIGNER TESTER MEMBER")
	}
	if _, err := s.projects.FindByID(ctx, rc.TenantID(), projectID); err != nil {
		return nil, err
	}
	u, err := s.users.FindByID(ctx, rc.TenantID(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, validation.New("user_id", "does not belong to this tenant")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, validation.New("user_id", "is not active")
	}

	existing, err := s.members.List(ctx, rc.TenantID(), MemberFilter{ProjectID: projectID, UserID: userID}, store.Page{Size: 1})
	if err != nil {
		return nil, err
	}
	if existing.Total > 0 {
		return nil, ErrAlreadyMember
	}

	m := &Member{ProjectID: projectID, UserID: userID, Role: tag}
	if _, err := s.members.Save(ctx, rc.TenantID(), m); err != nil {
		return nil, err
	}
	s.log(ctx, rc, audit.TypeProjectMemberAdded, projectID, map[string]any{"user_id": userID.String(), "role": string(tag)})
	return m, nil
}

// RemoveMember unlinks a user from the project.
func (s *Service) RemoveMember(ctx context.Context, projectID, userID uuid.UUID) error {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return err
	}
	if err := s.guard.Check(rc.Role(), authz.ActionProjectMembers, uuid.Nil, rc.UserID()); err != nil {
		return err
	}

	existing, err := s.members.List(ctx, rc.TenantID(), MemberFilter{ProjectID: projectID, UserID: userID}, store.Page{Size: 1})
	if err != nil {
		return err
	}
	if len(existing.Items) == 0 {
		return ErrNotMember
	}
	if err := s.members.Delete(ctx, rc.TenantID(), existing.Items[0].ID); err != nil {
		return err
	}
	s.log(ctx, rc, audit.TypeProjectMemberRemoved, projectID, map[string]any{"user_id": userID.String()})
	return nil
}

// Members lists the memberships of a project the caller may read.
func (s *Service) Members(ctx context.Context, projectID uuid.UUID) ([]*Member, error) {
	rc, err := requestctx.Require(ctx)
	if err != nil {
		return nil, err
	}
	if _, err := s.projects.FindByID(ctx, rc.TenantID(), projectID); err != nil {
		return nil, err
	}
	if err := s.checkRead(ctx, rc, projectID); err != nil {
		return nil, err
	}
	res, err := s.members.List(ctx, rc.TenantID(), MemberFilter{ProjectID: projectID}, store.All)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// IsMember reports whether userID belongs to projectID in tenantID.
func (s *Service) IsMember(ctx context.Context, tenantID, projectID, userID uuid.UUID) (bool, error) {
	res, err := s.members.List(ctx, tenantID, MemberFilter{ProjectID: projectID, UserID: userID}, store.Page{Size: 1})
	if err != nil {
		return false, err
	}
	return res.Total > 0, nil
}

// checkRead treats membership as ownership for the project:read policy.
func (s *Service) checkRead(ctx context.Context, rc requestctx.RequestContext, projectID uuid.UUID) error {
	if s.guard.Allows(rc.Role(), authz.ActionProjectRead) {
		return nil
	}
	owner := uuid.Nil
	member, err := s.IsMember(ctx, rc.TenantID(), projectID, rc.UserID())
	if err != nil {
		return err
	}
	if member {
		owner = rc.UserID()
	}
	return s.guard.Check(rc.Role(), authz.ActionProjectRead, owner, rc.UserID())
}

func (s *Service) log(ctx context.Context, rc requestctx.RequestContext, typ string, projectID uuid.UUID, md map[string]any) {
	s.auditLogger.Log(ctx, audit.Event{
		Type:       typ,
		TenantID:   rc.TenantID().String(),
		ActorID:    rc.UserID().String(),
		EntityType: audit.EntityProject,
		EntityID:   projectID.String(),
		Metadata:   md,
	})
}

func validateProject(p *Project) error {
	if p.Name == "" {
		return validation.New("name", "is required")
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return validation.New("end_date", "must not be before start_date")
	}
	if p.Budget.IsNegative() {
		return validation.New("budget", "must not be negative")
	}
	if _, err := ParseStatus(string(p.Status)); err != nil {
		return validation.New("status", fmt.Sprintf("must be one of %s %s %s %s", StatusActive, StatusCompleted, StatusOnHold, StatusCancelled))
	}
	return nil
}
