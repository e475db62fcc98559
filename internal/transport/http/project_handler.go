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

package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
)

// projectResponse renders dates as YYYY-MM-DD.
type projectResponse struct {
	ID          uuid.UUID       `json:"id"`
	TenantID    uuid.UUID       `json:"tenant_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	ClientName  string          `json:"client_name"`
	Status      project.Status  `json:"status"`
	StartDate   *string         `json:"start_date,omitempty"`
	EndDate     *string         `json:"end_date,omitempty"`
	Budget      decimal.Decimal `json:"budget"`
	Version     int             `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func projectView(p *project.Project) projectResponse {
	return projectResponse{
		ID:          p.ID,
		TenantID:    p.TenantID,
		Name:        p.Name,
		Description: p.Description,
		ClientName:  p.ClientName,
		Status:      p.Status,
		StartDate:   formatDate(p.StartDate),
		EndDate:     formatDate(p.EndDate),
		Budget:      p.Budget,
		Version:     p.Version,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

// ProjectRequest is the body of project create and update. On update only
// the fields present change.
type ProjectRequest struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	ClientName  *string          `json:"client_name"`
	Status      *string          `json:"status"`
	StartDate   *string          `json:"start_date"`
	EndDate     *string          `json:"end_date"`
	Budget      *decimal.Decimal `json:"budget"`
}

func (req ProjectRequest) dates() (start, end *time.Time, err error) {
	if start, err = parseOptionalDate("start_date", req.StartDate); err != nil {
		return nil, nil, err
	}
	if end, err = parseOptionalDate("end_date", req.EndDate); err != nil {
		return nil, nil, err
	}
	return start, end, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

// ListProjects lists projects visible to the caller, optionally by ?status=
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var filter project.Filter
	if v := r.URL.Query().Get("status"); v != "" {
		if filter.Status, err = project.ParseStatus(v); err != nil {
			respondErr(w, r, err)
			return
		}
	}
	res, err := h.projects.List(r.Context(), filter, page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, projectView))
}

// ListActiveProjects lists ACTIVE projects visible to the caller
func (h *Handler) ListActiveProjects(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.projects.ListActive(r.Context(), page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, projectView))
}

// ListMyProjects lists the projects the caller is a member of
func (h *Handler) ListMyProjects(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.projects.ListMine(r.Context(), page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, projectView))
}

// GetProject returns one project
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	p, err := h.projects.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projectView(p))
}

// CreateProject creates a project
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, end, err := req.dates()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	p, err := h.projects.Create(r.Context(), project.CreateCommand{
		Name:        deref(req.Name),
		Description: deref(req.Description),
		ClientName:  deref(req.ClientName),
		Status:      project.Status(deref(req.Status)),
		StartDate:   start,
		EndDate:     end,
		Budget:      deref(req.Budget),
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, projectView(p))
}

// UpdateProject updates a project
func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req ProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	start, end, err := req.dates()
	if err != nil {
		respondErr(w, r, err)
		return
	}
	cmd := project.UpdateCommand{
		Name:        req.Name,
		Description: req.Description,
		ClientName:  req.ClientName,
		StartDate:   start,
		EndDate:     end,
		Budget:      req.Budget,
	}
	if req.Status != nil {
		st := project.Status(*req.Status)
		cmd.Status = &st
	}
	p, err := h.projects.Update(r.Context(), id, cmd)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, projectView(p))
}

// DeleteProject deletes a project without time entries
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.projects.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ProjectSummary returns approved hours and billable cost of a project
func (h *Handler) ProjectSummary(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	summary, err := h.dashboard.Summary(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// ListProjectMembers lists a project's memberships
func (h *Handler) ListProjectMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	members, err := h.projects.Members(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if members == nil {
		members = []*project.Member{}
	}
	respondJSON(w, http.StatusOK, members)
}

// AddMemberRequest optionally tags the membership
type AddMemberRequest struct {
	Role string `json:"role"`
}

// AddProjectMember adds a user of the tenant to a project. The body is
// optional.
func (h *Handler) AddProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	var req AddMemberRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	m, err := h.projects.AddMember(r.Context(), projectID, userID, req.Role)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, m)
}

// RemoveProjectMember removes a user from a project
func (h *Handler) RemoveProjectMember(w http.ResponseWriter, r *http.Request) {
	projectID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	userID, ok := uuidParam(w, r, "userID")
	if !ok {
		return
	}
	if err := h.projects.RemoveMember(r.Context(), projectID, userID); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
