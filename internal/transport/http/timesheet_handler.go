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
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

type timeEntryResponse struct {
	ID              uuid.UUID        `json:"id"`
	TenantID        uuid.UUID        `json:"tenant_id"`
	UserID          uuid.UUID        `json:"user_id"`
	ProjectID       uuid.UUID        `json:"project_id"`
	Date            string           `json:"date"`
	Hours           decimal.Decimal  `json:"hours"`
	Description     string           `json:"description"`
	IsBillable      bool             `json:"is_billable"`
	Status          timesheet.Status `json:"status"`
	ApprovedBy      *uuid.UUID       `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time       `json:"approved_at,omitempty"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Version         int              `json:"version"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func timeEntryView(e *timesheet.TimeEntry) timeEntryResponse {
	return timeEntryResponse{
		ID:              e.ID,
		TenantID:        e.TenantID,
		UserID:          e.UserID,
		ProjectID:       e.ProjectID,
		Date:            e.Date.Format(dateLayout),
		Hours:           e.Hours,
		Description:     e.Description,
		IsBillable:      e.IsBillable,
		Status:          e.Status,
		ApprovedBy:      e.ApprovedBy,
		ApprovedAt:      e.ApprovedAt,
		RejectionReason: e.RejectionReason,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

// TimeEntryRequest is the body of submit and edit. On edit only the fields
// present change.
type TimeEntryRequest struct {
	ProjectID   *uuid.UUID       `json:"project_id"`
	Date        *string          `json:"date"`
	Hours       *decimal.Decimal `json:"hours"`
	Description *string          `json:"description"`
	IsBillable  *bool            `json:"is_billable"`
}

// DecisionRequest approves or rejects a PENDING entry. Status defaults to
// APPROVED on the approve route.
type DecisionRequest struct {
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason"`
}

// entryFilter reads ?status=&user_id=&project_id=&from=&to=
func entryFilter(r *http.Request) (timesheet.Filter, error) {
	var f timesheet.Filter
	var err error
	q := r.URL.Query()
	if v := q.Get("status"); v != "" {
		if f.Status, err = timesheet.ParseStatus(v); err != nil {
			return f, err
		}
	}
	if f.UserID, err = queryUUID(r, "user_id"); err != nil {
		return f, err
	}
	if f.ProjectID, err = queryUUID(r, "project_id"); err != nil {
		return f, err
	}
	if f.From, err = parseDate("from", q.Get("from")); err != nil {
		return f, err
	}
	if f.To, err = parseDate("to", q.Get("to")); err != nil {
		return f, err
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.To.Before(f.From) {
		return f, validation.New("to", "must not be before from")
	}
	return f, nil
}

// ListTimeEntries lists the tenant's time entries for managers
func (h *Handler) ListTimeEntries(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	filter, err := entryFilter(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.workflow.List(r.Context(), filter, page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, timeEntryView))
}

// ListMyTimeEntries lists the caller's own time entries
func (h *Handler) ListMyTimeEntries(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	filter, err := entryFilter(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.workflow.ListMine(r.Context(), filter, page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, timeEntryView))
}

// ListPendingTimeEntries lists entries awaiting a decision
func (h *Handler) ListPendingTimeEntries(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.workflow.ListPending(r.Context(), page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, timeEntryView))
}

// GetTimeEntry returns one time entry
func (h *Handler) GetTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	e, err := h.workflow.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, timeEntryView(e))
}

// SubmitTimeEntry records a new PENDING entry for the caller
func (h *Handler) SubmitTimeEntry(w http.ResponseWriter, r *http.Request) {
	var req TimeEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseDate("date", deref(req.Date))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	billable := true
	if req.IsBillable != nil {
		billable = *req.IsBillable
	}
	e, err := h.workflow.Submit(r.Context(), timesheet.SubmitCommand{
		ProjectID:   deref(req.ProjectID),
		Date:        date,
		Hours:       deref(req.Hours),
		Description: deref(req.Description),
		IsBillable:  billable,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, timeEntryView(e))
}

// EditTimeEntry changes the caller's own PENDING entry
func (h *Handler) EditTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req TimeEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	date, err := parseOptionalDate("date", req.Date)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	e, err := h.workflow.Edit(r.Context(), id, timesheet.EditCommand{
		ProjectID:   req.ProjectID,
		Date:        date,
		Hours:       req.Hours,
		Description: req.Description,
		IsBillable:  req.IsBillable,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, timeEntryView(e))
}

// DeleteTimeEntry deletes a PENDING entry
func (h *Handler) DeleteTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.workflow.Delete(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ApproveTimeEntry decides a PENDING entry. Without a body, or with status
// APPROVED, it approves; status REJECTED rejects with the given reason.
func (h *Handler) ApproveTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	approve := true
	switch strings.ToUpper(strings.TrimSpace(req.Status)) {
	case "", string(timesheet.StatusApproved):
	case string(timesheet.StatusRejected):
		approve = false
	default:
		respondErr(w, r, validation.New("status", "must be APPROVED or REJECTED"))
		return
	}

	e, err := h.workflow.Decide(r.Context(), id, approve, req.RejectionReason)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, timeEntryView(e))
}

// RejectTimeEntry rejects a PENDING entry; rejection_reason is required
func (h *Handler) RejectTimeEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req DecisionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	e, err := h.workflow.Reject(r.Context(), id, req.RejectionReason)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, timeEntryView(e))
}
