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

// Package timesheet implements time entries and their approval workflow:
// PENDING entries are editable by their owner until a manager or admin moves
// them to APPROVED or REJECTED. Both are terminal.
package timesheet

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// Kind names time entries in store errors.
const Kind = "time_entry"

// Domain errors
var (
	// ErrInvalidTransition is returned when a decision targets an entry that
	// is no longer PENDING, including one decided concurrently.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrLockedRecord is returned when an owner edits or deletes an entry
	// that has already been decided.
	ErrLockedRecord = errors.New("time entry is locked")
	ErrInvalidState = errors.New("invalid time entry status")
)

// Status is the approval state of an entry.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// ParseStatus accepts any casing.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	switch st {
	case StatusPending, StatusApproved, StatusRejected:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidState, s)
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// TimeEntry is hours one user worked on one project on one day.
type TimeEntry struct {
	store.Meta
	UserID          uuid.UUID       `json:"user_id"`
	ProjectID       uuid.UUID       `json:"project_id"`
	Date            time.Time       `json:"date"`
	Hours           decimal.Decimal `json:"hours"`
	Description     string          `json:"description"`
	IsBillable      bool            `json:"is_billable"`
	Status          Status          `json:"status"`
	ApprovedBy      *uuid.UUID      `json:"approved_by,omitempty"`
	ApprovedAt      *time.Time      `json:"approved_at,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// Clone returns a deep copy.
func (e *TimeEntry) Clone() *TimeEntry {
	c := *e
	if e.ApprovedBy != nil {
		id := *e.ApprovedBy
		c.ApprovedBy = &id
	}
	if e.ApprovedAt != nil {
		at := *e.ApprovedAt
		c.ApprovedAt = &at
	}
	return &c
}

// Filter narrows entry listings within a tenant. From and To are inclusive
// calendar days; zero values leave that side open.
type Filter struct {
	Status    Status
	UserID    uuid.UUID
	ProjectID uuid.UUID
	From      time.Time
	To        time.Time
}

// Matches applies the filter in memory.
func (f Filter) Matches(e *TimeEntry) bool {
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	if f.UserID != uuid.Nil && e.UserID != f.UserID {
		return false
	}
	if f.ProjectID != uuid.Nil && e.ProjectID != f.ProjectID {
		return false
	}
	if !f.From.IsZero() && e.Date.Before(Day(f.From)) {
		return false
	}
	if !f.To.IsZero() && e.Date.After(Day(f.To)) {
		return false
	}
	return true
}

// Store is the tenant-scoped time entry table.
type Store = store.Scoped[*TimeEntry, Filter]

var maxHours = decimal.NewFromInt(24)

// ValidateHours accepts 0 < h <= 24 with at most two decimal places.
func ValidateHours(h decimal.Decimal) error {
	if !h.IsPositive() || h.GreaterThan(maxHours) {
		return validation.New("hours", "must be greater than 0 and at most 24")
	}
	if !h.Equal(h.Round(2)) {
		return validation.New("hours", "must have at most two decimal places")
	}
	return nil
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
