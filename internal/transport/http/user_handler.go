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

	"github.com/shopspring/decimal"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

func userView(u *user.User) *user.User { return u }

// ListUsers lists the tenant's users, optionally narrowed by ?role= and
// ?active=true.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	var filter user.Filter
	if v := r.URL.Query().Get("role"); v != "" {
		role, err := authz.ParseRole(v)
		if err != nil {
			respondErr(w, r, err)
			return
		}
		filter.Role = role
	}
	filter.ActiveOnly = r.URL.Query().Get("active") == "true"

	res, err := h.users.List(r.Context(), filter, page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, userView))
}

// ListActiveUsers lists active users for pickers; any role may call it.
func (h *Handler) ListActiveUsers(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	res, err := h.users.ListActive(r.Context(), page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, pageOf(res, userView))
}

// GetUser returns one user
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// CreateUser adds a user to the tenant
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req user.CreateCommand
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Create(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// UpdateUserRequest changes only the fields present
type UpdateUserRequest struct {
	Email       *string          `json:"email"`
	Password    *string          `json:"password"`
	FirstName   *string          `json:"first_name"`
	LastName    *string          `json:"last_name"`
	PhoneNumber *string          `json:"phone_number"`
	Role        *authz.Role      `json:"role"`
	HourlyRate  *decimal.Decimal `json:"hourly_rate"`
}

// UpdateUser updates a user
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var req UpdateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	u, err := h.users.Update(r.Context(), id, user.UpdateCommand{
		Email:       req.Email,
		Password:    req.Password,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Role:        req.Role,
		HourlyRate:  req.HourlyRate,
	})
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// DeactivateUser soft deletes a user
func (h *Handler) DeactivateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	if err := h.users.Deactivate(r.Context(), id); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ToggleUserStatus flips a user between active and inactive
func (h *Handler) ToggleUserStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	u, err := h.users.ToggleStatus(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}
