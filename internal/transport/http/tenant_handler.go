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
)

// ListTenants lists every tenant on the platform. SUPER_ADMIN only.
func (h *Handler) ListTenants(w http.ResponseWriter, r *http.Request) {
	page, err := pageParams(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	tenants, err := h.tenants.List(r.Context(), page)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, tenants)
}

// DeactivateTenant switches a tenant off. Its users can no longer
// authenticate.
func (h *Handler) DeactivateTenant(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	t, err := h.tenants.Deactivate(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, t)
}
