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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/identity"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

// dateLayout is the wire format of calendar dates.
const dateLayout = "2006-01-02"

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// pageBody wraps one page of a listing.
type pageBody[T any] struct {
	Items      []T `json:"items"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Size       int `json:"size"`
	TotalPages int `json:"total_pages"`
}

func pageOf[E, T any](res store.Result[E], view func(E) T) pageBody[T] {
	items := make([]T, 0, len(res.Items))
	for _, e := range res.Items {
		items = append(items, view(e))
	}
	return pageBody[T]{
		Items:      items,
		Total:      res.Total,
		Page:       res.Page.Number,
		Size:       res.Page.Size,
		TotalPages: res.TotalPages(),
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

// respondErr translates a domain error into its status code. Internal
// errors are logged and answered with a generic body.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	var denied *authz.DeniedError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, http.StatusBadRequest, errorBody{Error: verr.Reason, Field: verr.Field})
	case errors.Is(err, tenant.ErrMalformedTenantID),
		errors.Is(err, project.ErrInvalidStatus),
		errors.Is(err, project.ErrInvalidRoleTag),
		errors.Is(err, timesheet.ErrInvalidState),
		errors.Is(err, authz.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, requestctx.ErrAuthenticationFailed),
		errors.Is(err, requestctx.ErrNoRequestContext),
		errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrAccountDisabled):
		respondError(w, http.StatusUnauthorized, publicAuthMessage(err))
	case errors.As(err, &denied):
		slog.WarnContext(r.Context(), "authorization denied",
			logger.Role(string(denied.Role)),
			logger.Action(string(denied.Action)),
			logger.Path(r.URL.Path),
		)
		respondError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, tenant.ErrTenantNotFound),
		errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, store.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, timesheet.ErrInvalidTransition),
		errors.Is(err, timesheet.ErrLockedRecord),
		errors.Is(err, store.ErrConflict),
		errors.Is(err, store.ErrCrossTenantWrite),
		errors.Is(err, user.ErrEmailTaken),
		errors.Is(err, user.ErrUserLimitReached),
		errors.Is(err, tenant.ErrSubdomainTaken),
		errors.Is(err, project.ErrAlreadyMember),
		errors.Is(err, project.ErrNotMember),
		errors.Is(err, project.ErrProjectInUse):
		respondError(w, http.StatusConflict, err.Error())
	default:
		slog.ErrorContext(r.Context(), "request failed",
			logger.RequestID(middleware.GetReqID(r.Context())),
			logger.Path(r.URL.Path),
			logger.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// publicAuthMessage never says which half of a credential was wrong.
func publicAuthMessage(err error) string {
	switch {
	case errors.Is(err, identity.ErrAccountDisabled):
		return "account is disabled"
	case errors.Is(err, identity.ErrInvalidCredentials):
		return "invalid email or password"
	}
	return "authentication required"
}

// decodeJSON reads a single JSON object from the body, rejecting unknown
// fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty,
// whatever the Content-Length says.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// uuidParam parses a chi URL parameter.
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, errorBody{Error: "must be a UUID", Field: name})
		return uuid.Nil, false
	}
	return id, true
}

// pageParams reads ?page= (zero-based) and ?size=.
func pageParams(r *http.Request) (store.Page, error) {
	q := r.URL.Query()
	p := store.Page{}
	if v := q.Get("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return p, validation.New("page", "must be a non-negative integer")
		}
		p.Number = n
	}
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return p, validation.New("size", "must be a positive integer")
		}
		p.Size = n
	}
	return p.Normalize(), nil
}

// parseDate parses a YYYY-MM-DD value; empty yields the zero time.
func parseDate(field, v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, v)
	if err != nil {
		return time.Time{}, validation.New(field, fmt.Sprintf("must be a date in %s form", dateLayout))
	}
	return t, nil
}

func parseOptionalDate(field string, v *string) (*time.Time, error) {
	if v == nil || *v == "" {
		return nil, nil
	}
	t, err := parseDate(field, *v)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(dateLayout)
	return &s
}

func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return uuid.Nil, validation.New(name, "must be a UUID")
	}
	return id, nil
}
