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

package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anand1357/timesheet-multitenant-backend/internal/app"
	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/identity"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/metrics"
	transportHTTP "github.com/anand1357/timesheet-multitenant-backend/internal/transport/http"
)

type api struct {
	t        *testing.T
	app      *app.App
	router   http.Handler
	recorder *audit.Recorder
}

func newAPI(t *testing.T, cfg transportHTTP.RouterConfig) *api {
	t.Helper()
	rec := &audit.Recorder{}
	a, err := app.New(app.MemoryBackends(), app.Options{
		Tokens: identity.TokenConfig{
			Secret:    "0123456789abcdef0123456789abcdef",
			Issuer:    "timesheet-test",
			AccessTTL: time.Hour,
		},
		Hasher:      identity.NewPasswordHasher(1024, 1, 1, 16, 32),
		AuditLogger: rec,
	})
	require.NoError(t, err)
	router := transportHTTP.NewRouter(transportHTTP.NewHandler(a.Services()), cfg)
	return &api{t: t, app: a, router: router, recorder: rec}
}

type call struct {
	method    string
	path      string
	body      any
	token     string
	tenant    string
	peer      string
	forwarded string
	chunked   bool
}

func (a *api) do(c call) *httptest.ResponseRecorder {
	a.t.Helper()
	var body bytes.Buffer
	if c.body != nil {
		require.NoError(a.t, json.NewEncoder(&body).Encode(c.body))
	}
	req := httptest.NewRequest(c.method, c.path, &body)
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.tenant != "" {
		req.Header.Set(transportHTTP.TenantHeader, c.tenant)
	}
	if c.peer != "" {
		req.RemoteAddr = c.peer
	}
	if c.forwarded != "" {
		req.Header.Set("X-Forwarded-For", c.forwarded)
	}
	if c.chunked {
		req.ContentLength = -1
		req.TransferEncoding = []string{"chunked"}
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

type authBody struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       uuid.UUID `json:"id"`
		TenantID uuid.UUID `json:"tenant_id"`
		Role     string    `json:"role"`
	} `json:"user"`
	Tenant struct {
		ID        uuid.UUID `json:"id"`
		Subdomain string    `json:"subdomain"`
	} `json:"tenant"`
}

type idBody struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

type errBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func (a *api) register(org, subdomain, email string) authBody {
	a.t.Helper()
	w := a.do(call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"organization_name": org,
		"subdomain":         subdomain,
		"email":             email,
		"password":          "secret1",
		"first_name":        "Olive",
		"last_name":         "Owner",
	}})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[authBody](a.t, w)
}

func (a *api) login(email string) authBody {
	a.t.Helper()
	w := a.do(call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{
		"email": email, "password": "secret1",
	}})
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	return decode[authBody](a.t, w)
}

func (a *api) createUser(token, email, role string) uuid.UUID {
	a.t.Helper()
	w := a.do(call{method: http.MethodPost, path: "/api/users", token: token, body: map[string]any{
		"email":       email,
		"password":    "secret1",
		"first_name":  "Eve",
		"last_name":   "Employee",
		"role":        role,
		"hourly_rate": "50",
	}})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[idBody](a.t, w).ID
}

func (a *api) createProject(token, name string) uuid.UUID {
	a.t.Helper()
	w := a.do(call{method: http.MethodPost, path: "/api/projects", token: token, body: map[string]any{
		"name": name, "start_date": "2026-01-01",
	}})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
	return decode[idBody](a.t, w).ID
}

// TestPurpose: Validates registration, login and the profile endpoint over HTTP.
// Scope: API Test
// Expected: 201 on register, 200 on login with a usable bearer token, 409 on a reused subdomain.
// Test Case ID: API-01
func TestAPI_RegisterLoginMe(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})

	reg := a.register("Acme", "acme", "owner@acme.io")
	assert.Equal(t, "ADMIN", reg.User.Role)
	assert.Equal(t, "acme", reg.Tenant.Subdomain)
	assert.NotEmpty(t, reg.RefreshToken)

	login := a.login("OWNER@acme.io")
	assert.Equal(t, reg.User.ID, login.User.ID)

	w := a.do(call{method: http.MethodGet, path: "/api/auth/me", token: login.Token})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[authBody](t, w)
	assert.Equal(t, reg.User.ID, me.User.ID)
	assert.Equal(t, reg.Tenant.ID, me.Tenant.ID)

	w = a.do(call{method: http.MethodPost, path: "/api/auth/refresh", body: map[string]string{"refresh_token": login.RefreshToken}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, decode[authBody](t, w).Token)

	w = a.do(call{method: http.MethodPost, path: "/api/auth/register", body: map[string]string{
		"organization_name": "Other", "subdomain": "acme", "email": "x@other.io",
		"password": "secret1", "first_name": "X", "last_name": "Y",
	}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(call{method: http.MethodPost, path: "/api/auth/login", body: map[string]string{"email": "owner@acme.io", "password": "wrong!!"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "invalid email or password", decode[errBody](t, w).Error)
	assert.Contains(t, a.recorder.Types(), audit.TypeLoginFailed)
}

// TestPurpose: Validates request context resolution at the HTTP boundary.
// Scope: API Test
// Security: Tenant pinning and authentication failures (CWE-284, CWE-287)
// Expected: 401 without or with a forged token, 400 for a malformed tenant header, 404 for an unknown tenant, 403 for a foreign tenant.
// Test Case ID: API-02
func TestAPI_RequestContext(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	acme := a.register("Acme", "acme", "owner@acme.io")
	globex := a.register("Globex", "globex", "owner@globex.io")

	tests := []struct {
		name   string
		token  string
		tenant string
		want   int
	}{
		{"no credential", "", "", http.StatusUnauthorized},
		{"forged token", "not-a-jwt", "", http.StatusUnauthorized},
		{"malformed tenant", acme.Token, "tenant-a", http.StatusBadRequest},
		{"unknown tenant", acme.Token, uuid.NewString(), http.StatusNotFound},
		{"foreign tenant", acme.Token, globex.Tenant.ID.String(), http.StatusForbidden},
		{"own tenant", acme.Token, acme.Tenant.ID.String(), http.StatusOK},
		{"unpinned", acme.Token, "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := a.do(call{method: http.MethodGet, path: "/api/projects", token: tt.token, tenant: tt.tenant})
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

// TestPurpose: Walks a time entry through the approval workflow over HTTP.
// Scope: API Test
// Security: Role gate on approvals and immutability of decided entries
// Expected: Employee submits (201), cannot approve (403), admin approves (200), later edit or second decision fail with 409.
// Test Case ID: API-03
func TestAPI_ApprovalWorkflow(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	owner := a.register("Acme", "acme", "owner@acme.io")

	employeeID := a.createUser(owner.Token, "eve@acme.io", "EMPLOYEE")
	projectID := a.createProject(owner.Token, "Apollo")
	w := a.do(call{method: http.MethodPost, path: fmt.Sprintf("/api/projects/%s/members/%s", projectID, employeeID), token: owner.Token})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	eve := a.login("eve@acme.io")

	w = a.do(call{method: http.MethodPost, path: "/api/timesheets", token: eve.Token, body: map[string]any{
		"project_id": projectID, "date": "2026-01-06", "hours": 8, "description": "build",
	}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	entry := decode[idBody](t, w)
	assert.Equal(t, "PENDING", entry.Status)

	approve := fmt.Sprintf("/api/timesheets/%s/approve", entry.ID)
	w = a.do(call{method: http.MethodPatch, path: approve, token: eve.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(call{method: http.MethodGet, path: "/api/timesheets/pending", token: owner.Token})
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[struct {
		Items []idBody `json:"items"`
		Total int      `json:"total"`
	}](t, w)
	assert.Equal(t, 1, pending.Total)

	w = a.do(call{method: http.MethodPatch, path: approve, token: owner.Token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "APPROVED", decode[idBody](t, w).Status)

	w = a.do(call{method: http.MethodPut, path: "/api/timesheets/" + entry.ID.String(), token: eve.Token, body: map[string]any{"hours": 4}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/reject", entry.ID), token: owner.Token,
		body: map[string]string{"rejection_reason": "late"}})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(call{method: http.MethodGet, path: fmt.Sprintf("/api/projects/%s/summary", projectID), token: owner.Token})
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[map[string]any](t, w)
	assert.Equal(t, "8", summary["approved_hours"])
	assert.Equal(t, "400", summary["billable_cost"])

	w = a.do(call{method: http.MethodDelete, path: "/api/projects/" + projectID.String(), token: owner.Token})
	assert.Equal(t, http.StatusConflict, w.Code)
}

// TestPurpose: Validates that bad input is answered with 400 and names the field.
// Scope: API Test
// Expected: Hours above 24, a bad date, a missing rejection reason and unknown JSON fields are rejected.
// Test Case ID: API-04
func TestAPI_Validation(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	owner := a.register("Acme", "acme", "owner@acme.io")
	projectID := a.createProject(owner.Token, "Apollo")

	w := a.do(call{method: http.MethodPost, path: "/api/timesheets", token: owner.Token, body: map[string]any{
		"project_id": projectID, "date": "2026-01-06", "hours": 25,
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "hours", decode[errBody](t, w).Field)

	w = a.do(call{method: http.MethodPost, path: "/api/timesheets", token: owner.Token, body: map[string]any{
		"project_id": projectID, "date": "06/01/2026", "hours": 2,
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "date", decode[errBody](t, w).Field)

	w = a.do(call{method: http.MethodPost, path: "/api/timesheets", token: owner.Token, body: map[string]any{
		"project_id": projectID, "date": "2026-01-06", "hours": 2,
	}})
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[idBody](t, w)

	w = a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/reject", entry.ID), token: owner.Token,
		body: map[string]string{"rejection_reason": ""}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "rejection_reason", decode[errBody](t, w).Field)

	w = a.do(call{method: http.MethodPost, path: "/api/projects", token: owner.Token, body: map[string]any{"name": "X", "owner": "me"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(call{method: http.MethodGet, path: "/api/timesheets/not-a-uuid", token: owner.Token})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(call{method: http.MethodGet, path: "/api/dashboard/hours-chart?days=365", token: owner.Token})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

// TestPurpose: Validates that one tenant cannot address another tenant's records by id.
// Scope: API Test
// Security: Multi-tenant data separation (CWE-639)
// Expected: A foreign id answers 404 and the foreign listing stays empty.
// Test Case ID: API-05
func TestAPI_CrossTenant(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	acme := a.register("Acme", "acme", "owner@acme.io")
	globex := a.register("Globex", "globex", "owner@globex.io")

	projectID := a.createProject(acme.Token, "Apollo")
	w := a.do(call{method: http.MethodPost, path: "/api/timesheets", token: acme.Token, body: map[string]any{
		"project_id": projectID, "date": "2026-01-06", "hours": 3,
	}})
	require.Equal(t, http.StatusCreated, w.Code)
	entry := decode[idBody](t, w)

	for _, path := range []string{
		"/api/timesheets/" + entry.ID.String(),
		"/api/projects/" + projectID.String(),
		"/api/users/" + acme.User.ID.String(),
	} {
		w = a.do(call{method: http.MethodGet, path: path, token: globex.Token})
		assert.Equal(t, http.StatusNotFound, w.Code, path)
	}

	w = a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/approve", entry.ID), token: globex.Token})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(call{method: http.MethodPost, path: "/api/timesheets", token: globex.Token, body: map[string]any{
		"project_id": projectID, "date": "2026-01-06", "hours": 3,
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "project_id", decode[errBody](t, w).Field)

	w = a.do(call{method: http.MethodGet, path: "/api/timesheets", token: globex.Token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, decode[struct {
		Total int `json:"total"`
	}](t, w).Total)
}

// TestPurpose: Validates the stricter limiter on public auth endpoints.
// Scope: API Test
// Security: Credential stuffing throttling (CWE-307)
// Expected: The request beyond the burst is answered with 429 and Retry-After.
// Test Case ID: API-06
func TestAPI_AuthRateLimit(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{
		AuthRateLimiter: transportHTTP.NewRateLimiter(0.01, 2),
	})

	body := map[string]string{"email": "nobody@example.com", "password": "secret1"}
	for i := 0; i < 2; i++ {
		w := a.do(call{method: http.MethodPost, path: "/api/auth/login", body: body})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}
	w := a.do(call{method: http.MethodPost, path: "/api/auth/login", body: body})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// The general API is not affected by the auth limiter.
	w = a.do(call{method: http.MethodGet, path: "/health"})
	assert.Equal(t, http.StatusOK, w.Code)
}

// TestPurpose: Validates that clients cannot choose their own rate-limit key or audited address.
// Scope: API Test
// Security: Forged X-Forwarded-For must not bypass login throttling or spoof audit IPs (CWE-348)
// Expected: From an untrusted peer the header is ignored; behind a trusted proxy the forwarded client is used.
// Test Case ID: API-09
func TestAPI_ClientIP_ForwardingHeaders(t *testing.T) {
	body := map[string]string{"email": "nobody@example.com", "password": "secret1"}
	login := func(a *api, peer, forwarded string) int {
		return a.do(call{method: http.MethodPost, path: "/api/auth/login", body: body, peer: peer, forwarded: forwarded}).Code
	}

	t.Run("untrusted peer", func(t *testing.T) {
		a := newAPI(t, transportHTTP.RouterConfig{AuthRateLimiter: transportHTTP.NewRateLimiter(0.01, 2)})

		limited := 0
		for i := 0; i < 20; i++ {
			if login(a, "203.0.113.7:4000", fmt.Sprintf("198.51.100.%d", i)) == http.StatusTooManyRequests {
				limited++
			}
		}
		assert.Equal(t, 18, limited)

		events := a.recorder.Events()
		require.NotEmpty(t, events)
		for _, e := range events {
			assert.Equal(t, "203.0.113.7", e.IPAddress)
		}
	})

	t.Run("trusted proxy", func(t *testing.T) {
		trusted, err := transportHTTP.ParseTrustedProxies([]string{"10.0.0.0/8"})
		require.NoError(t, err)
		a := newAPI(t, transportHTTP.RouterConfig{
			AuthRateLimiter: transportHTTP.NewRateLimiter(0.01, 2),
			TrustedProxies:  trusted,
		})

		// The client cannot prepend hops: the right-most untrusted hop wins.
		for i := 0; i < 2; i++ {
			assert.Equal(t, http.StatusUnauthorized, login(a, "10.1.2.3:4000", fmt.Sprintf("6.6.6.%d, 198.51.100.9", i)))
		}
		assert.Equal(t, http.StatusTooManyRequests, login(a, "10.1.2.3:4000", "198.51.100.9"))
		assert.Equal(t, http.StatusUnauthorized, login(a, "10.1.2.3:4000", "198.51.100.10, 10.9.9.9"))

		events := a.recorder.Events()
		require.Len(t, events, 3)
		assert.Equal(t, "198.51.100.9", events[0].IPAddress)
		assert.Equal(t, "198.51.100.10", events[2].IPAddress)
	})

	_, err := transportHTTP.ParseTrustedProxies([]string{"proxy.local"})
	assert.Error(t, err)
}

// TestPurpose: Validates that a rejected registration leaves its subdomain available.
// Scope: API Test
// Security: Invalid requests cannot reserve subdomains
// Expected: Whitespace names give 400 with the field; the corrected request with the same subdomain gives 201.
// Test Case ID: API-10
func TestAPI_RegisterRetryAfterValidationError(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	req := map[string]string{
		"organization_name": "Acme",
		"subdomain":         "acme",
		"email":             "owner@acme.io",
		"password":          "secret1",
		"first_name":        "   ",
		"last_name":         "Owner",
	}

	w := a.do(call{method: http.MethodPost, path: "/api/auth/register", body: req})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "first_name", decode[errBody](t, w).Field)

	req["first_name"] = "Olive"
	w = a.do(call{method: http.MethodPost, path: "/api/auth/register", body: req})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "acme", decode[authBody](t, w).Tenant.Subdomain)
}

// TestPurpose: Validates the operational endpoints.
// Scope: API Test
// Expected: /health answers healthy and /metrics exposes request counters by route pattern.
// Test Case ID: API-07
func TestAPI_HealthAndMetrics(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{Metrics: metrics.NewHTTP()})

	w := a.do(call{method: http.MethodGet, path: "/health"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]string](t, w)["status"])

	w = a.do(call{method: http.MethodGet, path: "/metrics"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
	assert.Contains(t, w.Body.String(), `route="/health"`)
}

// TestPurpose: Validates the platform tenant endpoints.
// Scope: API Test
// Security: Platform operations reserved to SUPER_ADMIN (CWE-285)
// Expected: A tenant ADMIN is denied; SUPER_ADMIN lists tenants and deactivates one, after which its token stops working.
// Test Case ID: API-08
func TestAPI_PlatformTenants(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	acme := a.register("Acme", "acme", "owner@acme.io")

	w := a.do(call{method: http.MethodGet, path: "/api/tenants", token: acme.Token})
	assert.Equal(t, http.StatusForbidden, w.Code)

	_, err := a.app.Bootstrap(context.Background(), identity.BootstrapConfig{Email: "root@platform.io", Password: "secret1"})
	require.NoError(t, err)
	root := a.login("root@platform.io")

	w = a.do(call{method: http.MethodGet, path: "/api/tenants", token: root.Token})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]idBody](t, w), 2)

	w = a.do(call{method: http.MethodPatch, path: "/api/tenants/" + root.Tenant.ID.String() + "/deactivate", token: root.Token})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(call{method: http.MethodPatch, path: "/api/tenants/" + acme.Tenant.ID.String() + "/deactivate", token: root.Token})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = a.do(call{method: http.MethodGet, path: "/api/projects", token: acme.Token})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

// TestPurpose: Validates the approve endpoint when the body length is unknown.
// Scope: API Test
// Expected: An empty chunked body approves, a chunked decision body is honored, unknown fields are refused with 400.
// Test Case ID: API-11
func TestAPI_ApproveChunkedBody(t *testing.T) {
	a := newAPI(t, transportHTTP.RouterConfig{})
	owner := a.register("Acme", "acme", "owner@acme.io")
	projectID := a.createProject(owner.Token, "Apollo")

	submit := func(day string) uuid.UUID {
		w := a.do(call{method: http.MethodPost, path: "/api/timesheets", token: owner.Token, body: map[string]any{
			"project_id": projectID, "date": day, "hours": 2, "description": "ops",
		}})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		return decode[idBody](t, w).ID
	}

	first := submit("2026-01-05")
	w := a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/approve", first), token: owner.Token, chunked: true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "APPROVED", decode[idBody](t, w).Status)

	second := submit("2026-01-06")
	w = a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/approve", second), token: owner.Token, chunked: true,
		body: map[string]string{"status": "REJECTED", "rejection_reason": "duplicate"}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "REJECTED", decode[idBody](t, w).Status)

	third := submit("2026-01-07")
	w = a.do(call{method: http.MethodPatch, path: fmt.Sprintf("/api/timesheets/%s/approve", third), token: owner.Token, chunked: true,
		body: map[string]string{"verdict": "yes"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_Routes(t *testing.T) {
	r := transportHTTP.NewRouter(&transportHTTP.Handler{}, transportHTTP.RouterConfig{})

	tests := []struct {
		method string
		path   string
	}{
		{"POST", "/api/auth/register"},
		{"POST", "/api/auth/login"},
		{"POST", "/api/auth/refresh"},
		{"GET", "/api/auth/me"},
		{"GET", "/api/users/active"},
		{"PATCH", "/api/users/" + uuid.NewString() + "/toggle-status"},
		{"GET", "/api/projects/mine"},
		{"POST", "/api/projects/" + uuid.NewString() + "/members/" + uuid.NewString()},
		{"GET", "/api/timesheets/pending"},
		{"PATCH", "/api/timesheets/" + uuid.NewString() + "/approve"},
		{"PATCH", "/api/timesheets/" + uuid.NewString() + "/reject"},
		{"GET", "/api/dashboard/hours-chart"},
		{"GET", "/api/tenants"},
		{"PATCH", "/api/tenants/" + uuid.NewString() + "/deactivate"},
		{"GET", "/health"},
	}
	for _, tt := range tests {
		rctx := chi.NewRouteContext()
		assert.True(t, r.Match(rctx, tt.method, tt.path), "%s %s should exist", tt.method, tt.path)
	}

	rctx := chi.NewRouteContext()
	assert.False(t, r.Match(rctx, "GET", "/metrics"), "/metrics is only mounted with a registry")
}
