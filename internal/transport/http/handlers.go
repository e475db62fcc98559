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
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/anand1357/timesheet-multitenant-backend/internal/dashboard"
	"github.com/anand1357/timesheet-multitenant-backend/internal/identity"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/metrics"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

// Pinger reports storage health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services are the application services behind the API.
type Services struct {
	Identity  *identity.Service
	Tenants   *tenant.Admin
	Users     *user.Service
	Projects  *project.Service
	Workflow  *timesheet.Workflow
	Dashboard *dashboard.Service
	Resolver  ContextResolver

	// Health is optional; without it /health only reports liveness.
	Health Pinger
}

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identity  *identity.Service
	tenants   *tenant.Admin
	users     *user.Service
	projects  *project.Service
	workflow  *timesheet.Workflow
	dashboard *dashboard.Service
	resolver  ContextResolver
	health    Pinger
}

// NewHandler creates a new HTTP handler
func NewHandler(s Services) *Handler {
	return &Handler{
		identity:  s.Identity,
		tenants:   s.Tenants,
		users:     s.Users,
		projects:  s.Projects,
		workflow:  s.Workflow,
		dashboard: s.Dashboard,
		resolver:  s.Resolver,
		health:    s.Health,
	}
}

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	RateLimiter     *RateLimiter
	AuthRateLimiter *RateLimiter
	// Metrics, when set, records request metrics and serves /metrics.
	Metrics        *metrics.HTTP
	RequestTimeout time.Duration
	AllowedOrigins []string
	// TrustedProxies are the peers whose forwarding headers name the client.
	TrustedProxies []netip.Prefix
}

// NewRouter creates a new HTTP router
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 30 * time.Second
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(ClientIPMiddleware(cfg.TrustedProxies))
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", TenantHeader},
			ExposedHeaders:   []string{"X-Request-Id"},
			AllowCredentials: true,
			MaxAge:           3600,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(RateLimitMiddleware(cfg.RateLimiter))
	}
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", h.HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	authenticated := RequestContextMiddleware(h.resolver)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if cfg.AuthRateLimiter != nil {
					r.Use(RateLimitMiddleware(cfg.AuthRateLimiter))
				}
				r.Post("/register", h.Register)
				r.Post("/login", h.Login)
				r.Post("/refresh", h.Refresh)
			})
			r.With(authenticated).Get("/me", h.Me)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(authenticated)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", h.ListUsers)
				r.Post("/", h.CreateUser)
				r.Get("/active", h.ListActiveUsers)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetUser)
					r.Put("/", h.UpdateUser)
					r.Delete("/", h.DeactivateUser)
					r.Patch("/toggle-status", h.ToggleUserStatus)
				})
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.Post("/", h.CreateProject)
				r.Get("/active", h.ListActiveProjects)
				r.Get("/mine", h.ListMyProjects)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetProject)
					r.Put("/", h.UpdateProject)
					r.Delete("/", h.DeleteProject)
					r.Get("/summary", h.ProjectSummary)
					r.Get("/members", h.ListProjectMembers)
					r.Post("/members/{userID}", h.AddProjectMember)
					r.Delete("/members/{userID}", h.RemoveProjectMember)
				})
			})

			r.Route("/timesheets", func(r chi.Router) {
				r.Get("/", h.ListTimeEntries)
				r.Post("/", h.SubmitTimeEntry)
				r.Get("/mine", h.ListMyTimeEntries)
				r.Get("/pending", h.ListPendingTimeEntries)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetTimeEntry)
					r.Put("/", h.EditTimeEntry)
					r.Delete("/", h.DeleteTimeEntry)
					r.Patch("/approve", h.ApproveTimeEntry)
					r.Patch("/reject", h.RejectTimeEntry)
				})
			})

			r.Route("/dashboard", func(r chi.Router) {
				r.Get("/stats", h.DashboardStats)
				r.Get("/hours-chart", h.HoursChart)
			})

			r.Route("/tenants", func(r chi.Router) {
				r.Get("/", h.ListTenants)
				r.Patch("/{id}/deactivate", h.DeactivateTenant)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			slog.ErrorContext(r.Context(), "health check failed", logger.Component("storage"), logger.Error(err))
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":  "unhealthy",
				"service": "timesheet",
			})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "timesheet",
	})
}
