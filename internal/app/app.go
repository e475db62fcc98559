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

// Package app assembles the services of the timesheet backend over a set of
// storage backends.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/dashboard"
	"github.com/anand1357/timesheet-multitenant-backend/internal/identity"
	"github.com/anand1357/timesheet-multitenant-backend/internal/project"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store/memory"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store/postgres"
	"github.com/anand1357/timesheet-multitenant-backend/internal/tenant"
	"github.com/anand1357/timesheet-multitenant-backend/internal/timesheet"
	transportHTTP "github.com/anand1357/timesheet-multitenant-backend/internal/transport/http"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

// UserBackend stores users and answers the cross-tenant email lookup.
type UserBackend interface {
	store.Backend[*user.User, user.Filter]
	user.Directory
}

// Backends is one complete storage implementation.
type Backends struct {
	Tenants     tenant.Repository
	Users       UserBackend
	Projects    store.Backend[*project.Project, project.Filter]
	Members     store.Backend[*project.Member, project.MemberFilter]
	TimeEntries store.Backend[*timesheet.TimeEntry, timesheet.Filter]
	// Audit, when set, persists audit events next to the log stream.
	Audit audit.Logger
	// Health, when set, backs /health.
	Health transportHTTP.Pinger
}

// MemoryBackends returns empty in-memory tables.
func MemoryBackends() Backends {
	members := memory.NewMembers()
	projects := memory.NewProjects(members)
	return Backends{
		Tenants:     memory.NewTenants(),
		Users:       memory.NewUsers(),
		Projects:    projects,
		Members:     members,
		TimeEntries: memory.NewLinkedTimeEntries(projects),
	}
}

// PostgresBackends returns the PostgreSQL tables of db.
func PostgresBackends(db *postgres.DB) Backends {
	return Backends{
		Tenants:     postgres.NewTenantRepository(db),
		Users:       postgres.NewUsers(db),
		Projects:    postgres.NewProjects(db),
		Members:     postgres.NewMembers(db),
		TimeEntries: postgres.NewTimeEntries(db),
		Audit:       postgres.NewAuditSink(db, nil),
		Health:      db,
	}
}

// Options configures New. Zero values fall back to production defaults.
type Options struct {
	Tokens identity.TokenConfig
	Hasher *identity.PasswordHasher
	// AuditLogger receives every audit event; Backends.Audit is added to it.
	AuditLogger audit.Logger
	Recorder    timesheet.Recorder
	Clock       func() time.Time
}

// App holds the wired services.
type App struct {
	Tenants     *tenant.Service
	TenantAdmin *tenant.Admin
	Users       *user.Service
	Projects    *project.Service
	Workflow    *timesheet.Workflow
	Dashboard   *dashboard.Service
	Identity    *identity.Service
	Resolver    *requestctx.Resolver
	Guard       *authz.Guard

	health transportHTTP.Pinger
}

// New wires every service over b.
func New(b Backends, opts Options) (*App, error) {
	guard, err := authz.NewDefaultGuard()
	if err != nil {
		return nil, fmt.Errorf("failed to build authorization guard: %w", err)
	}
	tokens, err := identity.NewTokenManager(opts.Tokens)
	if err != nil {
		return nil, err
	}
	hasher := opts.Hasher
	if hasher == nil {
		hasher = identity.DefaultPasswordHasher()
	}

	var auditLogger audit.Logger = audit.NewSlogLogger(nil)
	if opts.AuditLogger != nil {
		auditLogger = opts.AuditLogger
	}
	if b.Audit != nil {
		auditLogger = audit.Multi{auditLogger, b.Audit}
	}

	var storeOpts []store.Option
	if opts.Clock != nil {
		storeOpts = append(storeOpts, store.WithClock(opts.Clock))
	}
	users := store.New[*user.User, user.Filter](user.Kind, b.Users, storeOpts...)
	projects := store.New[*project.Project, project.Filter](project.Kind, b.Projects, storeOpts...)
	members := store.New[*project.Member, project.MemberFilter](project.MemberKind, b.Members, storeOpts...)
	entries := store.New[*timesheet.TimeEntry, timesheet.Filter](timesheet.Kind, b.TimeEntries, storeOpts...)

	var wfOpts []timesheet.Option
	if opts.Recorder != nil {
		wfOpts = append(wfOpts, timesheet.WithRecorder(opts.Recorder))
	}
	if opts.Clock != nil {
		wfOpts = append(wfOpts, timesheet.WithClock(opts.Clock))
	}

	tenants := tenant.NewService(b.Tenants, auditLogger)
	userSvc := user.NewService(users, b.Users, b.Tenants, hasher, guard, auditLogger)
	projectSvc := project.NewService(projects, members, users, timesheet.NewUsage(entries), guard, auditLogger)
	workflow := timesheet.NewWorkflow(entries, projects, guard, auditLogger, wfOpts...)
	dash := dashboard.NewService(projects, users, entries, projectSvc, guard)
	if opts.Clock != nil {
		dash = dash.WithClock(opts.Clock)
	}
	identitySvc := identity.NewService(tenants, b.Tenants, userSvc, users, b.Users, hasher, tokens, auditLogger)

	return &App{
		Tenants:     tenants,
		TenantAdmin: tenant.NewAdmin(tenants, guard),
		Users:       userSvc,
		Projects:    projectSvc,
		Workflow:    workflow,
		Dashboard:   dash,
		Identity:    identitySvc,
		Resolver:    requestctx.NewResolver(tenant.NewResolver(b.Tenants), identitySvc),
		Guard:       guard,
		health:      b.Health,
	}, nil
}

// Services exposes the app to the HTTP layer.
func (a *App) Services() transportHTTP.Services {
	return transportHTTP.Services{
		Identity:  a.Identity,
		Tenants:   a.TenantAdmin,
		Users:     a.Users,
		Projects:  a.Projects,
		Workflow:  a.Workflow,
		Dashboard: a.Dashboard,
		Resolver:  a.Resolver,
		Health:    a.health,
	}
}

// Bootstrap creates the platform super administrator when cfg names one.
func (a *App) Bootstrap(ctx context.Context, cfg identity.BootstrapConfig) (*user.User, error) {
	return a.Identity.Bootstrap(ctx, cfg)
}
