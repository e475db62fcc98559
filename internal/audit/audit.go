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

package audit

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// Event types
const (
	TypeTenantRegistered       = "tenant_registered"
	TypeTenantDeactivated      = "tenant_deactivated"
	TypeLoginSuccess           = "user_login"
	TypeLoginFailed            = "user_login_failed"
	TypeUserCreated            = "user_created"
	TypeUserUpdated            = "user_updated"
	TypeUserDeactivated        = "user_deactivated"
	TypeUserStatusToggled      = "user_status_toggled"
	TypeProjectCreated         = "project_created"
	TypeProjectUpdated         = "project_updated"
	TypeProjectDeleted         = "project_deleted"
	TypeProjectMemberAdded     = "project_member_added"
	TypeProjectMemberRemoved   = "project_member_removed"
	TypeTimeEntryCreated       = "time_entry_created"
	TypeTimeEntryUpdated       = "time_entry_updated"
	TypeTimeEntryDeleted       = "time_entry_deleted"
	TypeTimeEntryApproved      = "time_entry_approved"
	TypeTimeEntryRejected      = "time_entry_rejected"
	TypeSuperAdminBootstrapped = "super_admin_bootstrapped"
)

// Entity types
const (
	EntityTenant    = "tenant"
	EntityUser      = "user"
	EntityProject   = "project"
	EntityTimeEntry = "time_entry"
)

// ActorSystem marks events not caused by a user request.
const ActorSystem = "system"

// Event represents an auditable action
type Event struct {
	Type       string
	TenantID   string
	ActorID    string
	EntityType string
	EntityID   string
	Metadata   map[string]any
	Timestamp  time.Time
	IPAddress  string
}

// Logger defines the interface for audit logging
type Logger interface {
	Log(ctx context.Context, event Event)
}

// SlogLogger implements Logger using slog
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger creates a new audit logger writing to l, or to the default
// logger when l is nil.
func NewSlogLogger(l *slog.Logger) *SlogLogger {
	if l == nil {
		l = slog.Default()
	}
	return &SlogLogger{logger: l}
}

// Log records an audit event
func (l *SlogLogger) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []slog.Attr{
		slog.String("component", "audit"),
		slog.String("audit_type", event.Type),
		slog.String("tenant_id", event.TenantID),
		slog.String("actor_id", event.ActorID),
		slog.Time("timestamp", event.Timestamp),
	}
	if event.EntityType != "" {
		attrs = append(attrs,
			slog.String("entity_type", event.EntityType),
			slog.String("entity_id", event.EntityID),
		)
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if md := Redact(event.Metadata); len(md) > 0 {
		group := make([]any, 0, len(md))
		for k, v := range md {
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("metadata", group...))
	}

	l.logger.LogAttrs(ctx, slog.LevelInfo, "AUDIT_EVENT", attrs...)
}

// Redact returns a copy of md with secret-looking values replaced.
func Redact(md map[string]any) map[string]any {
	if len(md) == 0 {
		return nil
	}
	out := make(map[string]any, len(md))
	for k, v := range md {
		if isSecret(k) {
			v = "[REDACTED]"
		}
		out[k] = v
	}
	return out
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	k := strings.ToLower(key)
	for _, s := range []string{"password", "secret", "token", "key", "authorization", "hash", "credential"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}

// Multi fans an event out to several loggers.
type Multi []Logger

func (m Multi) Log(ctx context.Context, event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	for _, l := range m {
		l.Log(ctx, event)
	}
}

// Recorder keeps events in memory. Tests use it to assert on the trail.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Log(_ context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

// Events returns a snapshot of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Types returns the recorded event types in order.
func (r *Recorder) Types() []string {
	events := r.Events()
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
