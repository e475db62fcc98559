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

package postgres

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/audit"
)

// AuditSink persists audit events to audit_logs. Write failures are logged
// and never reach the caller.
type AuditSink struct {
	db     *DB
	logger *slog.Logger
}

// NewAuditSink creates a new audit sink
func NewAuditSink(db *DB, logger *slog.Logger) *AuditSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditSink{db: db, logger: logger}
}

// Log implements audit.Logger
func (s *AuditSink) Log(ctx context.Context, event audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	var metadata []byte
	if md := audit.Redact(event.Metadata); len(md) > 0 {
		var err error
		if metadata, err = json.Marshal(md); err != nil {
			s.logger.WarnContext(ctx, "failed to encode audit metadata",
				slog.String("audit_type", event.Type),
				slog.String("error", err.Error()),
			)
			metadata = nil
		}
	}

	_, err := s.db.pool.Exec(ctx, `
		INSERT INTO audit_logs (id, tenant_id, actor_id, event_type, entity_type, entity_id, metadata, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.New(), event.TenantID, event.ActorID, event.Type, event.EntityType, event.EntityID,
		metadata, event.IPAddress, event.Timestamp,
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to persist audit event",
			slog.String("audit_type", event.Type),
			slog.String("tenant_id", event.TenantID),
			slog.String("error", err.Error()),
		)
	}
}

var _ audit.Logger = (*AuditSink)(nil)
