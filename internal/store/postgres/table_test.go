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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
)

// TestPurpose: Validates that every generated predicate starts with the tenant filter and numbers its parameters in order.
// Scope: Unit Test
// Security: Tenant isolation at the query layer
// Expected: tenant_id is $1 and later placeholders follow sequentially.
// Test Case ID: PG-01
func TestWhere_TenantFirst(t *testing.T) {
	tenantID := uuid.New()
	userID := uuid.New()

	w := tenantWhere(tenantID)
	w.add("status = ?", "PENDING")
	w.add("user_id = ?", userID)

	assert.Equal(t, "WHERE tenant_id = $1 AND status = $2 AND user_id = $3", w.String())
	assert.Equal(t, []any{tenantID, "PENDING", userID}, w.args)
}

func TestLimit(t *testing.T) {
	assert.Equal(t, "", limit(store.All))
	assert.Equal(t, " LIMIT 20 OFFSET 40", limit(store.Page{Number: 2, Size: 20}))
}

func TestConfig_DSN(t *testing.T) {
	assert.Equal(t, "postgres://u:p@db/x", Config{URL: "postgres://u:p@db/x", Host: "ignored"}.DSN())

	dsn := Config{
		Host:         "localhost",
		Port:         "5432",
		User:         "timesheet",
		Password:     "secret",
		Database:     "timesheet",
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	}.DSN()
	assert.Contains(t, dsn, "host=localhost")
	assert.Contains(t, dsn, "dbname=timesheet")
	assert.Contains(t, dsn, "pool_max_conns=10")
}
