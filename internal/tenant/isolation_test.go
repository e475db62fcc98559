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

package tenant

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// TestPurpose: Validates the tenant pinning gate applied before any business logic.
// Scope: Unit Test
// Security: Multi-tenant boundary enforcement
// Expected: Absent header passes with uuid.Nil, garbage is malformed, unknown or inactive tenants are not found.
// Test Case ID: TEN-04
func TestTenant_Resolver_Resolve(t *testing.T) {
	ctx := context.Background()
	active := &Tenant{ID: uuid.New(), IsActive: true}
	inactive := &Tenant{ID: uuid.New(), IsActive: false}
	unknown := uuid.New()

	repo := new(mockRepo)
	repo.On("GetByID", mock.Anything, active.ID).Return(active, nil)
	repo.On("GetByID", mock.Anything, inactive.ID).Return(inactive, nil)
	repo.On("GetByID", mock.Anything, unknown).Return(nil, ErrTenantNotFound)

	r := NewResolver(repo)

	t.Run("Absent", func(t *testing.T) {
		id, err := r.Resolve(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, id)
	})

	t.Run("Active", func(t *testing.T) {
		id, err := r.Resolve(ctx, " "+active.ID.String()+" ")
		require.NoError(t, err)
		assert.Equal(t, active.ID, id)
	})

	t.Run("Malformed", func(t *testing.T) {
		for _, raw := range []string{"42", "acme", uuid.Nil.String()} {
			_, err := r.Resolve(ctx, raw)
			assert.ErrorIs(t, err, ErrMalformedTenantID, raw)
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := r.Resolve(ctx, unknown.String())
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})

	t.Run("Inactive", func(t *testing.T) {
		_, err := r.Resolve(ctx, inactive.ID.String())
		assert.ErrorIs(t, err, ErrTenantNotFound)
	})
}

func TestTenant_Resolver_StorageFailure(t *testing.T) {
	repo := new(mockRepo)
	id := uuid.New()
	boom := errors.New("connection reset")
	repo.On("GetByID", mock.Anything, id).Return(nil, boom)

	_, err := NewResolver(repo).Resolve(context.Background(), id.String())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTenantNotFound)
}
