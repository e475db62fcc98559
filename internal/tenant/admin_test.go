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
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/requestctx"
	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/validation"
)

func asRole(t *testing.T, role authz.Role) context.Context {
	t.Helper()
	rc, err := requestctx.New(uuid.New(), uuid.New(), role)
	require.NoError(t, err)
	return requestctx.With(context.Background(), rc)
}

func newAdmin(t *testing.T, repo *mockRepo, auditLogger *mockAudit) *Admin {
	t.Helper()
	guard, err := authz.NewDefaultGuard()
	require.NoError(t, err)
	return NewAdmin(NewService(repo, auditLogger), guard)
}

// TestPurpose: Validates that tenant administration is reserved to SUPER_ADMIN.
// Scope: Unit Test
// Security: Platform operations outside tenant roles (CWE-285)
// Expected: ADMIN, MANAGER and EMPLOYEE are denied before storage is touched.
// Test Case ID: TEN-10
func TestTenant_Admin_RequiresSuperAdmin(t *testing.T) {
	repo := new(mockRepo)
	admin := newAdmin(t, repo, new(mockAudit))

	for _, role := range []authz.Role{authz.RoleAdmin, authz.RoleManager, authz.RoleEmployee} {
		ctx := asRole(t, role)
		_, err := admin.List(ctx, store.Page{})
		assert.ErrorIs(t, err, authz.ErrDenied, role)
		_, err = admin.Deactivate(ctx, uuid.New())
		assert.ErrorIs(t, err, authz.ErrDenied, role)
	}

	_, err := admin.List(context.Background(), store.Page{})
	assert.ErrorIs(t, err, requestctx.ErrNoRequestContext)
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

// TestPurpose: Validates listing and deactivation by the platform administrator.
// Scope: Unit Test
// Expected: Paging is translated to limit and offset; a tenant is deactivated and audited; the platform tenant is refused.
// Test Case ID: TEN-11
func TestTenant_Admin_SuperAdmin(t *testing.T) {
	repo := new(mockRepo)
	auditLogger := new(mockAudit)
	admin := newAdmin(t, repo, auditLogger)
	ctx := asRole(t, authz.RoleSuperAdmin)

	repo.On("List", mock.Anything, 10, 20).Return([]*Tenant{{Name: "Acme"}}, nil)
	list, err := admin.List(ctx, store.Page{Number: 2, Size: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	id := uuid.New()
	repo.On("GetByID", mock.Anything, id).Return(&Tenant{ID: id, Subdomain: "acme", IsActive: true}, nil)
	repo.On("Update", mock.Anything, mock.Anything).Return(nil)
	auditLogger.On("Log", mock.Anything, mock.Anything).Return()

	got, err := admin.Deactivate(ctx, id)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	platformID := uuid.New()
	repo.On("GetByID", mock.Anything, platformID).Return(&Tenant{ID: platformID, Subdomain: PlatformSubdomain, IsActive: true}, nil)
	_, err = admin.Deactivate(ctx, platformID)
	assert.ErrorIs(t, err, validation.ErrValidation)

	repo.AssertNumberOfCalls(t, "Update", 1)
}
