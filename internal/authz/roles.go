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

package authz

// -----------------------------------------------------------------------------
// Role Constants
// These are the canonical names stored with every user.
// -----------------------------------------------------------------------------

const (
	// RoleSuperAdmin operates the platform. Inside a tenant it has the same
	// reach as RoleAdmin except for approvals.
	RoleSuperAdmin Role = "SUPER_ADMIN"

	// RoleAdmin manages users, projects and approvals tenant-wide.
	RoleAdmin Role = "ADMIN"

	// RoleManager manages projects and approvals but not user deletion.
	RoleManager Role = "MANAGER"

	// RoleEmployee records its own time and reads the projects it belongs to.
	RoleEmployee Role = "EMPLOYEE"
)

// -----------------------------------------------------------------------------
// Action Constants
// -----------------------------------------------------------------------------

const (
	ActionUserRead       Action = "user:read"
	ActionUserReadActive Action = "user:read_active"
	ActionUserCreate     Action = "user:create"
	ActionUserUpdate     Action = "user:update"
	ActionUserDelete     Action = "user:delete"
	ActionUserToggle     Action = "user:toggle_status"

	// ActionProjectRead on ScopeOwn means "a project the actor is a member of".
	ActionProjectRead    Action = "project:read"
	ActionProjectList    Action = "project:list"
	ActionProjectCreate  Action = "project:create"
	ActionProjectUpdate  Action = "project:update"
	ActionProjectDelete  Action = "project:delete"
	ActionProjectMembers Action = "project:members"

	ActionTimeEntryCreate Action = "timeentry:create"
	ActionTimeEntryRead   Action = "timeentry:read"
	ActionTimeEntryList   Action = "timeentry:list"
	ActionTimeEntryEdit   Action = "timeentry:edit"
	ActionTimeEntryDelete Action = "timeentry:delete"
	ActionTimeEntryDecide Action = "timeentry:approve"

	ActionDashboardView Action = "dashboard:view"

	ActionTenantList       Action = "tenant:list"
	ActionTenantDeactivate Action = "tenant:deactivate"
)

// -----------------------------------------------------------------------------
// Policy Table
// Every allow decision in the system comes from this table. Anything not
// listed is denied.
// -----------------------------------------------------------------------------

// DefaultPolicies is the (role, action, scope) table loaded by NewGuard.
var DefaultPolicies = []Policy{
	// Users
	{RoleSuperAdmin, ActionUserRead, ScopeAny},
	{RoleAdmin, ActionUserRead, ScopeAny},
	{RoleManager, ActionUserRead, ScopeAny},
	{RoleEmployee, ActionUserRead, ScopeOwn},
	{RoleSuperAdmin, ActionUserReadActive, ScopeAny},
	{RoleAdmin, ActionUserReadActive, ScopeAny},
	{RoleManager, ActionUserReadActive, ScopeAny},
	{RoleEmployee, ActionUserReadActive, ScopeAny},
	{RoleSuperAdmin, ActionUserCreate, ScopeAny},
	{RoleAdmin, ActionUserCreate, ScopeAny},
	{RoleManager, ActionUserCreate, ScopeAny},
	{RoleSuperAdmin, ActionUserUpdate, ScopeAny},
	{RoleAdmin, ActionUserUpdate, ScopeAny},
	{RoleManager, ActionUserUpdate, ScopeAny},
	{RoleSuperAdmin, ActionUserDelete, ScopeAny},
	{RoleAdmin, ActionUserDelete, ScopeAny},
	{RoleSuperAdmin, ActionUserToggle, ScopeAny},
	{RoleAdmin, ActionUserToggle, ScopeAny},

	// Projects
	{RoleSuperAdmin, ActionProjectRead, ScopeAny},
	{RoleAdmin, ActionProjectRead, ScopeAny},
	{RoleManager, ActionProjectRead, ScopeAny},
	{RoleEmployee, ActionProjectRead, ScopeOwn},
	{RoleSuperAdmin, ActionProjectList, ScopeAny},
	{RoleAdmin, ActionProjectList, ScopeAny},
	{RoleManager, ActionProjectList, ScopeAny},
	{RoleSuperAdmin, ActionProjectCreate, ScopeAny},
	{RoleAdmin, ActionProjectCreate, ScopeAny},
	{RoleManager, ActionProjectCreate, ScopeAny},
	{RoleSuperAdmin, ActionProjectUpdate, ScopeAny},
	{RoleAdmin, ActionProjectUpdate, ScopeAny},
	{RoleManager, ActionProjectUpdate, ScopeAny},
	{RoleSuperAdmin, ActionProjectDelete, ScopeAny},
	{RoleAdmin, ActionProjectDelete, ScopeAny},
	{RoleSuperAdmin, ActionProjectMembers, ScopeAny},
	{RoleAdmin, ActionProjectMembers, ScopeAny},
	{RoleManager, ActionProjectMembers, ScopeAny},

	// Time entries
	{RoleSuperAdmin, ActionTimeEntryCreate, ScopeOwn},
	{RoleAdmin, ActionTimeEntryCreate, ScopeOwn},
	{RoleManager, ActionTimeEntryCreate, ScopeOwn},
	{RoleEmployee, ActionTimeEntryCreate, ScopeOwn},
	{RoleSuperAdmin, ActionTimeEntryRead, ScopeAny},
	{RoleAdmin, ActionTimeEntryRead, ScopeAny},
	{RoleManager, ActionTimeEntryRead, ScopeAny},
	{RoleEmployee, ActionTimeEntryRead, ScopeOwn},
	{RoleSuperAdmin, ActionTimeEntryList, ScopeAny},
	{RoleAdmin, ActionTimeEntryList, ScopeAny},
	{RoleManager, ActionTimeEntryList, ScopeAny},
	{RoleSuperAdmin, ActionTimeEntryEdit, ScopeOwn},
	{RoleAdmin, ActionTimeEntryEdit, ScopeOwn},
	{RoleManager, ActionTimeEntryEdit, ScopeOwn},
	{RoleEmployee, ActionTimeEntryEdit, ScopeOwn},
	{RoleSuperAdmin, ActionTimeEntryDelete, ScopeAny},
	{RoleAdmin, ActionTimeEntryDelete, ScopeAny},
	{RoleManager, ActionTimeEntryDelete, ScopeOwn},
	{RoleEmployee, ActionTimeEntryDelete, ScopeOwn},
	{RoleAdmin, ActionTimeEntryDecide, ScopeAny},
	{RoleManager, ActionTimeEntryDecide, ScopeAny},

	// Dashboard
	{RoleSuperAdmin, ActionDashboardView, ScopeAny},
	{RoleAdmin, ActionDashboardView, ScopeAny},
	{RoleManager, ActionDashboardView, ScopeAny},
	{RoleEmployee, ActionDashboardView, ScopeAny},

	// Platform
	{RoleSuperAdmin, ActionTenantList, ScopeAny},
	{RoleSuperAdmin, ActionTenantDeactivate, ScopeAny},
}
