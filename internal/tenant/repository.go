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

	"github.com/google/uuid"
)

// Domain errors
var (
	ErrTenantNotFound    = errors.New("tenant not found")
	ErrMalformedTenantID = errors.New("malformed tenant id")
	ErrSubdomainTaken    = errors.New("subdomain already taken")
)

// Repository defines the interface for tenant storage. Tenants that own data
// are never hard deleted; Update with IsActive=false deactivates them. Delete
// exists only to discard a tenant whose registration did not complete.
type Repository interface {
	Create(ctx context.Context, tenant *Tenant) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	Update(ctx context.Context, tenant *Tenant) error
	List(ctx context.Context, limit, offset int) ([]*Tenant, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
