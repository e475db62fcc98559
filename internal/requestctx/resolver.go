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

package requestctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
)

// Authenticator turns a credential into an identity. Implementations must
// return an error matching ErrAuthenticationFailed for any bad credential.
type Authenticator interface {
	Authenticate(ctx context.Context, credential string) (Identity, error)
}

// TenantResolver validates an optional tenant identifier supplied with the
// request. An empty identifier yields uuid.Nil and no error.
type TenantResolver interface {
	Resolve(ctx context.Context, raw string) (uuid.UUID, error)
}

// Resolver combines tenant pinning and authentication into one RequestContext.
type Resolver struct {
	tenants TenantResolver
	auth    Authenticator
	log     *slog.Logger
}

// NewResolver creates a new request context resolver
func NewResolver(tenants TenantResolver, auth Authenticator) *Resolver {
	return &Resolver{
		tenants: tenants,
		auth:    auth,
		log:     slog.Default().With(logger.Component("requestctx")),
	}
}

// Resolve validates the pinned tenant first, then the credential. A pinned
// tenant must match the identity's tenant unless the identity is a
// SUPER_ADMIN, which may act inside any active tenant.
func (r *Resolver) Resolve(ctx context.Context, rawTenant, credential string) (RequestContext, error) {
	pinned, err := r.tenants.Resolve(ctx, rawTenant)
	if err != nil {
		return RequestContext{}, err
	}

	id, err := r.auth.Authenticate(ctx, credential)
	if err != nil {
		return RequestContext{}, err
	}

	tenantID := id.TenantID
	if pinned != uuid.Nil && pinned != id.TenantID {
		if id.Role != authz.RoleSuperAdmin {
			r.log.WarnContext(ctx, "pinned tenant does not match identity",
				logger.UserID(id.UserID.String()),
				logger.TenantID(pinned.String()),
			)
			return RequestContext{}, authz.Deny(id.Role, "tenant:switch",
				fmt.Sprintf("user does not belong to tenant %s", pinned))
		}
		tenantID = pinned
	}

	return New(tenantID, id.UserID, id.Role)
}
