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

// Package requestctx carries the resolved (tenant, user, role) of one request
// on its context.Context. Nothing here is stored outside the context, so the
// identity ends with the request on every exit path.
package requestctx

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/authz"
)

// Domain errors
var (
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrNoRequestContext     = errors.New("no request context")
)

// Identity is what an Authenticator vouches for.
type Identity struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Role     authz.Role
}

// RequestContext is the immutable identity of one in-flight request.
type RequestContext struct {
	tenantID uuid.UUID
	userID   uuid.UUID
	role     authz.Role
}

// New builds a RequestContext. Zero ids are rejected.
func New(tenantID, userID uuid.UUID, role authz.Role) (RequestContext, error) {
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return RequestContext{}, fmt.Errorf("%w: incomplete identity", ErrAuthenticationFailed)
	}
	if !role.Valid() {
		return RequestContext{}, fmt.Errorf("%w: %v", ErrAuthenticationFailed, authz.ErrInvalidRole)
	}
	return RequestContext{tenantID: tenantID, userID: userID, role: role}, nil
}

func (rc RequestContext) TenantID() uuid.UUID { return rc.tenantID }
func (rc RequestContext) UserID() uuid.UUID   { return rc.userID }
func (rc RequestContext) Role() authz.Role    { return rc.role }

type contextKey struct{}

// With returns a child context carrying rc.
func With(ctx context.Context, rc RequestContext) context.Context {
	return context.WithValue(ctx, contextKey{}, rc)
}

// From returns the RequestContext attached to ctx.
func From(ctx context.Context) (RequestContext, bool) {
	rc, ok := ctx.Value(contextKey{}).(RequestContext)
	return rc, ok
}

// Require is From for service code that cannot run without an identity.
func Require(ctx context.Context) (RequestContext, error) {
	rc, ok := From(ctx)
	if !ok {
		return RequestContext{}, ErrNoRequestContext
	}
	return rc, nil
}

// Run executes fn with rc attached. Non-HTTP callers such as batch jobs use it
// to get the same scoping the HTTP middleware provides.
func Run(ctx context.Context, rc RequestContext, fn func(ctx context.Context) error) error {
	return fn(With(ctx, rc))
}
