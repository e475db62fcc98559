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
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Resolver validates tenant identifiers pinned on incoming requests.
type Resolver struct {
	repo Repository
}

// NewResolver creates a new tenant resolver
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo}
}

// Resolve parses raw and checks that it names an active tenant. An empty raw
// value is legal and yields uuid.Nil.
func (r *Resolver) Resolve(ctx context.Context, raw string) (uuid.UUID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrMalformedTenantID, raw)
	}

	t, err := r.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return uuid.Nil, ErrTenantNotFound
		}
		return uuid.Nil, fmt.Errorf("failed to resolve tenant: %w", err)
	}
	if !t.IsActive {
		return uuid.Nil, ErrTenantNotFound
	}
	return t.ID, nil
}
