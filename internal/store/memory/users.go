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

package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/store"
	"github.com/anand1357/timesheet-multitenant-backend/internal/user"
)

// Users is the user table plus the cross-tenant email index.
type Users struct {
	*Backend[*user.User, user.Filter]
	// writeMu serializes the uniqueness check with the write it guards.
	writeMu sync.Mutex
}

// NewUsers creates an empty user table.
func NewUsers() *Users {
	return &Users{
		Backend: NewBackend((*user.User).Clone, matchUser, func(a, b *user.User) bool {
			if a.LastName != b.LastName {
				return a.LastName < b.LastName
			}
			return a.FirstName < b.FirstName
		}),
	}
}

func (u *Users) Insert(ctx context.Context, entity *user.User) error {
	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	if u.emailTaken(entity.Email, entity.ID) {
		return user.ErrEmailTaken
	}
	return u.Backend.Insert(ctx, entity)
}

func (u *Users) Update(ctx context.Context, entity *user.User, expectedVersion int) error {
	u.writeMu.Lock()
	defer u.writeMu.Unlock()

	if u.emailTaken(entity.Email, entity.ID) {
		return user.ErrEmailTaken
	}
	return u.Backend.Update(ctx, entity, expectedVersion)
}

func matchUser(u *user.User, f user.Filter) bool { return f.Matches(u) }

// FindByEmail implements user.Directory.
func (u *Users) FindByEmail(_ context.Context, email string) (*user.User, error) {
	email = user.NormalizeEmail(email)
	found, ok := u.Find(func(row *user.User) bool { return row.Email == email })
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return found, nil
}

func (u *Users) emailTaken(email string, self uuid.UUID) bool {
	_, taken := u.Find(func(row *user.User) bool {
		return strings.EqualFold(row.Email, email) && row.ID != self
	})
	return taken
}

var _ store.Backend[*user.User, user.Filter] = (*Users)(nil)
