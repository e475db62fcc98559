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

import (
	"fmt"
	"log/slog"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"

	"github.com/anand1357/timesheet-multitenant-backend/internal/observability/logger"
)

// policyModel evaluates (role, action) pairs. A ScopeOwn row additionally
// requires the resource owner to be the acting user.
const policyModel = `
[request_definition]
r = sub, act, owner, actor

[policy_definition]
p = sub, act, scope

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.act == p.act && (p.scope == "any" || (p.scope == "own" && r.owner != "" && r.owner == r.actor))
`

// Guard is the single policy evaluator for privileged operations.
type Guard struct {
	enforcer *casbin.SyncedEnforcer
	granted  map[Role]map[Action]bool
	log      *slog.Logger
}

// NewGuard loads the given policy table into a casbin enforcer.
func NewGuard(policies []Policy) (*Guard, error) {
	m, err := model.NewModelFromString(policyModel)
	if err != nil {
		return nil, fmt.Errorf("load policy model: %w", err)
	}

	e, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	granted := make(map[Role]map[Action]bool)
	for _, p := range policies {
		if !p.Role.Valid() {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRole, p.Role)
		}
		if p.Scope != ScopeAny && p.Scope != ScopeOwn {
			return nil, fmt.Errorf("invalid scope %q for %s/%s", p.Scope, p.Role, p.Action)
		}
		if _, err := e.AddPolicy(string(p.Role), string(p.Action), string(p.Scope)); err != nil {
			return nil, fmt.Errorf("add policy %s/%s: %w", p.Role, p.Action, err)
		}
		if granted[p.Role] == nil {
			granted[p.Role] = make(map[Action]bool)
		}
		granted[p.Role][p.Action] = true
	}

	return &Guard{
		enforcer: e,
		granted:  granted,
		log:      slog.Default().With(logger.Component("authz")),
	}, nil
}

// NewDefaultGuard loads DefaultPolicies.
func NewDefaultGuard() (*Guard, error) {
	return NewGuard(DefaultPolicies)
}

// Check decides whether role may perform action. resourceOwnerID and
// currentUserID are only consulted for ScopeOwn policies; pass uuid.Nil when
// the action has no owned resource. A nil return means allowed; any denial is
// a *DeniedError.
func (g *Guard) Check(role Role, action Action, resourceOwnerID, currentUserID uuid.UUID) error {
	ok, err := g.enforcer.Enforce(string(role), string(action), idString(resourceOwnerID), idString(currentUserID))
	if err != nil {
		g.log.Error("policy evaluation failed",
			logger.Role(string(role)), logger.Action(string(action)), logger.Error(err))
		return Deny(role, action, "policy evaluation failed")
	}
	if ok {
		return nil
	}

	reason := fmt.Sprintf("role %s may not perform %s", role, action)
	if g.granted[role][action] {
		reason = fmt.Sprintf("role %s may only perform %s on its own records", role, action)
	}
	g.log.Warn("authorization denied",
		logger.Role(string(role)),
		logger.Action(string(action)),
		logger.UserID(idString(currentUserID)),
		slog.String("reason", reason),
	)
	return Deny(role, action, reason)
}

// Allows reports, without logging, whether role holds action tenant-wide.
// Services use it to pick between a tenant-wide and a self-scoped query.
func (g *Guard) Allows(role Role, action Action) bool {
	ok, err := g.enforcer.Enforce(string(role), string(action), "", "")
	return err == nil && ok
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
