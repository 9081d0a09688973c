// Package authz maps user roles to the API resources they may act on.
package authz

import (
	"fmt"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"go.uber.org/zap"
)

// Resources guarded by role policy
const (
	ResourceTravelRequest = "travelrequest"
	ResourceTicketOption  = "ticketoption"
	ResourceTicket        = "ticket"
	ResourceApproval      = "approval"
	ResourceAuditLog      = "auditlog"
	ResourceUser          = "user"
)

// Actions on resources
const (
	ActionRead   = "read"
	ActionWrite  = "write"
	ActionSelect = "select"
	ActionDecide = "decide"
	ActionUpload = "upload"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (r.act == p.act || p.act == "*")
`

// Role names are normalised to lower case before they reach the enforcer
var defaultPolicies = [][]string{
	{"employee", ResourceTravelRequest, "*"},
	{"employee", ResourceTicketOption, ActionRead},
	{"employee", ResourceTicketOption, ActionSelect},
	{"employee", ResourceApproval, ActionDecide},
	{"employee", ResourceAuditLog, ActionRead},
	{"admin", ResourceTicketOption, "*"},
	{"admin", ResourceTicket, ActionUpload},
	{"admin", ResourceUser, "*"},
}

var defaultRoles = [][]string{
	{"manager", "employee"},
	{"admin", "employee"},
}

// Enforcer answers role permission questions. Per-request checks such as
// "is this the designated manager" stay in the workflow validator.
type Enforcer struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *zap.Logger
}

// NewEnforcer builds an enforcer loaded with the built-in role policy
func NewEnforcer(logger *zap.Logger) (*Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to parse model: %w", err)
	}

	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}

	for _, p := range defaultPolicies {
		if _, err := enf.AddPolicy(p[0], p[1], p[2]); err != nil {
			return nil, fmt.Errorf("authz: failed to add policy %v: %w", p, err)
		}
	}
	for _, g := range defaultRoles {
		if _, err := enf.AddGroupingPolicy(g[0], g[1]); err != nil {
			return nil, fmt.Errorf("authz: failed to add role %v: %w", g, err)
		}
	}

	return &Enforcer{enforcer: enf, logger: logger}, nil
}

// Allowed reports whether role may perform action on resource
func (e *Enforcer) Allowed(role, resource, action string) (bool, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	ok, err := e.enforcer.Enforce(strings.ToLower(strings.TrimSpace(role)), resource, action)
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	if !ok {
		e.logger.Debug("authz denied",
			zap.String("role", role),
			zap.String("resource", resource),
			zap.String("action", action))
	}
	return ok, nil
}

// Grant adds a policy line at runtime
func (e *Enforcer) Grant(role, resource, action string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.enforcer.AddPolicy(strings.ToLower(role), resource, action); err != nil {
		return fmt.Errorf("authz: grant failed: %w", err)
	}
	return nil
}
