// Package authz builds the casbin enforcer that guards admin routes.
package authz

import (
	"errors"
	"fmt"
	"strings"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
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
m = g(r.sub, p.sub) && keyMatch2(r.obj, p.obj) && (p.act == "*" || r.act == p.act)
`

// ErrInvalidRule is returned for a policy line that is not "sub, obj, act"
// or "g, member, role".
var ErrInvalidRule = errors.New("authz: invalid policy rule")

// NewEnforcer builds an in-memory enforcer from rules of the form
// "admin, /api/v1/admin/*, GET" or "g, auditor, admin".
func NewEnforcer(rules []string) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	for _, rule := range rules {
		if err := addRule(e, rule); err != nil {
			return nil, err
		}
	}

	return e, nil
}

func addRule(e *casbin.Enforcer, rule string) error {
	parts := strings.Split(rule, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch {
	case len(parts) == 3 && parts[0] == "g":
		_, err := e.AddGroupingPolicy(parts[1], parts[2])
		return err
	case len(parts) == 3 && parts[0] != "" && parts[1] != "" && parts[2] != "":
		_, err := e.AddPolicy(parts[0], parts[1], strings.ToUpper(parts[2]))
		return err
	default:
		return fmt.Errorf("%w: %q", ErrInvalidRule, rule)
	}
}
