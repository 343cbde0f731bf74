package authz

import (
	"fmt"
	"net/http"
	"strings"

	"food-delivery-api/models"
)

// PermissionRule grants an endpoint to a set of roles.
type PermissionRule struct {
	Method       string
	Pattern      string
	AllowedRoles models.RoleSet
}

// PublicRule marks an endpoint as reachable without an identity.
type PublicRule struct {
	Method  string
	Pattern string
}

// Route is a (method, path) pair as registered on the router.
type Route struct {
	Method string
	Path   string
}

type compiledRule struct {
	method  string
	pattern pattern
	roles   models.RoleSet
	public  bool
}

// Registry is the immutable permission table.
type Registry struct {
	public []compiledRule
	rules  []compiledRule
}

var knownMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// NewRegistry validates and compiles the rule tables. A rule with no roles,
// an unknown method, a malformed pattern, or two rules covering the same
// (method, path shape) is rejected.
func NewRegistry(public []PublicRule, rules []PermissionRule) (*Registry, error) {
	reg := &Registry{
		public: make([]compiledRule, 0, len(public)),
		rules:  make([]compiledRule, 0, len(rules)),
	}
	seen := make(map[string]string, len(public)+len(rules))

	add := func(method, raw string, roles models.RoleSet, isPublic bool) error {
		method = strings.ToUpper(method)
		if !knownMethods[method] {
			return fmt.Errorf("authz registry: unknown method %q for %s", method, raw)
		}
		p, err := parsePattern(raw)
		if err != nil {
			return fmt.Errorf("authz registry: %w", err)
		}
		key := method + " " + p.shape()
		if prev, dup := seen[key]; dup {
			return fmt.Errorf("authz registry: %s %s overlaps %s", method, raw, prev)
		}
		seen[key] = raw

		cr := compiledRule{method: method, pattern: p, roles: roles, public: isPublic}
		if isPublic {
			reg.public = append(reg.public, cr)
		} else {
			reg.rules = append(reg.rules, cr)
		}
		return nil
	}

	for _, pr := range public {
		if err := add(pr.Method, pr.Pattern, 0, true); err != nil {
			return nil, err
		}
	}
	for _, r := range rules {
		if r.AllowedRoles.Empty() {
			return nil, fmt.Errorf("authz registry: %s %s has no allowed roles", r.Method, r.Pattern)
		}
		if err := add(r.Method, r.Pattern, r.AllowedRoles, false); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// MustNewRegistry is NewRegistry for static tables; it panics on invalid input.
func MustNewRegistry(public []PublicRule, rules []PermissionRule) *Registry {
	reg, err := NewRegistry(public, rules)
	if err != nil {
		panic(err)
	}
	return reg
}

// match returns the most specific public rule, or failing that the most
// specific permission rule, matching method and path.
func (r *Registry) match(method, path string) (compiledRule, bool) {
	method = strings.ToUpper(method)
	parts := splitPath(path)
	if cr, ok := bestMatch(r.public, method, parts); ok {
		return cr, true
	}
	return bestMatch(r.rules, method, parts)
}

func bestMatch(rules []compiledRule, method string, parts []string) (compiledRule, bool) {
	var (
		best  compiledRule
		found bool
	)
	for _, cr := range rules {
		if cr.method != method || !cr.pattern.match(parts) {
			continue
		}
		if !found || cr.pattern.moreSpecific(best.pattern) {
			best = cr
			found = true
		}
	}
	return best, found
}

// Uncovered returns the routes that no public or permission rule matches.
// Every route the router serves must be covered.
func (r *Registry) Uncovered(routes []Route) []Route {
	var missing []Route
	for _, rt := range routes {
		if _, ok := r.match(rt.Method, rt.Path); !ok {
			missing = append(missing, rt)
		}
	}
	return missing
}

// Rules returns a copy of the permission rules, for documentation.
func (r *Registry) Rules() []PermissionRule {
	out := make([]PermissionRule, len(r.rules))
	for i, cr := range r.rules {
		out[i] = PermissionRule{Method: cr.method, Pattern: cr.pattern.raw, AllowedRoles: cr.roles}
	}
	return out
}

// PublicRules returns a copy of the public allowlist.
func (r *Registry) PublicRules() []PublicRule {
	out := make([]PublicRule, len(r.public))
	for i, cr := range r.public {
		out[i] = PublicRule{Method: cr.method, Pattern: cr.pattern.raw}
	}
	return out
}
