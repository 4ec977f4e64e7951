// Package role implements the hierarchical role-tree predicate used
// throughout auditing: "does role R inherit from role A?" (spec.md §4.2).
package role

import (
	"golang.org/x/text/cases"

	"github.com/ortlang/ortc/core/ortschema"
)

var fold = cases.Fold()

// Resolver wraps a Config's role tree with the lookup/ancestry predicates
// the audit engine needs. It holds no state of its own beyond the roles
// passed to New — it is safe to share across goroutines since the
// underlying Config is immutable after link (spec.md §5).
type Resolver struct {
	byFoldedName map[string]*ortschema.Role
}

// New builds a Resolver over the given role set. fold.String performs the
// Unicode case fold golang.org/x/text's cases package implements, per the
// "role lookup is case-insensitive on name" invariant of spec.md §3.
func New(roles []*ortschema.Role) *Resolver {
	r := &Resolver{byFoldedName: make(map[string]*ortschema.Role, len(roles))}
	for _, role := range roles {
		r.byFoldedName[fold.String(role.Name)] = role
	}
	return r
}

// Find performs a case-insensitive lookup over all declared roles.
func (r *Resolver) Find(name string) (*ortschema.Role, bool) {
	role, ok := r.byFoldedName[fold.String(name)]
	return role, ok
}

// Inherits reports whether a equals r or is an ancestor of r in the role
// tree — "R has access iff any member A of the rolemap satisfies
// inherits(R, A)" (spec.md §4.2).
func Inherits(r, a *ortschema.Role) bool {
	for cur := r; cur != nil; cur = cur.Parent {
		if cur == a {
			return true
		}
	}
	return false
}

// GrantsAccess reports whether rm grants access to r: some member of rm is r
// or an ancestor of r.
func GrantsAccess(rm *ortschema.Rolemap, r *ortschema.Role) bool {
	if rm == nil {
		return false
	}
	for _, member := range rm.Roles {
		if Inherits(r, member) {
			return true
		}
	}
	return false
}
