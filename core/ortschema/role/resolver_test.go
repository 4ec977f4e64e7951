package role_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/core/ortschema/role"
)

func TestInheritsWalksAncestry(t *testing.T) {
	c := qt.New(t)

	all := &ortschema.Role{Name: "all"}
	admin := &ortschema.Role{Name: "admin", Parent: all}
	super := &ortschema.Role{Name: "super", Parent: admin}

	c.Assert(role.Inherits(super, super), qt.IsTrue)
	c.Assert(role.Inherits(super, admin), qt.IsTrue)
	c.Assert(role.Inherits(super, all), qt.IsTrue)
	c.Assert(role.Inherits(admin, super), qt.IsFalse)
}

func TestFindIsCaseInsensitive(t *testing.T) {
	c := qt.New(t)

	all := &ortschema.Role{Name: "all"}
	admin := &ortschema.Role{Name: "Admin", Parent: all}

	r := role.New([]*ortschema.Role{all, admin})

	found, ok := r.Find("admin")
	c.Assert(ok, qt.IsTrue)
	c.Assert(found, qt.Equals, admin)

	found, ok = r.Find("ADMIN")
	c.Assert(ok, qt.IsTrue)
	c.Assert(found, qt.Equals, admin)

	_, ok = r.Find("nobody")
	c.Assert(ok, qt.IsFalse)
}

func TestGrantsAccessViaAncestor(t *testing.T) {
	c := qt.New(t)

	all := &ortschema.Role{Name: "all"}
	admin := &ortschema.Role{Name: "admin", Parent: all}
	super := &ortschema.Role{Name: "super", Parent: admin}

	rm := &ortschema.Rolemap{Roles: []*ortschema.Role{admin}}

	c.Assert(role.GrantsAccess(rm, super), qt.IsTrue)
	c.Assert(role.GrantsAccess(rm, admin), qt.IsTrue)
	c.Assert(role.GrantsAccess(rm, all), qt.IsFalse)
	c.Assert(role.GrantsAccess(nil, super), qt.IsFalse)
}
