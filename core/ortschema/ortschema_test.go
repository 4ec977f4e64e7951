package ortschema_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/core/ortschema"
)

func TestNewConfigHasSyntheticRoot(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()

	c.Assert(cfg.RootRole, qt.IsNotNil)
	c.Assert(cfg.RootRole.Name, qt.Equals, "all")
	c.Assert(cfg.Roles, qt.HasLen, 1)
	c.Assert(cfg.RolesEnabled, qt.IsFalse)
}

func TestAddRoleEnablesRolesAndLinksParent(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	admin := cfg.AddRole("admin", nil)

	c.Assert(cfg.RolesEnabled, qt.IsTrue)
	c.Assert(admin.Parent, qt.Equals, cfg.RootRole)
	c.Assert(cfg.RootRole.Children, qt.HasLen, 1)

	super := cfg.AddRole("super", admin)
	c.Assert(super.Parent, qt.Equals, admin)
}

func TestSetRefRejectsOwnStruct(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("user")
	id := s.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	parent := s.AddField("parent", ortschema.Int)

	err := parent.SetRef(id, ortschema.ActionNone, ortschema.ActionNone)
	c.Assert(err, qt.ErrorMatches, ".*cannot reference a field of its own struct")
}

func TestSetRefRejectsNonRowidTarget(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	name := user.AddField("name", ortschema.Text)
	post := cfg.AddStruct("post")
	author := post.AddField("author", ortschema.Int)

	err := author.SetRef(name, ortschema.ActionNone, ortschema.ActionNone)
	c.Assert(err, qt.ErrorMatches, ".*is not a rowid")
}

func TestSetRefOk(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	post := cfg.AddStruct("post")
	author := post.AddField("author", ortschema.Int)

	err := author.SetRef(id, ortschema.ActionCascade, ortschema.ActionNullify)
	c.Assert(err, qt.IsNil)
	c.Assert(author.Ref.Target, qt.Equals, id)
	c.Assert(author.Ref.OnDelete, qt.Equals, ortschema.ActionCascade)
	c.Assert(author.Ref.OnUpdate, qt.Equals, ortschema.ActionNullify)
}

func TestValidateCatchesDuplicateStructNames(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	cfg.AddStruct("user")
	cfg.AddStruct("user")

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*duplicate struct name.*")
}

func TestValidateCatchesDuplicateFieldNames(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("user")
	s.AddField("id", ortschema.Int)
	s.AddField("id", ortschema.Text)

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*duplicate field name.*")
}

func TestValidateCatchesStructFieldWithoutRef(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("post")
	s.AddField("author", ortschema.StructType)

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*struct-typed field.*has no reference")
}

func TestValidateCatchesEnumFieldWithoutEnum(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("post")
	s.AddField("status", ortschema.EnumType)

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*enum-typed field.*has no enum reference")
}

func TestValidateCatchesMultipleRowids(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("user")
	a := s.AddField("a", ortschema.Int)
	a.Flags |= ortschema.FlagRowid
	b := s.AddField("b", ortschema.Int)
	b.Flags |= ortschema.FlagRowid

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*more than one rowid field")
}

func TestValidateCatchesDuplicateEnumValues(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	e := cfg.AddEnum("status")
	e.AddItem("a", 1)
	e.AddItem("b", 1)

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*duplicate value.*")
}

func TestValidateCatchesDuplicateBitIndices(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	b := cfg.AddBitfield("flags")
	b.AddBit("a", 0)
	b.AddBit("b", 0)

	c.Assert(cfg.Validate(), qt.ErrorMatches, ".*duplicate bit index.*")
}

func TestValidateOkForWellFormedConfig(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	user.AddField("name", ortschema.Text)

	c.Assert(cfg.Validate(), qt.IsNil)
}

func TestFieldTypeSQLTypeAndShape(t *testing.T) {
	c := qt.New(t)

	c.Assert(ortschema.Int.SQLType(), qt.Equals, "INTEGER")
	c.Assert(ortschema.Real.SQLType(), qt.Equals, "REAL")
	c.Assert(ortschema.Blob.SQLType(), qt.Equals, "BLOB")
	c.Assert(ortschema.Text.SQLType(), qt.Equals, "TEXT")
	c.Assert(ortschema.StructType.SQLType(), qt.Equals, "")

	c.Assert(ortschema.Text.IsTextShaped(), qt.IsTrue)
	c.Assert(ortschema.Password.IsTextShaped(), qt.IsTrue)
	c.Assert(ortschema.Int.IsTextShaped(), qt.IsFalse)

	c.Assert(ortschema.Int.IsNumericShaped(), qt.IsTrue)
	c.Assert(ortschema.Text.IsNumericShaped(), qt.IsFalse)
}

func TestOperatorIsUnary(t *testing.T) {
	c := qt.New(t)

	c.Assert(ortschema.OpIsNull.IsUnary(), qt.IsTrue)
	c.Assert(ortschema.OpNotNull.IsUnary(), qt.IsTrue)
	c.Assert(ortschema.OpEq.IsUnary(), qt.IsFalse)
}

func TestStructUpdatesDeletesSearchesFilters(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	s := cfg.AddStruct("user")
	s.AddUpdate(ortschema.Modify, "")
	s.AddUpdate(ortschema.Delete, "")
	s.AddSearch(ortschema.Get, "")
	s.AddSearch(ortschema.List, "")

	c.Assert(s.Updates(), qt.HasLen, 1)
	c.Assert(s.Deletes(), qt.HasLen, 1)
	c.Assert(s.Searches(ortschema.Get), qt.HasLen, 1)
	c.Assert(s.Searches(ortschema.List), qt.HasLen, 1)
	c.Assert(s.Searches(ortschema.Count), qt.HasLen, 0)
}

func TestConfigFinders(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	cfg.AddStruct("user")
	cfg.AddEnum("status")
	cfg.AddBitfield("perms")

	c.Assert(cfg.FindStruct("user"), qt.IsNotNil)
	c.Assert(cfg.FindStruct("missing"), qt.IsNil)
	c.Assert(cfg.FindEnum("status"), qt.IsNotNil)
	c.Assert(cfg.FindBitfield("perms"), qt.IsNotNil)
}
