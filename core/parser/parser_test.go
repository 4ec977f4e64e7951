package parser_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/core/parser"
)

const scenarioASource = `
role admin;

struct user {
	field id:int rowid;
	field name:text;

	search get {
		by id eq;
		rolemap admin;
	}
}
`

// TestParseScenarioA reproduces spec.md §8 Scenario A's minimal IR from
// source text: one struct user(id rowid, name), one role admin, one get
// search by id eq gated to admin.
func TestParseScenarioA(t *testing.T) {
	c := qt.New(t)

	cfg, err := parser.Parse(scenarioASource, "scenario_a.ort")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.RolesEnabled, qt.IsTrue)

	user := cfg.FindStruct("user")
	c.Assert(user, qt.IsNotNil)
	c.Assert(user.Fields, qt.HasLen, 2)
	c.Assert(user.Fields[0].Name, qt.Equals, "id")
	c.Assert(user.Fields[0].Flags.Has(ortschema.FlagRowid), qt.IsTrue)
	c.Assert(user.Fields[1].Name, qt.Equals, "name")
	c.Assert(user.Fields[1].Type, qt.Equals, ortschema.Text)

	c.Assert(user.Search, qt.HasLen, 1)
	sr := user.Search[0]
	c.Assert(sr.Kind, qt.Equals, ortschema.Get)
	c.Assert(sr.Sentence, qt.HasLen, 1)
	c.Assert(sr.Sentence[0].Path, qt.DeepEquals, []string{"id"})
	c.Assert(sr.Sentence[0].Op, qt.Equals, ortschema.OpEq)
	c.Assert(sr.Rolemap, qt.IsNotNil)
	c.Assert(sr.Rolemap.Roles, qt.HasLen, 1)
	c.Assert(sr.Rolemap.Roles[0].Name, qt.Equals, "admin")
}

const fullSource = `
role admin;
role super parent admin doc "super-admin";

enum status {
	active = 0;
	banned = 1 doc "account banned";
}

bitfield perms {
	read = 0;
	write = 1;
}

struct user doc "a registered user" {
	field id:int rowid;
	field name:text unique;
	field email:email null;
	field status:enum status;
	field perms:bitfield perms;
	field secret:password noexport;

	insert rolemap admin;

	unique name, email;
}

struct post {
	field id:int rowid;
	field author:struct user.id ondelete cascade;
	field author_id:int ref user.id onupdate nullify;
	field title:text;

	search get by_title {
		by title streq;
	}

	update {
		set title set;
		by id eq;
	}

	delete {
		by author eq;
		rolemap admin;
	}
}
`

func TestParseFullGrammarShapes(t *testing.T) {
	c := qt.New(t)

	cfg, err := parser.Parse(fullSource, "full.ort")
	c.Assert(err, qt.IsNil)

	super, ok := func() (*ortschema.Role, bool) {
		for _, r := range cfg.Roles {
			if r.Name == "super" {
				return r, true
			}
		}
		return nil, false
	}()
	c.Assert(ok, qt.IsTrue)
	c.Assert(super.Parent.Name, qt.Equals, "admin")
	c.Assert(super.Doc, qt.Equals, "super-admin")

	enum := cfg.FindEnum("status")
	c.Assert(enum, qt.IsNotNil)
	c.Assert(enum.Items, qt.HasLen, 2)
	c.Assert(enum.Items[1].Doc, qt.Equals, "account banned")

	bf := cfg.FindBitfield("perms")
	c.Assert(bf, qt.IsNotNil)
	c.Assert(bf.Items, qt.HasLen, 2)

	user := cfg.FindStruct("user")
	c.Assert(user, qt.IsNotNil)
	c.Assert(user.Doc, qt.Equals, "a registered user")
	c.Assert(user.Unique, qt.HasLen, 1)
	c.Assert(user.Unique[0].Fields, qt.HasLen, 2)
	c.Assert(user.Insert, qt.IsNotNil)
	c.Assert(user.Insert.Rolemap.Roles[0].Name, qt.Equals, "admin")

	statusField := user.Fields[3]
	c.Assert(statusField.Type, qt.Equals, ortschema.EnumType)
	c.Assert(statusField.Enum, qt.Equals, enum)

	permsField := user.Fields[4]
	c.Assert(permsField.Type, qt.Equals, ortschema.BitfieldType)
	c.Assert(permsField.Bitfield, qt.Equals, bf)

	post := cfg.FindStruct("post")
	c.Assert(post, qt.IsNotNil)

	authorStruct := post.Fields[1]
	c.Assert(authorStruct.Type, qt.Equals, ortschema.StructType)
	c.Assert(authorStruct.Ref.Target, qt.Equals, user.Fields[0])
	c.Assert(authorStruct.Ref.OnDelete, qt.Equals, ortschema.ActionCascade)

	authorID := post.Fields[2]
	c.Assert(authorID.Type, qt.Equals, ortschema.Int)
	c.Assert(authorID.Ref.Target, qt.Equals, user.Fields[0])
	c.Assert(authorID.Ref.OnUpdate, qt.Equals, ortschema.ActionNullify)

	c.Assert(post.Search, qt.HasLen, 1)
	c.Assert(post.Search[0].Name, qt.Equals, "by_title")
	c.Assert(post.Search[0].Sentence[0].Op, qt.Equals, ortschema.OpStreq)

	c.Assert(post.Updates(), qt.HasLen, 1)
	upd := post.Updates()[0]
	c.Assert(upd.ModifyRefs, qt.HasLen, 1)
	c.Assert(upd.ModifyRefs[0].Mod, qt.Equals, ortschema.ModSet)
	c.Assert(upd.CondRefs, qt.HasLen, 1)

	c.Assert(post.Deletes(), qt.HasLen, 1)
	del := post.Deletes()[0]
	c.Assert(del.Rolemap.Roles[0].Name, qt.Equals, "admin")
}

func TestParseUndeclaredRoleReferenceErrors(t *testing.T) {
	c := qt.New(t)

	_, err := parser.Parse(`
struct user {
	field id:int rowid;

	search get {
		by id eq;
		rolemap nobody;
	}
}
`, "bad.ort")
	c.Assert(err, qt.ErrorMatches, ".*undeclared role.*")
}

func TestParseUndeclaredEnumReferenceErrors(t *testing.T) {
	c := qt.New(t)

	_, err := parser.Parse(`
struct post {
	field id:int rowid;
	field status:enum missing_enum;
}
`, "bad.ort")
	c.Assert(err, qt.ErrorMatches, ".*undeclared enum.*")
}

func TestParseRefToNonRowidTargetErrors(t *testing.T) {
	c := qt.New(t)

	_, err := parser.Parse(`
struct user {
	field id:int rowid;
	field name:text;
}
struct post {
	field id:int rowid;
	field author_id:int ref user.name;
}
`, "bad.ort")
	c.Assert(err, qt.ErrorMatches, ".*is not a rowid.*")
}

func TestParseDuplicateStructErrors(t *testing.T) {
	c := qt.New(t)

	_, err := parser.Parse(`
struct user { field id:int rowid; }
struct user { field id:int rowid; }
`, "dup.ort")
	c.Assert(err, qt.ErrorMatches, ".*duplicate struct.*")
}
