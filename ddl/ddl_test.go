package ddl_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/ddl"
)

func TestEmitScenarioC(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	user.AddField("name", ortschema.Text)

	got := ddl.Emit(cfg, ddl.Options{})
	want := "PRAGMA foreign_keys=ON;\n" +
		"CREATE TABLE user (\n\tid INTEGER PRIMARY KEY,\n\tname TEXT NOT NULL\n);\n"
	c.Assert(got, qt.Equals, want)
}

func TestEmitOrdersColumnsThenForeignKeysThenUniques(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	userID := user.AddField("id", ortschema.Int)
	userID.Flags |= ortschema.FlagRowid

	post := cfg.AddStruct("post")
	postID := post.AddField("id", ortschema.Int)
	postID.Flags |= ortschema.FlagRowid
	authorID := post.AddField("author_id", ortschema.Int)
	c.Assert(authorID.SetRef(userID, ortschema.ActionCascade, ortschema.ActionNullify), qt.IsNil)
	title := post.AddField("title", ortschema.Text)
	title.Flags |= ortschema.FlagUnique
	slug := post.AddField("slug", ortschema.Text)
	post.AddUnique(title, slug)

	got := ddl.EmitStruct(post, ddl.Options{})
	want := "CREATE TABLE post (\n" +
		"\tid INTEGER PRIMARY KEY,\n" +
		"\tauthor_id INTEGER NOT NULL,\n" +
		"\ttitle TEXT UNIQUE NOT NULL,\n" +
		"\tslug TEXT NOT NULL,\n" +
		"\tFOREIGN KEY(author_id) REFERENCES user(id) ON DELETE CASCADE ON UPDATE SET NULL,\n" +
		"\tUNIQUE(title, slug)\n" +
		");\n"
	c.Assert(got, qt.Equals, want)
}

// TestEmitStructTypedFieldOmitsColumnAndForeignKey exercises spec.md §4.5's
// struct-typed-field rule: a struct-typed field materializes neither a
// column nor its own FK line, since it carries no storage of its own — only
// an explicit ref-keyword field renders a FOREIGN KEY clause.
func TestEmitStructTypedFieldOmitsColumnAndForeignKey(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	userID := cfg.AddStruct("user").AddField("id", ortschema.Int)
	userID.Flags |= ortschema.FlagRowid

	post := cfg.AddStruct("post")
	post.AddField("id", ortschema.Int).Flags |= ortschema.FlagRowid
	author := post.AddField("author", ortschema.StructType)
	c.Assert(author.SetRef(userID, ortschema.ActionNone, ortschema.ActionNone), qt.IsNil)

	got := ddl.EmitStruct(post, ddl.Options{})
	want := "CREATE TABLE post (\n" +
		"\tid INTEGER PRIMARY KEY\n" +
		");\n"
	c.Assert(got, qt.Equals, want)
}

func TestEmitCommentsIncludeDocAndEpochNote(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	user.Doc = "a registered user"
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	created := user.AddField("created_at", ortschema.Epoch)
	created.Doc = "when the row was created"

	got := ddl.Emit(cfg, ddl.Options{Comments: true})
	c.Assert(got, qt.Contains, "-- a registered user")
	c.Assert(got, qt.Contains, "-- when the row was created")
	c.Assert(got, qt.Contains, "-- (Stored as a UNIX epoch value.)")
}

func TestEmitCommentsDisabledOmitsComments(t *testing.T) {
	c := qt.New(t)

	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	user.Doc = "a registered user"
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid

	got := ddl.Emit(cfg, ddl.Options{Comments: false})
	c.Assert(got, qt.Not(qt.Contains), "--")
}
