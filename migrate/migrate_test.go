package migrate_test

import (
	"bytes"
	"log/slog"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/diff"
	"github.com/ortlang/ortc/migrate"
)

func baseUser() *ortschema.Config {
	cfg := ortschema.NewConfig()
	user := cfg.AddStruct("user")
	id := user.AddField("id", ortschema.Int)
	id.Flags |= ortschema.FlagRowid
	return cfg
}

// TestValidateScenarioDSafeAddField reproduces spec.md §8 Scenario D: an
// added field is safe and emits an ALTER TABLE ADD COLUMN statement.
func TestValidateScenarioDSafeAddField(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	into := baseUser()
	into.FindStruct("user").AddField("name", ortschema.Text)

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsTrue)
	c.Assert(result.DDL, qt.Contains, "ALTER TABLE user ADD COLUMN name TEXT NOT NULL;")
	c.Assert(result.DDL, qt.Contains, "PRAGMA foreign_keys=ON;")
}

// TestValidateScenarioEModFieldTypeErrors reproduces spec.md §8 Scenario E:
// a field type change is irreconcilable and suppresses DDL entirely.
func TestValidateScenarioEModFieldTypeErrors(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	from.FindStruct("user").AddField("age", ortschema.Int)
	into := baseUser()
	into.FindStruct("user").AddField("age", ortschema.Text)

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsFalse)
	c.Assert(result.DDL, qt.Equals, "")
	c.Assert(result.Errors, qt.HasLen, 1)
	c.Assert(result.Errors[0], qt.Contains, "age")
	c.Assert(result.Errors[0], qt.Contains, "type has changed")
}

// TestValidateScenarioFDeletedStruct reproduces spec.md §8 Scenario F: a
// dropped table is irreconcilable without destruct, and a DROP TABLE under
// destruct mode.
func TestValidateScenarioFDeletedStruct(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	from.AddStruct("legacy")
	into := baseUser()

	recs := diff.Compare(from, into)

	blocked := migrate.Validate(recs, migrate.Options{Destruct: false})
	c.Assert(blocked.Ok(), qt.IsFalse)
	c.Assert(blocked.Errors[0], qt.Contains, "deleted table legacy")

	allowed := migrate.Validate(recs, migrate.Options{Destruct: true})
	c.Assert(allowed.Ok(), qt.IsTrue)
	c.Assert(allowed.DDL, qt.Contains, "DROP TABLE legacy;")
}

func TestValidateAddUniqueAlwaysErrors(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	into := baseUser()
	iu := into.FindStruct("user")
	name := iu.AddField("name", ortschema.Text)
	iu.AddUnique(name)
	// the matching name field must exist on both sides to avoid an
	// unrelated ADD_FIELD record crowding out the assertion below.
	from.FindStruct("user").AddField("name", ortschema.Text)

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsFalse)
	c.Assert(result.Errors[0], qt.Contains, "cannot be retrofitted")
}

// TestValidateSkipsFieldDefaultAndDocAsSafe exercises the Open Question
// decision (DESIGN.md): MOD_FIELD_DEFAULT and MOD_FIELD_DOC never block a
// migration and contribute no DDL of their own.
func TestValidateSkipsFieldDefaultAndDocAsSafe(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	fName := from.FindStruct("user").AddField("name", ortschema.Text)
	fName.Doc = "old doc"
	fName.Default = "old"

	into := baseUser()
	iName := into.FindStruct("user").AddField("name", ortschema.Text)
	iName.Doc = "new doc"
	iName.Default = "new"

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsTrue)
	c.Assert(result.DDL, qt.Equals, "")
}

// TestValidateSkipsStructTypedFieldReferenceChange exercises the
// ModFieldReference skip-if-struct-typed rule: a struct-typed field's
// target change is not classified as an error, unlike a ref-keyword field.
func TestValidateSkipsStructTypedFieldReferenceChange(t *testing.T) {
	c := qt.New(t)

	from := ortschema.NewConfig()
	fUser := from.AddStruct("user")
	fUserID := fUser.AddField("id", ortschema.Int)
	fUserID.Flags |= ortschema.FlagRowid
	fOther := from.AddStruct("other")
	fOtherID := fOther.AddField("id", ortschema.Int)
	fOtherID.Flags |= ortschema.FlagRowid
	fPost := from.AddStruct("post")
	fPost.AddField("id", ortschema.Int).Flags |= ortschema.FlagRowid
	fAuthor := fPost.AddField("author", ortschema.StructType)
	c.Assert(fAuthor.SetRef(fUserID, ortschema.ActionNone, ortschema.ActionNone), qt.IsNil)

	into := ortschema.NewConfig()
	iUser := into.AddStruct("user")
	iUserID := iUser.AddField("id", ortschema.Int)
	iUserID.Flags |= ortschema.FlagRowid
	iOther := into.AddStruct("other")
	iOtherID := iOther.AddField("id", ortschema.Int)
	iOtherID.Flags |= ortschema.FlagRowid
	iPost := into.AddStruct("post")
	iPost.AddField("id", ortschema.Int).Flags |= ortschema.FlagRowid
	iAuthor := iPost.AddField("author", ortschema.StructType)
	c.Assert(iAuthor.SetRef(iOtherID, ortschema.ActionNone, ortschema.ActionNone), qt.IsNil)

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsTrue)
}

func TestValidateDefaultLiteralQuotesTextAndEscapesQuotes(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	into := baseUser()
	f := into.FindStruct("user").AddField("nickname", ortschema.Text)
	f.Flags |= ortschema.FlagHasDefault
	f.Default = "O'Brien"

	recs := diff.Compare(from, into)
	result := migrate.Validate(recs, migrate.Options{})
	c.Assert(result.Ok(), qt.IsTrue)
	c.Assert(result.DDL, qt.Contains, "DEFAULT 'O''Brien'")
}

// TestValidateOptionsLoggerReportsFailure exercises Options.Logger on the
// irreconcilable path.
func TestValidateOptionsLoggerReportsFailure(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	from.FindStruct("user").AddField("age", ortschema.Int)
	into := baseUser()
	into.FindStruct("user").AddField("age", ortschema.Text)

	recs := diff.Compare(from, into)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	result := migrate.Validate(recs, migrate.Options{Logger: logger})
	c.Assert(result.Ok(), qt.IsFalse)
	c.Assert(buf.String(), qt.Contains, "migrate: validation failed")
	c.Assert(buf.String(), qt.Contains, "errors=1")
}

// TestValidateOptionsLoggerReportsCleanPass exercises Options.Logger at
// Debug level on a clean migration.
func TestValidateOptionsLoggerReportsCleanPass(t *testing.T) {
	c := qt.New(t)

	from := baseUser()
	into := baseUser()
	into.FindStruct("user").AddField("name", ortschema.Text)

	recs := diff.Compare(from, into)
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	result := migrate.Validate(recs, migrate.Options{Logger: logger})
	c.Assert(result.Ok(), qt.IsTrue)
	c.Assert(buf.String(), qt.Contains, "migrate: validation clean")
}
