// Package ddl walks a linked schema and renders it as SQLite-flavored DDL
// — spec.md §4.5. The renderer targets a single dialect and is a set of
// plain per-struct/per-field rendering functions over a line writer, since
// spec.md §1's Non-goals rule out a general dialect abstraction.
package ddl

import (
	"fmt"
	"strings"

	"github.com/ortlang/ortc/core/ortschema"
	"github.com/ortlang/ortc/ddl/internal/linewriter"
)

// Options controls comment emission — the only DDL emitter knob spec.md
// §4.5 names.
type Options struct {
	Comments bool
}

// epochComment is the fixed note §4.5 requires after an epoch/date field's
// doc comment.
const epochComment = "(Stored as a UNIX epoch value.)"

// Emit renders cfg as PRAGMA foreign_keys=ON; followed by one CREATE TABLE
// per Struct in declaration order.
func Emit(cfg *ortschema.Config, opts Options) string {
	var w linewriter.Writer
	w.WriteLine("PRAGMA foreign_keys=ON;")
	for _, s := range cfg.Structs {
		emitStruct(&w, s, opts)
	}
	return w.String()
}

// EmitStruct renders a single Struct's CREATE TABLE statement, with no
// PRAGMA prologue — the building block migrate's new-table DDL reuses so it
// need not duplicate §4.5's column/FK/unique ordering.
func EmitStruct(s *ortschema.Struct, opts Options) string {
	var w linewriter.Writer
	emitStruct(&w, s, opts)
	return w.String()
}

func emitStruct(w *linewriter.Writer, s *ortschema.Struct, opts Options) {
	if opts.Comments && s.Doc != "" {
		w.WriteLine("-- " + s.Doc)
	}

	var lines []string
	for _, f := range s.Fields {
		if f.Type == ortschema.StructType {
			continue
		}
		lines = append(lines, columnLine(f, opts))
	}
	for _, f := range s.Fields {
		if f.Type == ortschema.StructType || f.Ref == nil {
			continue
		}
		lines = append(lines, fkLine(f))
	}
	for _, u := range s.Unique {
		lines = append(lines, uniqueLine(u))
	}

	w.WriteString(fmt.Sprintf("CREATE TABLE %s (\n\t%s\n);\n", s.Name, strings.Join(lines, ",\n\t")))
}

func columnLine(f *ortschema.Field, opts Options) string {
	var b strings.Builder
	if opts.Comments && f.Doc != "" {
		fmt.Fprintf(&b, "-- %s\n\t", f.Doc)
	}
	if opts.Comments && (f.Type == ortschema.Epoch || f.Type == ortschema.Date) {
		fmt.Fprintf(&b, "-- %s\n\t", epochComment)
	}
	fmt.Fprintf(&b, "%s %s", f.Name, f.Type.SQLType())
	if f.Flags.Has(ortschema.FlagRowid) {
		b.WriteString(" PRIMARY KEY")
	}
	if f.Flags.Has(ortschema.FlagUnique) {
		b.WriteString(" UNIQUE")
	}
	if !f.Flags.Has(ortschema.FlagRowid) && !f.Flags.Has(ortschema.FlagNull) {
		b.WriteString(" NOT NULL")
	}
	return b.String()
}

func fkLine(f *ortschema.Field) string {
	var b strings.Builder
	fmt.Fprintf(&b, "FOREIGN KEY(%s) REFERENCES %s(%s)", f.Name, f.Ref.Target.Parent.Name, f.Ref.Target.Name)
	if action := actionKeyword(f.Ref.OnDelete); action != "" {
		fmt.Fprintf(&b, " ON DELETE %s", action)
	}
	if action := actionKeyword(f.Ref.OnUpdate); action != "" {
		fmt.Fprintf(&b, " ON UPDATE %s", action)
	}
	return b.String()
}

// actionKeyword maps an UpdateAction to its DDL keyword, per spec.md §4.5
// ("none -> omit; restrict, nullify->SET NULL, cascade, default->SET
// DEFAULT").
func actionKeyword(a ortschema.UpdateAction) string {
	return a.String()
}

func uniqueLine(u *ortschema.Unique) string {
	names := make([]string, len(u.Fields))
	for i, f := range u.Fields {
		names[i] = f.Name
	}
	return fmt.Sprintf("UNIQUE(%s)", strings.Join(names, ", "))
}
