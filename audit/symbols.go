package audit

import (
	"strings"

	"github.com/ortlang/ortc/core/ortschema"
)

// InsertSymbol names a struct's insert operation, per spec.md §4.4:
// db_<struct>_insert. Ported in meaning from print_name_db_insert in
// audit-json.c.
func InsertSymbol(s *ortschema.Struct) string {
	return "db_" + s.Name + "_insert"
}

func sentenceUname(path []string) string {
	return strings.Join(path, "_")
}

// SearchSymbol names a search operation, per spec.md §4.4. Ported in
// meaning from print_name_db_search in audit-json.c.
func SearchSymbol(s *ortschema.Search) string {
	var b strings.Builder
	b.WriteString("db_")
	b.WriteString(s.Parent.Name)
	b.WriteString("_")
	b.WriteString(s.Kind.String())

	switch {
	case s.Name == "" && len(s.Sentence) > 0:
		b.WriteString("_by")
		for _, term := range s.Sentence {
			b.WriteString("_")
			b.WriteString(sentenceUname(term.Path))
			b.WriteString("_")
			b.WriteString(term.Op.String())
		}
	case s.Name != "":
		b.WriteString("_")
		b.WriteString(s.Name)
	}
	return b.String()
}

// UpdateSymbol names an update or delete operation, per spec.md §4.4.
// Ported in meaning from print_name_db_update in audit-json.c.
func UpdateSymbol(u *ortschema.Update) string {
	var b strings.Builder
	b.WriteString("db_")
	b.WriteString(u.Parent.Name)
	b.WriteString("_")
	b.WriteString(u.Kind.String())

	switch {
	case u.Name == "" && u.Kind == ortschema.Modify:
		if u.Flags&ortschema.UpdateAll == 0 {
			for _, m := range u.ModifyRefs {
				b.WriteString("_")
				b.WriteString(m.Field.Name)
				b.WriteString("_")
				b.WriteString(m.Mod.String())
			}
		}
		if len(u.CondRefs) > 0 {
			b.WriteString("_by")
			for _, c := range u.CondRefs {
				b.WriteString("_")
				b.WriteString(c.Field.Name)
				b.WriteString("_")
				b.WriteString(c.Op.String())
			}
		}
	case u.Name == "":
		if len(u.CondRefs) > 0 {
			b.WriteString("_by")
			for _, c := range u.CondRefs {
				b.WriteString("_")
				b.WriteString(c.Field.Name)
				b.WriteString("_")
				b.WriteString(c.Op.String())
			}
		}
	default:
		b.WriteString("_")
		b.WriteString(u.Name)
	}
	return b.String()
}
