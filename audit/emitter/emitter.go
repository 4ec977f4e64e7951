// Package emitter serializes an audit.Report into the JSON-in-JS shape of
// spec.md §4.4/§6, byte-for-byte ported in meaning from gen_audit_json and
// print_doc in audit-json.c — the one place this module intentionally pins
// output byte-shape, since spec.md §8 treats the JSON encoding as a
// testable property.
package emitter

import (
	"fmt"
	"strings"

	"github.com/ortlang/ortc/audit"
)

// Emit renders rep as the `(function(root){ 'use strict'; ... })(this);`
// script-embedded JSON document of spec.md §6.
func Emit(rep *audit.Report) string {
	var b strings.Builder

	b.WriteString("(function(root) {\n")
	b.WriteString("\t'use strict';\n")
	b.WriteString("\tvar audit = {\n")
	fmt.Fprintf(&b, "\t    \"role\": %s,\n", quoteString(rep.Role.Name))
	fmt.Fprintf(&b, "\t    \"doc\": %s,\n", quoteDoc(rep.RoleDoc))
	b.WriteString("\t    \"access\": [\n")
	for i, sa := range rep.Access {
		writeStructAccess(&b, sa)
		if i < len(rep.Access)-1 {
			b.WriteString(",\n")
		} else {
			b.WriteString("\n")
		}
	}
	b.WriteString("\t],\n")

	b.WriteString("\t\"functions\": {")
	for i, fn := range rep.Functions {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n\t\t%s: {\n\t\t\t\"doc\": %s,\n\t\t\t\"type\": %s }",
			quoteString(fn.Symbol), quoteDoc(fn.Doc), quoteString(fn.Type))
	}
	b.WriteString("\n\t},\n")

	b.WriteString("\t\"fields\": {")
	for i, fi := range rep.Fields {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(&b, "\n\t\t%s: {\n\t\t\t\"export\": %s,\n\t\t\t\"doc\": %s }",
			quoteString(fi.Key), boolLit(fi.Export), quoteDoc(fi.Doc))
	}
	b.WriteString("\n\t}};\n\n")
	b.WriteString("\troot.audit = audit;\n")
	b.WriteString("})(this);\n")

	return b.String()
}

func writeStructAccess(b *strings.Builder, sa audit.StructAccess) {
	fmt.Fprintf(b, "\t\t{ \"name\": %s,\n", quoteString(sa.Struct.Name))
	b.WriteString("\t\t  \"access\": {\n")
	fmt.Fprintf(b, "\t\t\t\"exportable\": %s,\n", boolLit(sa.Exportable))
	b.WriteString("\t\t\t\"data\": [\n")
	for i, f := range sa.Struct.Fields {
		fmt.Fprintf(b, "\t\t\t\t%s%s\n", quoteString(f.Name), commaIf(i < len(sa.Struct.Fields)-1))
	}
	b.WriteString("\t\t\t],\n")
	b.WriteString("\t\t\t\"accessfrom\": [\n")
	for i, af := range sa.AccessFrom {
		fmt.Fprintf(b, "\t\t\t\t{ \"function\": %s,\n", quoteString(audit.SearchSymbol(af.Search)))
		fmt.Fprintf(b, "\t\t\t\t  \"exporting\": %s,\n", boolLit(af.Exported))
		fmt.Fprintf(b, "\t\t\t\t  \"path\": %s }%s\n", quoteString(af.Path), commaIf(i < len(sa.AccessFrom)-1))
	}
	b.WriteString("\t\t\t],\n")
	fmt.Fprintf(b, "\t\t\t\"insert\": %s,\n", optionalSymbol(sa.InsertSymbol))
	writeSymbolArray(b, "updates", sa.UpdateSymbols, true)
	writeSymbolArray(b, "deletes", sa.DeleteSymbols, true)
	writeSymbolArray(b, "iterates", sa.IterateSymbols, true)
	writeSymbolArray(b, "lists", sa.ListSymbols, true)
	writeSymbolArray(b, "searches", sa.SearchSymbols, false)
	b.WriteString("\t\t}}")
}

func writeSymbolArray(b *strings.Builder, key string, symbols []string, trailingComma bool) {
	fmt.Fprintf(b, "\t\t\t%s: [", quoteString(key))
	for i, sym := range symbols {
		if i > 0 {
			b.WriteString(",")
		}
		fmt.Fprintf(b, "\n\t\t\t\t%s", quoteString(sym))
	}
	if len(symbols) > 0 {
		b.WriteString("\n\t\t\t")
	}
	b.WriteString("]")
	if trailingComma {
		b.WriteString(",")
	}
	b.WriteString("\n")
}

func optionalSymbol(sym string) string {
	if sym == "" {
		return "null"
	}
	return quoteString(sym)
}

func commaIf(b bool) string {
	if b {
		return ","
	}
	return ""
}

func boolLit(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

// quoteString quotes a value known never to contain characters requiring
// escape (symbol names, struct/field names) — still routed through the
// escaping table for uniformity with quoteDoc.
func quoteString(s string) string {
	return `"` + escape(s) + `"`
}

// quoteDoc renders an optional doc string per spec.md §4.4: nil emits the
// bare `null` literal (no quotes); otherwise the quoted, escaped string.
func quoteDoc(doc string) string {
	if doc == "" {
		return "null"
	}
	return quoteString(doc)
}

// escape implements print_doc's escape table from audit-json.c: `" \ /`
// get a leading backslash, and `\b \f \n \r \t` use the two-character
// escapes — deliberately not encoding/json, which never escapes `/` and
// would violate the round-trip property of spec.md §8.
func escape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '"', '\\', '/':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\b':
			b.WriteString(`\b`)
		case '\f':
			b.WriteString(`\f`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
