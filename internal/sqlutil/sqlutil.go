// Package sqlutil holds small SQL text helpers: literal quoting (used by
// migrate's default-value rendering) and comment stripping. Grounded on the teacher's
// per-dialect renderer helpers (core/renderer/dialects/mysql/mysql.go calls
// a shared quoting helper before handing text to its writer); ortc has a
// single dialect, so the helper lives at module scope instead of behind a
// per-dialect interface.
package sqlutil

import "strings"

// QuoteLiteral renders s as a single-quoted SQL text literal, doubling any
// embedded single quote per the standard SQL escaping rule.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// StripComments removes every line that is empty or begins with "--" (after
// leading whitespace) from ddl text, leaving only the structural
// statements. No package in this module calls it.
func StripComments(ddl string) string {
	lines := strings.Split(ddl, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "--") {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n")
}
