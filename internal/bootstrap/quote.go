package bootstrap

import "strings"

// quoteLiteral quotes a string for use as a PostgreSQL string literal.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// quoteIdent quotes an extension name for use as a PostgreSQL identifier.
// Names such as uuid-ossp are not valid bare identifiers.
func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// textArray renders names as a text[] constructor.
func textArray(names []string) string {
	if len(names) == 0 {
		return "'{}'::text[]"
	}
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteLiteral(n)
	}
	return "ARRAY[" + strings.Join(quoted, ", ") + "]::text[]"
}
