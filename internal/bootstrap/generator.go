package bootstrap

import (
	"fmt"
	"strings"

	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Generate returns the first-boot SQL script for m.
//
// The script creates every default extension in dependency order, each in
// its own exception block so one failure never aborts the rest, and records
// the run in the status table. Re-running it is safe: creation is guarded by
// IF NOT EXISTS and every run appends its own row.
func Generate(m *manifest.Manifest) string {
	return GenerateFor(manifest.DefaultExtensions(m))
}

// GenerateFor returns the bootstrap script for an explicit extension list.
func GenerateFor(extensions []string) string {
	var lines []string
	add := func(format string, args ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, args...))
	}

	add("-- Generated by pgbundle. Do not edit.")
	add("-- Creates the default extensions and records the outcome in %s.", pgbundle.StatusTable)
	add("")
	add("CREATE TABLE IF NOT EXISTS %s (", pgbundle.StatusTable)
	add("    initialized_at      timestamptz PRIMARY KEY DEFAULT clock_timestamp(),")
	add("    expected_extensions text[] NOT NULL DEFAULT '{}',")
	add("    created_extensions  text[] NOT NULL DEFAULT '{}',")
	add("    failed_extensions   text[] NOT NULL DEFAULT '{}',")
	add("    status              text NOT NULL CHECK (status IN (%s)),", statusList())
	add("    message             text")
	add(");")
	add("")

	if len(extensions) == 0 {
		add("INSERT INTO %s (initialized_at, expected_extensions, status, message)", pgbundle.StatusTable)
		add("VALUES (clock_timestamp(), '{}', %s, %s);",
			quoteLiteral(string(StatusNoExtensions)),
			quoteLiteral("no extensions are enabled by default in the manifest"))
		return strings.Join(lines, "\n") + "\n"
	}

	add("DO $pgbundle$")
	add("DECLARE")
	add("    run_at   timestamptz := clock_timestamp();")
	add("    expected text[] := %s;", textArray(extensions))
	add("    created  text[] := '{}';")
	add("    failed   text[] := '{}';")
	add("    outcome  text;")
	add("BEGIN")
	add("    INSERT INTO %s (initialized_at, expected_extensions, status)", pgbundle.StatusTable)
	add("    VALUES (run_at, expected, %s);", quoteLiteral(string(StatusInProgress)))

	for _, name := range extensions {
		add("")
		add("    BEGIN")
		add("        CREATE EXTENSION IF NOT EXISTS %s;", quoteIdent(name))
		add("        created := array_append(created, %s);", quoteLiteral(name))
		add("    EXCEPTION WHEN OTHERS THEN")
		add("        failed := array_append(failed, %s);", quoteLiteral(name))
		add("        RAISE WARNING 'pgbundle: CREATE EXTENSION %% failed: %%', %s, SQLERRM;", quoteLiteral(name))
		add("    END;")
	}

	add("")
	add("    outcome := CASE")
	add("        WHEN cardinality(failed) = 0 THEN %s", quoteLiteral(string(StatusCompleted)))
	add("        WHEN cardinality(created) = 0 THEN %s", quoteLiteral(string(StatusFailed)))
	add("        ELSE %s", quoteLiteral(string(StatusPartial)))
	add("    END;")
	add("")
	add("    UPDATE %s", pgbundle.StatusTable)
	add("    SET created_extensions = created,")
	add("        failed_extensions = failed,")
	add("        status = outcome,")
	add("        message = format('%%s of %%s extensions created', cardinality(created), cardinality(expected))")
	add("    WHERE initialized_at = run_at;")
	add("END")
	add("$pgbundle$;")

	return strings.Join(lines, "\n") + "\n"
}

func statusList() string {
	all := []Status{StatusInProgress, StatusCompleted, StatusPartial, StatusFailed, StatusNoExtensions}
	quoted := make([]string, len(all))
	for i, s := range all {
		quoted[i] = quoteLiteral(string(s))
	}
	return strings.Join(quoted, ", ")
}
