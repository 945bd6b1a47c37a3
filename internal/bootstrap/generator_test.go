package bootstrap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgbundle/internal/manifest"
)

func TestGenerate_DemoEntry(t *testing.T) {
	on := true
	m := &manifest.Manifest{Entries: []manifest.Entry{{
		Name:    "demo",
		Kind:    manifest.KindExtension,
		Enabled: &on,
		Runtime: manifest.Runtime{DefaultEnable: true, SharedPreload: false, PreloadOnly: false},
	}}}

	sql := Generate(m)

	assert.Equal(t, 1, strings.Count(sql, `CREATE EXTENSION IF NOT EXISTS "demo";`))
	assert.Equal(t, 1, strings.Count(sql, "EXCEPTION WHEN OTHERS THEN"))
	assert.Contains(t, sql, "expected text[] := ARRAY['demo']::text[];")
	assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS pgbundle_init_status (")
	assert.Contains(t, sql, "RAISE WARNING 'pgbundle: CREATE EXTENSION % failed: %', 'demo', SQLERRM;")
	assert.Contains(t, sql, "message = format('%s of %s extensions created'")
	assert.NotContains(t, sql, "%!")
}

func TestGenerate_NoExtensions(t *testing.T) {
	tool := manifest.Entry{Name: "pgbadger", Kind: manifest.KindTool, Runtime: manifest.Runtime{DefaultEnable: true}}
	sqlOnly := manifest.Entry{Name: "pgflow", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true, PreloadOnly: true}}

	for _, m := range []*manifest.Manifest{
		{},
		{Entries: []manifest.Entry{tool, sqlOnly}},
	} {
		sql := Generate(m)
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS pgbundle_init_status (")
		assert.Contains(t, sql, "'no_extensions'")
		assert.NotContains(t, sql, "CREATE EXTENSION")
	}
}

func TestGenerate_OneBlockPerExtensionInDependencyOrder(t *testing.T) {
	m := &manifest.Manifest{Entries: []manifest.Entry{
		{Name: "postgis_topology", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true}, Dependencies: []string{"postgis"}},
		{Name: "postgis", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true}},
		{Name: "uuid-ossp", Kind: manifest.KindBuiltin, Runtime: manifest.Runtime{DefaultEnable: true}},
		{Name: "pg_cron", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true, SharedPreload: true}},
		{Name: "auto_explain", Kind: manifest.KindBuiltin, Runtime: manifest.Runtime{DefaultEnable: true, SharedPreload: true, PreloadOnly: true}},
		{Name: "optional", Kind: manifest.KindExtension, Runtime: manifest.Runtime{}},
	}}

	sql := Generate(m)

	assert.Equal(t, 4, strings.Count(sql, "EXCEPTION WHEN OTHERS THEN"))
	assert.Less(t, strings.Index(sql, `"postgis";`), strings.Index(sql, `"postgis_topology";`))
	assert.Contains(t, sql, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`)
	assert.Contains(t, sql, `CREATE EXTENSION IF NOT EXISTS "pg_cron";`)
	assert.NotContains(t, sql, `"auto_explain"`)
	assert.NotContains(t, sql, `"optional"`)
}

func TestGenerateFor_QuotesNames(t *testing.T) {
	sql := GenerateFor([]string{`we"ird`, "it's"})
	assert.Contains(t, sql, `CREATE EXTENSION IF NOT EXISTS "we""ird";`)
	assert.Contains(t, sql, `array_append(created, 'it''s')`)
}

func TestGenerate_Idempotent(t *testing.T) {
	names := []string{"vector", "pg_trgm"}
	assert.Equal(t, GenerateFor(names), GenerateFor(names))
}

func TestFinalStatus(t *testing.T) {
	tests := []struct {
		attempted, failed int
		want              Status
	}{
		{0, 0, StatusNoExtensions},
		{1, 0, StatusCompleted},
		{5, 0, StatusCompleted},
		{5, 1, StatusPartial},
		{5, 4, StatusPartial},
		{5, 5, StatusFailed},
		{1, 1, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d failed", tt.failed, tt.attempted), func(t *testing.T) {
			assert.Equal(t, tt.want, FinalStatus(tt.attempted, tt.failed))
		})
	}
}

var whenZero = regexp.MustCompile(`^WHEN cardinality\((\w+)\) = (\d+) THEN '(\w+)'$`)

// evalOutcome evaluates the outcome CASE of a generated script for the given
// counts of created and failed extensions.
func evalOutcome(t *testing.T, sql string, created, failed int) Status {
	t.Helper()
	counts := map[string]int{"created": created, "failed": failed}

	start := strings.Index(sql, "outcome := CASE\n")
	require.NotEqual(t, -1, start, "script has no outcome CASE")
	body := sql[start+len("outcome := CASE\n"):]
	end := strings.Index(body, "END;")
	require.NotEqual(t, -1, end, "outcome CASE is not terminated")

	for _, line := range strings.Split(strings.TrimSpace(body[:end]), "\n") {
		line = strings.TrimSpace(line)
		if m := whenZero.FindStringSubmatch(line); m != nil {
			count, ok := counts[m[1]]
			require.True(t, ok, "unknown array in %q", line)
			if zero, _ := strconv.Atoi(m[2]); count == zero {
				return Status(m[3])
			}
			continue
		}
		if rest, ok := strings.CutPrefix(line, "ELSE "); ok {
			return Status(strings.Trim(rest, "'"))
		}
		t.Fatalf("unexpected CASE line %q", line)
	}
	t.Fatalf("outcome CASE has no ELSE branch")
	return ""
}

func TestGenerate_OutcomeMatchesFinalStatus(t *testing.T) {
	sql := GenerateFor([]string{"vector", "pg_trgm", "hstore"})

	tests := []struct {
		attempted, failed int
	}{
		{1, 0},
		{3, 0},
		{3, 1},
		{3, 2},
		{3, 3},
		{1, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d of %d failed", tt.failed, tt.attempted), func(t *testing.T) {
			got := evalOutcome(t, sql, tt.attempted-tt.failed, tt.failed)
			assert.Equal(t, FinalStatus(tt.attempted, tt.failed), got)
		})
	}

	empty := GenerateFor(nil)
	assert.NotContains(t, empty, "outcome := CASE")
	assert.Contains(t, empty, "'"+string(FinalStatus(0, 0))+"'")
}
