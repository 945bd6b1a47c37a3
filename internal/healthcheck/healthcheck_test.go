package healthcheck

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

func demoManifest() *manifest.Manifest {
	on := true
	return &manifest.Manifest{Entries: []manifest.Entry{{
		Name:    "demo",
		Kind:    manifest.KindExtension,
		Enabled: &on,
		Runtime: manifest.Runtime{DefaultEnable: true},
	}}}
}

func TestGenerateScript_Demo(t *testing.T) {
	script := GenerateScript(FromManifest(demoManifest(), config.RolePrimary))

	assert.True(t, strings.HasPrefix(script, "#!/usr/bin/env bash\n"))
	assert.Contains(t, script, "EXPECTED_EXTENSIONS=(\"demo\")\n")
	assert.Contains(t, script, "EXPECTED_COUNT=1\n")
	assert.Contains(t, script, "EXPECTED_PRELOAD=()\n")
	assert.Contains(t, script, "MIN_CATALOG_RELATIONS=50\n")
	assert.Contains(t, script, "STATUS_TABLE=pgbundle_init_status\n")
	assert.Contains(t, script, `ROLE="${PGBUNDLE_ROLE:-primary}"`)
	for tier := 1; tier <= 7; tier++ {
		assert.Contains(t, script, "# Tier "+string(rune('0'+tier))+":")
	}
	assert.Contains(t, script, "Diagnostic: init status")
	assert.Contains(t, script, `if [ "$ROLE" != "replica" ]; then`)
}

func TestGenerateScript_CountMatchesExtensions(t *testing.T) {
	for _, names := range [][]string{nil, {"a"}, {"a", "b", "c"}} {
		script := GenerateScript(Expectations{Extensions: names})
		assert.Contains(t, script, "EXPECTED_COUNT="+string(rune('0'+len(names)))+"\n")
	}
}

func TestGenerateScript_RemovingExtensionOnlyChangesExpectations(t *testing.T) {
	full := Expectations{
		Extensions:  []string{"vector", "pg_cron", "postgis"},
		Preload:     []string{"pg_cron"},
		DefaultRole: config.RoleSingle,
	}
	before := strings.Split(GenerateScript(full), "\n")
	after := strings.Split(GenerateScript(full.Without("pg_cron")), "\n")
	require.Equal(t, len(before), len(after))

	var changed []string
	for i := range before {
		if before[i] != after[i] {
			changed = append(changed, after[i])
		}
	}
	assert.Equal(t, []string{
		`EXPECTED_EXTENSIONS=("vector" "postgis")`,
		"EXPECTED_COUNT=2",
	}, changed)
}

func TestGenerateScript_QuotesShellMetacharacters(t *testing.T) {
	script := GenerateScript(Expectations{Extensions: []string{"a$b", "c\"d"}})
	assert.Contains(t, script, `EXPECTED_EXTENSIONS=("a\$b" "c\"d")`)
}

func TestGenerateScript_Deterministic(t *testing.T) {
	exp := FromManifest(demoManifest(), config.RoleReplica)
	assert.Equal(t, GenerateScript(exp), GenerateScript(exp))
	assert.Contains(t, GenerateScript(exp), `ROLE="${PGBUNDLE_ROLE:-replica}"`)
}

func TestFromManifest(t *testing.T) {
	m := &manifest.Manifest{Entries: []manifest.Entry{
		{Name: "pg_cron", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true, SharedPreload: true}},
		{Name: "auto_explain", Kind: manifest.KindBuiltin, Runtime: manifest.Runtime{DefaultEnable: true, SharedPreload: true, PreloadOnly: true}},
		{Name: "vector", Kind: manifest.KindExtension, Runtime: manifest.Runtime{DefaultEnable: true}},
		{Name: "pgbadger", Kind: manifest.KindTool, Runtime: manifest.Runtime{DefaultEnable: true}},
	}}

	exp := FromManifest(m, config.RolePrimary)
	assert.Equal(t, []string{"pg_cron", "vector"}, exp.Extensions)
	assert.Equal(t, []string{"pg_cron", "auto_explain"}, exp.Preload)
	assert.Equal(t, pgbundle.MinCatalogRelations, exp.MinCatalogRelations)
}

func healthyConn() *scriptedConn {
	c := &scriptedConn{}
	return c.on("unnest", []string{}).
		on("to_regclass", true).
		on("ORDER BY initialized_at DESC", time.Now(), []string{"demo"}, []string{"demo"}, []string{}, "completed", "1 of 1 extensions created").
		on("shared_preload_libraries", "pg_cron, pg_stat_statements").
		on("pg_namespace", 180).
		on("pg_is_in_recovery", false).
		on("SELECT 1", 1)
}

func verifier(c *scriptedConn, role config.Role, logger pgbundle.Logger) *Verifier {
	return NewVerifier(c.connect, role, Expectations{
		Extensions: []string{"demo"},
		Preload:    []string{"pg_cron"},
	}, logger)
}

func tierOf(t *testing.T, err error) *TierFailure {
	t.Helper()
	var failure *TierFailure
	require.True(t, errors.As(err, &failure), "expected TierFailure, got %v", err)
	assert.True(t, errors.Is(err, pgbundle.ErrHealthcheckFailed))
	return failure
}

func TestVerify_Healthy(t *testing.T) {
	logger := &recordingLogger{}
	require.NoError(t, verifier(healthyConn(), config.RolePrimary, logger).Verify(context.Background()))
	assert.Empty(t, logger.warnings)
}

func TestVerify_ConnectFailure(t *testing.T) {
	v := NewVerifier(func(ctx context.Context) (pgbundle.DBConnection, error) {
		return nil, errors.New("dial tcp: connection refused")
	}, config.RolePrimary, Expectations{}, &recordingLogger{})

	failure := tierOf(t, v.Verify(context.Background()))
	assert.Equal(t, TierConnectivity, failure.Tier)
}

func TestVerify_QueryFailure(t *testing.T) {
	c := (&scriptedConn{}).on("SELECT 1", 2)
	failure := tierOf(t, verifier(c, config.RolePrimary, &recordingLogger{}).Verify(context.Background()))
	assert.Equal(t, TierQuery, failure.Tier)
}

func TestVerify_MissingExtensionWithDiagnostic(t *testing.T) {
	c := (&scriptedConn{}).
		on("unnest", []string{"demo"}).
		on("to_regclass", true).
		on("ORDER BY initialized_at DESC", time.Now(), []string{"demo"}, []string{}, []string{"demo"}, "failed", nil).
		on("SELECT 1", 1)

	failure := tierOf(t, verifier(c, config.RolePrimary, &recordingLogger{}).Verify(context.Background()))
	assert.Equal(t, TierExtensions, failure.Tier)
	assert.Equal(t, "0 of 1 expected extensions installed; missing: demo", failure.Reason)
	assert.Equal(t, "init status failed (failed: demo)", failure.Diagnostic)
	assert.Equal(t, "tier 3 (extensions): 0 of 1 expected extensions installed; missing: demo", failure.Error())
}

func TestVerify_MissingExtensionWithoutStatusTable(t *testing.T) {
	c := (&scriptedConn{}).
		on("unnest", []string{"demo"}).
		on("to_regclass", false).
		on("SELECT 1", 1)

	failure := tierOf(t, verifier(c, config.RolePrimary, &recordingLogger{}).Verify(context.Background()))
	assert.Equal(t, TierExtensions, failure.Tier)
	assert.Empty(t, failure.Diagnostic)
}

func TestVerify_PartialStatusIsSoft(t *testing.T) {
	c := (&scriptedConn{}).
		on("unnest", []string{}).
		on("to_regclass", true).
		on("ORDER BY initialized_at DESC", time.Now(), []string{"demo", "x"}, []string{"demo"}, []string{"x"}, "partial", "1 of 2 extensions created")
	c.answers = append(c.answers, healthyConn().answers...)

	logger := &recordingLogger{}
	require.NoError(t, verifier(c, config.RolePrimary, logger).Verify(context.Background()))
	assert.Equal(t, []string{"last recorded init status is partial"}, logger.warnings)
}

func TestVerify_MissingPreload(t *testing.T) {
	c := (&scriptedConn{}).on("shared_preload_libraries", "pg_stat_statements")
	c.answers = append(c.answers, healthyConn().answers...)

	failure := tierOf(t, verifier(c, config.RolePrimary, &recordingLogger{}).Verify(context.Background()))
	assert.Equal(t, TierPreload, failure.Tier)
	assert.Contains(t, failure.Reason, "pg_cron")
}

func TestVerify_CatalogTooSmall(t *testing.T) {
	c := (&scriptedConn{}).on("pg_namespace", 12)
	c.answers = append(c.answers, healthyConn().answers...)

	failure := tierOf(t, verifier(c, config.RolePrimary, &recordingLogger{}).Verify(context.Background()))
	assert.Equal(t, TierCatalog, failure.Tier)
	assert.Equal(t, "pg_catalog has 12 relations, expected at least 50", failure.Reason)
}

func TestVerify_RecoveryByRole(t *testing.T) {
	tests := []struct {
		role     config.Role
		wantFail bool
	}{
		{config.RolePrimary, true},
		{config.RoleSingle, true},
		{config.RoleReplica, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			c := (&scriptedConn{}).on("pg_is_in_recovery", true)
			c.answers = append(c.answers, healthyConn().answers...)

			err := verifier(c, tt.role, &recordingLogger{}).Verify(context.Background())
			if !tt.wantFail {
				assert.NoError(t, err)
				for _, q := range c.queries {
					assert.NotContains(t, q, "pg_is_in_recovery")
				}
				return
			}
			assert.Equal(t, TierRecovery, tierOf(t, err).Tier)
		})
	}
}

func TestVerify_NoExpectationsSkipsExtensionQueries(t *testing.T) {
	c := healthyConn()
	v := NewVerifier(c.connect, config.RoleSingle, Expectations{}, &recordingLogger{})
	require.NoError(t, v.Verify(context.Background()))
	for _, q := range c.queries {
		assert.NotContains(t, q, "unnest")
		assert.NotContains(t, q, "shared_preload_libraries")
	}
}

func TestTierFailure_ExitCode(t *testing.T) {
	err := &TierFailure{Tier: TierCatalog, Reason: "x"}
	assert.Equal(t, pgbundle.ExitHealthcheckFailed, pgbundle.ExitCodeForError(err))
}
