package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullProfile = `settings:
  common:
    listenAddresses: "*"
    maxConnections: 200
    sharedPreloadLibraries: [pg_stat_statements, auto_explain]
  roles:
    replica:
      hotStandby: true
      maxConnections: 300
pgHbaRules:
  - rule: local all all peer
  - rule: host replication replicator 10.0.0.0/8 scram-sha-256
    roles: [primary]
    comment: streaming replication
sources:
  allowedHosts: [github.com, git.postgresql.org]
validation:
  expectedTotal: 40
  expectedEnabled: 38
`

func TestLoad_AllFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pgbundle.yaml")
	require.NoError(t, os.WriteFile(path, []byte(fullProfile), 0644))

	p, err := Load(path)
	require.NoError(t, err)

	require.Len(t, p.Settings.Common, 3)
	assert.Equal(t, "listenAddresses", p.Settings.Common[0].Key)
	assert.Equal(t, "*", p.Settings.Common[0].Value)
	assert.Equal(t, 200, p.Settings.Common[1].Value)
	assert.Equal(t, []any{"pg_stat_statements", "auto_explain"}, p.Settings.Common[2].Value)

	require.Len(t, p.HBARules, 2)
	assert.Equal(t, []Role{RolePrimary}, p.HBARules[1].Roles)
	assert.Equal(t, "streaming replication", p.HBARules[1].Comment)

	assert.Equal(t, []string{"github.com", "git.postgresql.org"}, p.AllowedHosts())
	assert.Equal(t, 40, p.Validation.ExpectedTotal)
	assert.Equal(t, 38, p.Validation.ExpectedEnabled)
}

func TestLoad_FileNotFound(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, ErrConfigNotFound), "expected ErrConfigNotFound, got: %v", err)
	assert.Nil(t, p)
}

func TestParse_InvalidYAML(t *testing.T) {
	p, err := Parse([]byte("{{invalid"))
	assert.Error(t, err)
	assert.Nil(t, p)
}

func TestParse_UnknownRole(t *testing.T) {
	_, err := Parse([]byte(`settings:
  common: {}
  roles:
    standby:
      hotStandby: true
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown role "standby"`)
}

func TestParse_SettingsMustBeMapping(t *testing.T) {
	_, err := Parse([]byte(`settings:
  common: [a, b]
`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "settings must be a mapping")
}

func TestEffectiveSettings_OverrideWinsAndKeepsOrder(t *testing.T) {
	p, err := Parse([]byte(fullProfile))
	require.NoError(t, err)

	merged := p.EffectiveSettings(RoleReplica)
	keys := make([]string, 0, len(merged))
	for _, s := range merged {
		keys = append(keys, s.Key)
	}
	assert.Equal(t, []string{"listenAddresses", "maxConnections", "sharedPreloadLibraries", "hotStandby"}, keys)

	v, ok := merged.Get("maxConnections")
	require.True(t, ok)
	assert.Equal(t, 300, v)

	// the common list must not be mutated by the merge
	v, _ = p.Settings.Common.Get("maxConnections")
	assert.Equal(t, 200, v)
}

func TestEffectiveSettings_RoleWithoutOverrides(t *testing.T) {
	p, err := Parse([]byte(fullProfile))
	require.NoError(t, err)

	assert.Equal(t, p.Settings.Common, p.EffectiveSettings(RoleSingle))
}

func TestHBARule_AppliesTo(t *testing.T) {
	everywhere := HBARule{Rule: "local all all peer"}
	primaryOnly := HBARule{Rule: "host replication all 0.0.0.0/0 md5", Roles: []Role{RolePrimary}}

	for _, role := range AllRoles {
		assert.True(t, everywhere.AppliesTo(role))
	}
	assert.True(t, primaryOnly.AppliesTo(RolePrimary))
	assert.False(t, primaryOnly.AppliesTo(RoleReplica))
	assert.False(t, primaryOnly.AppliesTo(RoleSingle))
}

func TestDefault_UsesDefaultAllowList(t *testing.T) {
	assert.Equal(t, DefaultAllowedHosts, Default().AllowedHosts())
}

func TestParseRole(t *testing.T) {
	r, err := ParseRole("replica")
	require.NoError(t, err)
	assert.Equal(t, RoleReplica, r)

	_, err = ParseRole("leader")
	assert.Error(t, err)
}

func TestLoadBuildEnv_Defaults(t *testing.T) {
	t.Setenv("PG_MAJOR", "")
	t.Setenv("PG_CONFIG", "")
	t.Setenv("PGBUNDLE_JOBS", "")

	env, err := LoadBuildEnv(17)
	require.NoError(t, err)
	assert.Equal(t, 17, env.PGMajor)
	assert.Equal(t, "/usr/lib/postgresql/17/bin/pg_config", env.PGConfig)
	assert.GreaterOrEqual(t, env.Jobs, 1)
}

func TestLoadBuildEnv_FromEnvironment(t *testing.T) {
	t.Setenv("PG_MAJOR", "16")
	t.Setenv("PG_CONFIG", "/opt/pg/bin/pg_config")
	t.Setenv("PGBUNDLE_JOBS", "3")
	t.Setenv("PGBUNDLE_WORK_DIR", "/tmp/pgbundle-work")

	env, err := LoadBuildEnv(17)
	require.NoError(t, err)
	assert.Equal(t, 16, env.PGMajor)
	assert.Equal(t, "/opt/pg/bin/pg_config", env.PGConfig)
	assert.Equal(t, 3, env.Jobs)
	assert.Equal(t, "/tmp/pgbundle-work", env.WorkDir)
}

func TestLoadBuildEnv_InvalidMajor(t *testing.T) {
	t.Setenv("PG_MAJOR", "seventeen")

	_, err := LoadBuildEnv(17)
	assert.Error(t, err)
}
