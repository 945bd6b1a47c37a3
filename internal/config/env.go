package config

import (
	"fmt"
	"runtime"

	"github.com/spf13/viper"
)

// BuildEnv is the environment-driven configuration of the build orchestrator.
type BuildEnv struct {
	PGMajor  int
	PGConfig string
	Jobs     int
	WorkDir  string
	KeepWork bool
}

// LoadBuildEnv resolves the build environment.
//
// PG_MAJOR and PG_CONFIG are read unprefixed because image build stages
// already export them; the remaining knobs use the PGBUNDLE_ prefix.
func LoadBuildEnv(defaultPGMajor int) (*BuildEnv, error) {
	v := viper.New()
	v.SetEnvPrefix("PGBUNDLE")
	v.AutomaticEnv()

	v.SetDefault("pg_major", defaultPGMajor)
	v.SetDefault("jobs", runtime.NumCPU())
	v.SetDefault("keep_work", false)

	if err := v.BindEnv("pg_major", "PG_MAJOR"); err != nil {
		return nil, err
	}
	if err := v.BindEnv("pg_config", "PG_CONFIG"); err != nil {
		return nil, err
	}

	env := &BuildEnv{
		PGMajor:  v.GetInt("pg_major"),
		PGConfig: v.GetString("pg_config"),
		Jobs:     v.GetInt("jobs"),
		WorkDir:  v.GetString("work_dir"),
		KeepWork: v.GetBool("keep_work"),
	}
	if env.PGMajor <= 0 {
		return nil, fmt.Errorf("PG_MAJOR must be a positive integer, got %q", v.GetString("pg_major"))
	}
	if env.PGConfig == "" {
		env.PGConfig = fmt.Sprintf("/usr/lib/postgresql/%d/bin/pg_config", env.PGMajor)
	}
	if env.Jobs <= 0 {
		env.Jobs = 1
	}
	return env, nil
}
