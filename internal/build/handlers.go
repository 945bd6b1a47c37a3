package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// job is everything a handler needs to build one entry.
type job struct {
	entry    *manifest.Entry
	root     string // checkout root
	dir      string // root joined with build.subdir
	destDir  string
	pgMajor  int
	pgConfig string
	jobs     int
}

func (j *job) run(ctx context.Context, r Runner, name string, args ...string) error {
	return r.Run(ctx, Command{Dir: j.dir, Name: name, Args: args})
}

func (j *job) runEnv(ctx context.Context, r Runner, env []string, name string, args ...string) error {
	return r.Run(ctx, Command{Dir: j.dir, Name: name, Args: args, Env: env})
}

func (j *job) parallel() string {
	return fmt.Sprintf("-j%d", j.jobs)
}

func (j *job) destEnv() []string {
	return []string{"DESTDIR=" + j.destDir}
}

// dispatch selects the handler for the entry's build type. Every member of
// manifest.BuildTypes must have a case here.
func (o *Orchestrator) dispatch(ctx context.Context, j *job) error {
	switch t := j.entry.Build.Type; t {
	case manifest.BuildPGXS:
		return o.buildPGXS(ctx, j)
	case manifest.BuildCargoPgrx:
		return o.buildCargoPgrx(ctx, j)
	case manifest.BuildCMake:
		return o.buildCMake(ctx, j)
	case manifest.BuildMeson:
		return o.buildMeson(ctx, j)
	case manifest.BuildAutotools:
		return o.buildAutotools(ctx, j)
	case manifest.BuildTimescaleDB:
		return o.buildTimescaleDB(ctx, j)
	case manifest.BuildMake:
		return o.buildMake(ctx, j)
	case manifest.BuildPerl:
		return o.buildPerl(ctx, j)
	case manifest.BuildScript:
		return fmt.Errorf("%s: %w: %q is reserved and has no handler", j.entry.Name, pgbundle.ErrUnsupportedBuildType, t)
	default:
		return fmt.Errorf("%s: %w: %q", j.entry.Name, pgbundle.ErrUnsupportedBuildType, t)
	}
}

func (o *Orchestrator) buildPGXS(ctx context.Context, j *job) error {
	pgc := "PG_CONFIG=" + j.pgConfig
	if err := j.run(ctx, o.runner, "make", j.parallel(), "USE_PGXS=1", pgc); err != nil {
		return err
	}
	return j.run(ctx, o.runner, "make", "install", "USE_PGXS=1", pgc, "DESTDIR="+j.destDir)
}

func (o *Orchestrator) buildMake(ctx context.Context, j *job) error {
	pgc := "PG_CONFIG=" + j.pgConfig
	if err := j.run(ctx, o.runner, "make", j.parallel(), pgc); err != nil {
		return err
	}
	return j.run(ctx, o.runner, "make", "install", pgc, "DESTDIR="+j.destDir)
}

func (o *Orchestrator) buildCargoPgrx(ctx context.Context, j *job) error {
	b := j.entry.Build
	version := b.ToolVersion
	if version == "" {
		data, err := os.ReadFile(filepath.Join(j.dir, "Cargo.toml"))
		if err != nil {
			return fmt.Errorf("%s: %w: toolVersion unset and Cargo.toml unreadable: %v", j.entry.Name, pgbundle.ErrBuildFailed, err)
		}
		version, err = PgrxVersion(data)
		if err != nil {
			return fmt.Errorf("%s: %w: %v", j.entry.Name, pgbundle.ErrBuildFailed, err)
		}
	}

	tc := &pgrxToolchain{
		root:     o.toolsDir,
		pgMajor:  j.pgMajor,
		pgConfig: j.pgConfig,
		jobs:     j.jobs,
		runner:   o.runner,
		cache:    o.toolchains,
	}
	if err := tc.ensure(ctx, version, j.dir); err != nil {
		return err
	}

	args := []string{"pgrx", "install", "--release", "--pg-config", j.pgConfig}
	args = append(args, FeatureArgs(b.Features, b.NoDefaultFeatures, j.pgMajor)...)
	env := append(tc.env(version), "CARGO_BUILD_JOBS="+fmt.Sprint(j.jobs))
	return j.runEnv(ctx, o.runner, env, "cargo", args...)
}

func (o *Orchestrator) buildCMake(ctx context.Context, j *job) error {
	err := j.run(ctx, o.runner, "cmake", "-S", ".", "-B", "build",
		"-DCMAKE_BUILD_TYPE=Release",
		"-DPG_CONFIG="+j.pgConfig,
		"-DPOSTGRESQL_PG_CONFIG="+j.pgConfig,
	)
	if err != nil {
		return err
	}
	if err := j.run(ctx, o.runner, "cmake", "--build", "build", "--parallel", fmt.Sprint(j.jobs)); err != nil {
		return err
	}
	return j.runEnv(ctx, o.runner, j.destEnv(), "cmake", "--install", "build")
}

func (o *Orchestrator) buildMeson(ctx context.Context, j *job) error {
	env := []string{"PG_CONFIG=" + j.pgConfig}
	if err := j.runEnv(ctx, o.runner, env, "meson", "setup", "build", "--buildtype=release"); err != nil {
		return err
	}
	if err := j.run(ctx, o.runner, "ninja", "-C", "build", j.parallel()); err != nil {
		return err
	}
	return j.runEnv(ctx, o.runner, j.destEnv(), "ninja", "-C", "build", "install")
}

// configureFlags lists entries whose upstream configure script needs more
// than PG_CONFIG in the environment.
var configureFlags = map[string]func(pgConfig string) []string{
	"postgis": func(pgConfig string) []string {
		return []string{"--with-pgconfig=" + pgConfig, "--without-protobuf", "--without-interrupt-tests"}
	},
}

// ConfigureArgs returns the ./configure arguments for an entry.
func ConfigureArgs(name, pgConfig string) []string {
	if flags, ok := configureFlags[name]; ok {
		return flags(pgConfig)
	}
	return nil
}

func (o *Orchestrator) buildAutotools(ctx context.Context, j *job) error {
	if !fileExists(filepath.Join(j.dir, "configure")) {
		if err := j.run(ctx, o.runner, "./autogen.sh"); err != nil {
			return err
		}
	}
	env := []string{"PG_CONFIG=" + j.pgConfig}
	if err := j.runEnv(ctx, o.runner, env, "./configure", ConfigureArgs(j.entry.Name, j.pgConfig)...); err != nil {
		return err
	}
	if err := j.run(ctx, o.runner, "make", j.parallel()); err != nil {
		return err
	}
	return j.run(ctx, o.runner, "make", "install", "DESTDIR="+j.destDir)
}

// buildTimescaleDB runs the upstream bootstrap, which generates either a
// Ninja or a Makefile build tree under build/.
func (o *Orchestrator) buildTimescaleDB(ctx context.Context, j *job) error {
	err := j.run(ctx, o.runner, "./bootstrap",
		"-DCMAKE_BUILD_TYPE=RelWithDebInfo",
		"-DREGRESS_CHECKS=OFF",
		"-DTAP_CHECKS=OFF",
		"-DWARNINGS_AS_ERRORS=OFF",
		"-DGENERATE_DOWNGRADE_SCRIPT=ON",
		"-DPG_CONFIG="+j.pgConfig,
	)
	if err != nil {
		return err
	}

	if fileExists(filepath.Join(j.dir, "build", "build.ninja")) {
		if err := j.run(ctx, o.runner, "ninja", "-C", "build", j.parallel()); err != nil {
			return err
		}
		return j.runEnv(ctx, o.runner, j.destEnv(), "ninja", "-C", "build", "install")
	}
	if err := j.run(ctx, o.runner, "make", "-C", "build", j.parallel()); err != nil {
		return err
	}
	return j.run(ctx, o.runner, "make", "-C", "build", "install", "DESTDIR="+j.destDir)
}

func (o *Orchestrator) buildPerl(ctx context.Context, j *job) error {
	if err := j.run(ctx, o.runner, "perl", "Makefile.PL", "INSTALLDIRS=vendor"); err != nil {
		return err
	}
	if err := j.run(ctx, o.runner, "make", j.parallel()); err != nil {
		return err
	}
	return j.run(ctx, o.runner, "make", "install", "DESTDIR="+j.destDir)
}

// postInstallHooks run from the checkout root after an entry's install.
var postInstallHooks = map[string]func(ctx context.Context, o *Orchestrator, j *job) error{
	"timescaledb_toolkit": func(ctx context.Context, o *Orchestrator, j *job) error {
		return o.runner.Run(ctx, Command{
			Dir:  j.root,
			Name: "cargo",
			Args: []string{"run", "--manifest-path", "tools/post-install/Cargo.toml", "--", j.pgConfig},
			Env:  j.destEnv(),
		})
	},
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
