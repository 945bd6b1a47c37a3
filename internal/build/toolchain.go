package build

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// ToolchainKey identifies one provisioned toolchain for one server major.
type ToolchainKey struct {
	Tool    string
	Version string
	PGMajor int
}

// ToolchainCache memoizes toolchain installation and initialization within
// one orchestrator run. It is not safe for concurrent use; entries are built
// sequentially.
type ToolchainCache struct {
	installed   map[string]bool
	initialized map[ToolchainKey]bool
}

// NewToolchainCache returns an empty cache.
func NewToolchainCache() *ToolchainCache {
	return &ToolchainCache{
		installed:   make(map[string]bool),
		initialized: make(map[ToolchainKey]bool),
	}
}

// Initialized reports whether key has been initialized in this run.
func (c *ToolchainCache) Initialized(key ToolchainKey) bool {
	return c.initialized[key]
}

// pgrxToolchain provisions cargo-pgrx under root/pgrx-<version>.
type pgrxToolchain struct {
	root     string
	pgMajor  int
	pgConfig string
	jobs     int
	runner   Runner
	cache    *ToolchainCache
}

func (t *pgrxToolchain) home(version string) string {
	return filepath.Join(t.root, "pgrx-"+version)
}

// env returns the environment that selects the versioned cargo-pgrx binary
// and its PGRX_HOME.
func (t *pgrxToolchain) env(version string) []string {
	home := t.home(version)
	return []string{
		"PATH=" + filepath.Join(home, "bin") + string(os.PathListSeparator) + os.Getenv("PATH"),
		"PGRX_HOME=" + filepath.Join(home, "home"),
	}
}

// ensure installs and initializes cargo-pgrx at version for the target
// major. Both steps are skipped when already done.
func (t *pgrxToolchain) ensure(ctx context.Context, version, dir string) error {
	home := t.home(version)
	if !t.cache.installed[home] {
		bin := filepath.Join(home, "bin", "cargo-pgrx")
		if _, err := os.Stat(bin); err != nil {
			err := t.runner.Run(ctx, Command{
				Dir:  dir,
				Name: "cargo",
				Args: []string{"install", "--locked", "cargo-pgrx", "--version", version, "--root", home, "-j", fmt.Sprint(t.jobs)},
			})
			if err != nil {
				return err
			}
		}
		t.cache.installed[home] = true
	}

	key := ToolchainKey{Tool: "cargo-pgrx", Version: version, PGMajor: t.pgMajor}
	if t.cache.initialized[key] {
		return nil
	}
	err := t.runner.Run(ctx, Command{
		Dir:  dir,
		Name: "cargo",
		Args: []string{"pgrx", "init", fmt.Sprintf("--pg%d=%s", t.pgMajor, t.pgConfig)},
		Env:  t.env(version),
	})
	if err != nil {
		return err
	}
	t.cache.initialized[key] = true
	return nil
}

// PgrxVersion reads the pgrx dependency version from a Cargo.toml.
// Requirement operators such as "=" or "^" are stripped.
func PgrxVersion(cargoToml []byte) (string, error) {
	var doc struct {
		Dependencies map[string]any `toml:"dependencies"`
	}
	if err := toml.Unmarshal(cargoToml, &doc); err != nil {
		return "", fmt.Errorf("parse Cargo.toml: %w", err)
	}
	var raw string
	switch v := doc.Dependencies["pgrx"].(type) {
	case string:
		raw = v
	case map[string]any:
		raw, _ = v["version"].(string)
	}
	raw = strings.TrimLeft(strings.TrimSpace(raw), "=^~ ")
	if raw == "" {
		return "", errors.New("no pgrx dependency version in Cargo.toml")
	}
	return raw, nil
}

// FeatureArgs translates manifest feature settings into cargo pgrx flags.
// Without default features the pgN feature has to be named explicitly.
func FeatureArgs(features []string, noDefault bool, pgMajor int) []string {
	var args []string
	list := append([]string(nil), features...)
	if noDefault {
		args = append(args, "--no-default-features")
		list = append([]string{fmt.Sprintf("pg%d", pgMajor)}, list...)
	}
	if len(list) > 0 {
		args = append(args, "--features", strings.Join(list, " "))
	}
	return args
}
