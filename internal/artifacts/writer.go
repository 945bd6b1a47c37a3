// Package artifacts renders every generated runtime file from one validated
// manifest and writes them to an output directory.
package artifacts

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vvka-141/pgbundle/internal/bootstrap"
	"github.com/vvka-141/pgbundle/internal/checksum"
	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/healthcheck"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/internal/pgconf"
	"github.com/vvka-141/pgbundle/internal/pkglist"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// File names written to the output directory.
const (
	BootstrapFile   = "01-pgbundle-extensions.sql"
	HealthcheckFile = "healthcheck.sh"
	PackagesFile    = "pgdg-packages.txt"
	SumsFile        = "SHA256SUMS"
)

// ConfigFile returns the server configuration file name for role.
func ConfigFile(role config.Role) string {
	return fmt.Sprintf("postgresql.%s.conf", role)
}

// HBAFile returns the access rule file name for role.
func HBAFile(role config.Role) string {
	return fmt.Sprintf("pg_hba.%s.conf", role)
}

// Options configures a Write call.
type Options struct {
	Dir      string
	Manifest *manifest.Manifest
	Profile  *config.Profile
	Roles    []config.Role
	PGMajor  int
	Logger   pgbundle.Logger
}

// WrittenFile describes one artifact after Write.
type WrittenFile struct {
	Name string
	Path string
	Sum  checksum.FileSum
	// Changed is false when an existing file had the same content digest.
	Changed bool
}

// Result lists the written artifacts in name order.
type Result struct {
	Files []WrittenFile
	// Removed names artifacts of earlier runs that this run did not produce.
	Removed []string
}

// Render runs every generator concurrently and returns file name -> content.
// SHA256SUMS is not included.
func Render(ctx context.Context, opts Options) (map[string][]byte, error) {
	if len(opts.Roles) == 0 {
		return nil, fmt.Errorf("%w: no roles requested", pgbundle.ErrInvalidConfig)
	}
	profile := opts.Profile
	if profile == nil {
		profile = config.Default()
	}
	pgMajor := opts.PGMajor
	if pgMajor <= 0 {
		pgMajor = pgbundle.DefaultPGMajor
	}

	var mu sync.Mutex
	files := make(map[string][]byte)
	put := func(name, content string) {
		mu.Lock()
		defer mu.Unlock()
		files[name] = []byte(content)
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, role := range opts.Roles {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out, err := pgconf.Generate(profile, role, opts.Manifest)
			if err != nil {
				return fmt.Errorf("role %s: %w", role, err)
			}
			put(ConfigFile(role), out.Config)
			put(HBAFile(role), out.HBA)
			return nil
		})
	}
	g.Go(func() error {
		put(BootstrapFile, bootstrap.Generate(opts.Manifest))
		return nil
	})
	g.Go(func() error {
		put(HealthcheckFile, healthcheck.GenerateScript(healthcheck.FromManifest(opts.Manifest, healthcheckRole(opts.Roles))))
		return nil
	})
	g.Go(func() error {
		put(PackagesFile, pkglist.Generate(opts.Manifest, pgMajor))
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return files, nil
}

// healthcheckRole is the role baked into the script when PGBUNDLE_ROLE is unset.
func healthcheckRole(roles []config.Role) config.Role {
	if len(roles) == 1 {
		return roles[0]
	}
	return config.RolePrimary
}

// Write renders every artifact, writes it under opts.Dir, and finishes with
// SHA256SUMS covering the other files.
func Write(ctx context.Context, opts Options) (*Result, error) {
	files, err := Render(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	calc := checksum.New()
	sums := calc.Compute(files)

	result := &Result{}
	for _, sum := range sums {
		path := filepath.Join(opts.Dir, sum.Name)
		changed := true
		if previous, err := os.ReadFile(path); err == nil {
			changed = calc.Content(checksum.StyleFor(sum.Name), previous) != sum.Content
		}

		mode := os.FileMode(0o644)
		if sum.Name == HealthcheckFile {
			mode = 0o755
		}
		if err := writeFile(path, files[sum.Name], mode); err != nil {
			return nil, err
		}
		if opts.Logger != nil {
			state := "unchanged"
			if changed {
				state = "updated"
			}
			opts.Logger.Verbose("%s: %s", sum.Name, state)
		}
		result.Files = append(result.Files, WrittenFile{Name: sum.Name, Path: path, Sum: sum, Changed: changed})
	}

	if err := writeFile(filepath.Join(opts.Dir, SumsFile), []byte(sums.Render()), 0o644); err != nil {
		return nil, err
	}

	removed, err := removeStale(opts.Dir, files)
	if err != nil {
		return nil, err
	}
	for _, name := range removed {
		if opts.Logger != nil {
			opts.Logger.Verbose("%s: removed", name)
		}
	}
	result.Removed = removed
	return result, nil
}

// ownedFiles are every name Write can produce. Other files in the output
// directory are left alone.
func ownedFiles() []string {
	names := []string{BootstrapFile, HealthcheckFile, PackagesFile}
	for _, role := range config.AllRoles {
		names = append(names, ConfigFile(role), HBAFile(role))
	}
	return names
}

// removeStale deletes owned files that the current run did not render, so a
// narrower --role run does not leave the previous roles behind.
func removeStale(dir string, written map[string][]byte) ([]string, error) {
	var removed []string
	for _, name := range ownedFiles() {
		if _, ok := written[name]; ok {
			continue
		}
		err := os.Remove(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("remove stale %s: %w", name, err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

// writeFile skips the write when the bytes are identical so mtimes stay put.
func writeFile(path string, content []byte, mode os.FileMode) error {
	if existing, err := os.ReadFile(path); err == nil && bytes.Equal(existing, content) {
		return os.Chmod(path, mode)
	}
	if err := os.WriteFile(path, content, mode); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	// WriteFile keeps the mode of an existing file.
	return os.Chmod(path, mode)
}
