package build

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// PatchResult records what one patch changed.
type PatchResult struct {
	Entry      string
	Expression string
	Changed    []string
}

// Stale reports whether the patch no longer matches anything upstream.
func (r PatchResult) Stale() bool {
	return len(r.Changed) == 0
}

// Patcher applies manifest patches to a checkout.
type Patcher struct {
	logger pgbundle.Logger
}

// NewPatcher creates a Patcher.
func NewPatcher(logger pgbundle.Logger) *Patcher {
	return &Patcher{logger: logger}
}

// Apply runs every patch of entry against the tree rooted at dir.
// A patch that changes no file is logged as a warning and reported as
// stale; it is not an error.
func (p *Patcher) Apply(entry string, dir string, patches []manifest.Patch) ([]PatchResult, error) {
	var results []PatchResult
	for _, patch := range patches {
		sub, err := manifest.ParseExpression(patch.Expression)
		if err != nil {
			return results, fmt.Errorf("%s: patch %q: %w", entry, patch.Expression, err)
		}
		matchers, err := compileTargets(patch.Files)
		if err != nil {
			return results, fmt.Errorf("%s: patch %q: %w", entry, patch.Expression, err)
		}

		result := PatchResult{Entry: entry, Expression: patch.Expression}
		err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if d.Name() == ".git" {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			rel, err := filepath.Rel(dir, path)
			if err != nil {
				return err
			}
			if !matchAny(matchers, filepath.ToSlash(rel)) {
				return nil
			}
			changed, err := patchFile(path, sub)
			if err != nil {
				return err
			}
			if changed {
				result.Changed = append(result.Changed, filepath.ToSlash(rel))
			}
			return nil
		})
		if err != nil {
			return results, fmt.Errorf("%s: patch %q: %w", entry, patch.Expression, err)
		}

		if result.Stale() {
			p.logger.Warn("%s: patch %q matched no files in %s", entry, patch.Expression, strings.Join(patch.Files, ", "))
		} else {
			p.logger.Verbose("%s: patch %q changed %s", entry, patch.Expression, strings.Join(result.Changed, ", "))
		}
		results = append(results, result)
	}
	return results, nil
}

// compileTargets compiles target globs. A leading "**/" also matches at the
// checkout root.
func compileTargets(patterns []string) ([]glob.Glob, error) {
	var out []glob.Glob
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid target %q: %w", p, err)
		}
		out = append(out, g)
		if rest, ok := strings.CutPrefix(p, "**/"); ok {
			g, err := glob.Compile(rest, '/')
			if err != nil {
				return nil, fmt.Errorf("invalid target %q: %w", p, err)
			}
			out = append(out, g)
		}
	}
	return out, nil
}

func matchAny(matchers []glob.Glob, path string) bool {
	for _, g := range matchers {
		if g.Match(path) {
			return true
		}
	}
	return false
}

func patchFile(path string, sub *manifest.Substitution) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}
	out, changed := sub.Apply(content)
	if !changed {
		return false, nil
	}
	return true, os.WriteFile(path, out, info.Mode().Perm())
}
