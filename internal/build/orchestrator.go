package build

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/gitsource"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Fetcher produces a checkout of an entry's pinned source.
type Fetcher interface {
	Fetch(ctx context.Context, entry *manifest.Entry, dest string) (*gitsource.Checkout, error)
}

// Options configures an orchestrator run.
type Options struct {
	Env        config.BuildEnv
	OutputRoot string
	// Progress shows a progress bar on stderr.
	Progress bool
}

// Report summarizes a successful run.
type Report struct {
	Built        []string
	Skipped      []string
	Patches      []PatchResult
	StalePatches int
}

// Orchestrator builds and installs every manifest entry that is not
// satisfied by the server itself or by a vendor package.
type Orchestrator struct {
	fetcher    Fetcher
	runner     Runner
	patcher    *Patcher
	logger     pgbundle.Logger
	opts       Options
	toolchains *ToolchainCache
	toolsDir   string
}

// New creates an Orchestrator.
func New(fetcher Fetcher, runner Runner, logger pgbundle.Logger, opts Options) *Orchestrator {
	if opts.OutputRoot == "" {
		opts.OutputRoot = pgbundle.DefaultOutputRoot
	}
	if opts.Env.Jobs <= 0 {
		opts.Env.Jobs = 1
	}
	return &Orchestrator{
		fetcher: fetcher,
		runner:  runner,
		patcher: NewPatcher(logger),
		logger:  logger,
		opts:    opts,
	}
}

// Run builds every eligible entry of m in dependency order. The first
// failure aborts the run; nothing is retried.
func (o *Orchestrator) Run(ctx context.Context, m *manifest.Manifest) (*Report, error) {
	entries, err := manifest.OrderedEntries(m)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pgbundle.ErrDependencyGraph, err)
	}

	outputRoot, err := filepath.Abs(o.opts.OutputRoot)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(outputRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create output root: %w", err)
	}

	baseWork := o.opts.Env.WorkDir
	if baseWork == "" {
		baseWork = filepath.Join(os.TempDir(), "pgbundle")
	}
	runDir := filepath.Join(baseWork, "run-"+uuid.NewString())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	if o.opts.Env.KeepWork {
		o.logger.Info("Keeping work directory %s", runDir)
	} else {
		defer os.RemoveAll(runDir)
	}

	o.toolchains = NewToolchainCache()
	o.toolsDir = filepath.Join(baseWork, "tools")

	var bar *progressbar.ProgressBar
	if o.opts.Progress {
		bar = progressbar.NewOptions(len(entries),
			progressbar.OptionSetDescription("Building"),
			progressbar.OptionShowCount(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionClearOnFinish(),
		)
	}

	report := &Report{}
	for _, e := range entries {
		if reason := skipReason(e); reason != "" {
			o.logger.Info("Skipping %s (%s)", e.Name, reason)
			report.Skipped = append(report.Skipped, e.Name)
			addProgress(bar)
			continue
		}

		results, err := o.buildEntry(ctx, e, runDir, outputRoot)
		report.Patches = append(report.Patches, results...)
		for _, r := range results {
			if r.Stale() {
				report.StalePatches++
			}
		}
		if err != nil {
			return report, err
		}
		report.Built = append(report.Built, e.Name)
		addProgress(bar)
	}

	o.logger.Info("Built %d entries, skipped %d", len(report.Built), len(report.Skipped))
	if report.StalePatches > 0 {
		o.logger.Warn("%d patch(es) matched no files", report.StalePatches)
	}
	return report, nil
}

// skipReason returns why e is not built, or "" when it must be built.
func skipReason(e *manifest.Entry) string {
	switch {
	case !e.IsEnabled():
		return "disabled"
	case e.IsBuiltin():
		return "builtin"
	case e.IsVendorPackaged():
		return "installed via pgdg"
	}
	return ""
}

func (o *Orchestrator) buildEntry(ctx context.Context, e *manifest.Entry, runDir, outputRoot string) ([]PatchResult, error) {
	if e.Build == nil {
		return nil, fmt.Errorf("%s: %w: entry has no build section", e.Name, pgbundle.ErrManifestSchema)
	}
	o.logger.Info("Building %s (%s)", e.Name, e.Build.Type)

	// Reject unknown types before cloning anything.
	if !e.Build.Type.Known() {
		return nil, fmt.Errorf("%s: %w: %q", e.Name, pgbundle.ErrUnsupportedBuildType, e.Build.Type)
	}

	checkout, err := o.fetcher.Fetch(ctx, e, filepath.Join(runDir, e.Name))
	if err != nil {
		return nil, err
	}

	results, err := o.patcher.Apply(e.Name, checkout.Dir, e.Build.Patches)
	if err != nil {
		return results, fmt.Errorf("%w: %v", pgbundle.ErrBuildFailed, err)
	}

	dir, err := resolveSubdir(checkout.Dir, e.Build.Subdir)
	if err != nil {
		return results, fmt.Errorf("%s: %w", e.Name, err)
	}

	j := &job{
		entry:    e,
		root:     checkout.Dir,
		dir:      dir,
		destDir:  outputRoot,
		pgMajor:  o.opts.Env.PGMajor,
		pgConfig: o.opts.Env.PGConfig,
		jobs:     o.opts.Env.Jobs,
	}
	if err := o.dispatch(ctx, j); err != nil {
		return results, err
	}

	if hook, ok := postInstallHooks[e.Name]; ok {
		o.logger.Verbose("Running post-install hook for %s", e.Name)
		if err := hook(ctx, o, j); err != nil {
			return results, err
		}
	}
	return results, nil
}

// resolveSubdir joins root and subdir, refusing paths that leave root.
func resolveSubdir(root, subdir string) (string, error) {
	if subdir == "" {
		return root, nil
	}
	clean := path.Clean(filepath.ToSlash(subdir))
	if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: subdir %q escapes the checkout", pgbundle.ErrManifestSchema, subdir)
	}
	dir := filepath.Join(root, filepath.FromSlash(clean))
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("%w: subdir %q not found in checkout", pgbundle.ErrBuildFailed, subdir)
	}
	return dir, nil
}

func addProgress(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Add(1)
	}
}
