package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/build"
	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/gitsource"
	"github.com/vvka-141/pgbundle/internal/tui"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

var buildFlags struct {
	keepWork bool
	jobs     int
}

var buildCmd = &cobra.Command{
	Use:   "build <manifest> [output-root]",
	Short: "Compile and install every source-built manifest entry",
	Long: `Build fetches each enabled source entry at its pinned commit or tag,
applies its patches, and builds it with its declared build system, in
dependency order. Installed files are staged under output-root
(default ./build-output).

Builtin and vendor-packaged entries are skipped. The first failure aborts
the run.

Environment:
  PG_MAJOR             target PostgreSQL major version (default 17)
  PG_CONFIG            pg_config of the target server
                       (default /usr/lib/postgresql/$PG_MAJOR/bin/pg_config)
  PGBUNDLE_JOBS        parallel compile jobs (default: CPU count)
  PGBUNDLE_WORK_DIR    directory for checkouts and toolchains
  PGBUNDLE_KEEP_WORK   keep checkouts after the run
  GITHUB_TOKEN         token for private https repositories

A .env file in the working directory is loaded first.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildFlags.keepWork, "keep-work", false, "Keep checkouts after the run (overrides PGBUNDLE_KEEP_WORK)")
	buildCmd.Flags().IntVarP(&buildFlags.jobs, "jobs", "j", 0, "Parallel compile jobs (overrides PGBUNDLE_JOBS)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	loadEnv()
	logger := newLogger()

	profile, err := loadProfile()
	if err != nil {
		return err
	}
	m, err := loadManifest(args[0], profile)
	if err != nil {
		return err
	}

	env, err := config.LoadBuildEnv(pgbundle.DefaultPGMajor)
	if err != nil {
		return fmt.Errorf("%w: %w", pgbundle.ErrInvalidConfig, err)
	}
	if buildFlags.keepWork {
		env.KeepWork = true
	}
	if buildFlags.jobs > 0 {
		env.Jobs = buildFlags.jobs
	}

	outputRoot := pgbundle.DefaultOutputRoot
	if len(args) > 1 {
		outputRoot = args[1]
	}

	fetcher := gitsource.NewFetcher(gitsource.Options{
		AllowedHosts: profile.AllowedHosts(),
		Logger:       logger,
	})
	orchestrator := build.New(fetcher, build.NewExecRunner(logger), logger, build.Options{
		Env:        *env,
		OutputRoot: outputRoot,
		Progress:   !globals.verbose && tui.ColorEnabled(os.Stderr),
	})

	report, err := orchestrator.Run(commandContext(cmd), m)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	theme := themeFor(out)
	fmt.Fprintf(out, "%s built %d, skipped %d, output in %s\n",
		theme.Success(tui.SymbolCheck), len(report.Built), len(report.Skipped), outputRoot)
	if report.StalePatches > 0 {
		fmt.Fprintf(out, "%s %d patch(es) matched nothing\n", theme.Warning("!"), report.StalePatches)
	}
	return nil
}
