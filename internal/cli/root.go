package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pgbundle",
	Short: "Build and configure a PostgreSQL distribution from one manifest",
	Long: `pgbundle compiles the extensions a PostgreSQL image bundles and generates
every runtime artifact from the same manifest: server configuration, access
rules, the first-boot extension script, the container healthcheck, and the
vendor package list. Nothing is edited by hand, so nothing drifts.

Exit Codes:
  0  - Success
  1  - General error
  2  - CLI usage error (invalid arguments or flags)
  3  - Panic or unexpected system error
  10 - Invalid manifest, profile, or server setting
  11 - Database connection failed
  12 - Source repository host is not allow-listed
  13 - Unsupported build or source type
  14 - Clone, checkout, or build command failed
  15 - Healthcheck failed`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. SIGINT cancels the command context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(os.Stderr, err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globals.verbose, "verbose", "v", false, "Enable verbose output for all commands")
	rootCmd.PersistentFlags().StringVar(&globals.profile, "profile", "", "Deployment profile (default ./pgbundle.yaml if present)")
}

// commandContext returns the command's context, or Background when the
// command runs outside Execute (tests).
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
