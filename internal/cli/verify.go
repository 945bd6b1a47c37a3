package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/db"
	"github.com/vvka-141/pgbundle/internal/healthcheck"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

var verifyFlags struct {
	connection string
	role       string
}

var verifyCmd = &cobra.Command{
	Use:   "verify <manifest>",
	Short: "Run the healthcheck tiers against a live server",
	Long: `Verify runs the same tiers as the generated healthcheck.sh, with the
same expectations, against a running server:

  1. connectivity
  2. query execution
  3. every expected extension exists (with init status diagnostics)
  4. recorded init status (warning only)
  5. preload libraries are loaded
  6. pg_catalog sanity
  7. non-replica roles are not in recovery

Prints OK, or FAIL: <reason> and exits 15.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	addConnectionFlag(verifyCmd, &verifyFlags.connection)
	verifyCmd.Flags().StringVar(&verifyFlags.role, "role", string(config.RolePrimary), "Role of the server: primary, replica, or single")
	rootCmd.AddCommand(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	loadEnv()
	logger := newLogger()

	role, err := config.ParseRole(verifyFlags.role)
	if err != nil {
		return fmt.Errorf("invalid argument %q for --role: %w", verifyFlags.role, err)
	}
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	m, err := loadManifest(args[0], profile)
	if err != nil {
		return err
	}

	connString := verifyFlags.connection
	if connString == "" {
		connString = connectionFromEnv()
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), pgbundle.DefaultConnectTimeout)
	defer cancel()

	var adapter *db.PoolAdapter
	defer func() {
		if adapter != nil {
			adapter.Close()
		}
	}()
	connect := func(ctx context.Context) (pgbundle.DBConnection, error) {
		pool, err := db.NewConnector(connString, logger).Connect(ctx)
		if err != nil {
			return nil, err
		}
		adapter = db.NewPoolAdapter(pool)
		return adapter, nil
	}

	verifier := healthcheck.NewVerifier(connect, role, healthcheck.FromManifest(m, role), logger)
	out := cmd.OutOrStdout()
	theme := themeFor(out)

	err = verifier.Verify(ctx)
	var failure *healthcheck.TierFailure
	if errors.As(err, &failure) {
		fmt.Fprintln(out, theme.Error("FAIL: "+failure.Reason))
		if failure.Diagnostic != "" {
			fmt.Fprintln(out, "Diagnostic: "+failure.Diagnostic)
		}
		return err
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, theme.Success("OK"))
	return nil
}
