package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/bootstrap"
	"github.com/vvka-141/pgbundle/internal/db"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

var applyFlags struct {
	connection string
	dryRun     bool
}

var applyCmd = &cobra.Command{
	Use:   "apply <manifest>",
	Short: "Run the first-boot extension script against a server",
	Long: `Apply executes the generated extension script against a running server
and prints the status row it recorded. Each extension is created in its own
exception block, so one failure never prevents the others.

The script is idempotent; running it again appends a new status row.`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	addConnectionFlag(applyCmd, &applyFlags.connection)
	applyCmd.Flags().BoolVar(&applyFlags.dryRun, "dry-run", false, "Print the script instead of running it")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
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

	script := bootstrap.Generate(m)
	out := cmd.OutOrStdout()
	if applyFlags.dryRun {
		fmt.Fprint(out, script)
		return nil
	}

	connString := applyFlags.connection
	if connString == "" {
		connString = connectionFromEnv()
	}

	ctx, cancel := context.WithTimeout(commandContext(cmd), pgbundle.DefaultConnectTimeout)
	defer cancel()

	pool, err := db.NewConnector(connString, logger).Connect(ctx)
	if err != nil {
		return err
	}
	conn := db.NewPoolAdapter(pool)
	defer conn.Close()

	if _, err := conn.Exec(ctx, script); err != nil {
		return fmt.Errorf("run extension script: %w", err)
	}

	row, err := bootstrap.LatestStatus(ctx, conn)
	if err != nil {
		return err
	}

	theme := themeFor(out)
	status := string(row.Status)
	switch row.Status {
	case bootstrap.StatusCompleted, bootstrap.StatusNoExtensions:
		status = theme.Success(status)
	case bootstrap.StatusPartial:
		status = theme.Warning(status)
	default:
		status = theme.Error(status)
	}
	fmt.Fprint(out, theme.Table([]string{"FIELD", "VALUE"}, [][]string{
		{"initialized_at", row.InitializedAt.Format("2006-01-02 15:04:05 MST")},
		{"status", status},
		{"created", strings.Join(row.Created, ",")},
		{"failed", strings.Join(row.Failed, ",")},
		{"message", row.Message},
	}))

	if row.Status == bootstrap.StatusFailed {
		return fmt.Errorf("every extension failed to initialize: %s", strings.Join(row.Failed, ","))
	}
	return nil
}
