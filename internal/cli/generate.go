package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/artifacts"
	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

var generateFlags struct {
	output  string
	role    string
	pgMajor int
}

var generateCmd = &cobra.Command{
	Use:   "generate <manifest>",
	Short: "Write the runtime artifacts for a manifest",
	Long: `Generate writes, from the manifest and the deployment profile:

  postgresql.<role>.conf        server configuration per role
  pg_hba.<role>.conf            access rules per role
  01-pgbundle-extensions.sql    first-boot extension script
  healthcheck.sh                container healthcheck
  pgdg-packages.txt             vendor packages for the image build
  SHA256SUMS                    digests of the files above

Every run regenerates every artifact.`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateFlags.output, "output", "o", "./artifacts", "Output directory")
	generateCmd.Flags().StringVar(&generateFlags.role, "role", "all", "Role to generate: primary, replica, single, or all")
	generateCmd.Flags().IntVar(&generateFlags.pgMajor, "pg-major", 0, "PostgreSQL major version for package names (default $PG_MAJOR or 17)")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	loadEnv()

	roles, err := parseRoles(generateFlags.role)
	if err != nil {
		return err
	}
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	m, err := loadManifest(args[0], profile)
	if err != nil {
		return err
	}

	pgMajor := generateFlags.pgMajor
	if pgMajor <= 0 {
		env, err := config.LoadBuildEnv(pgbundle.DefaultPGMajor)
		if err != nil {
			return fmt.Errorf("%w: %w", pgbundle.ErrInvalidConfig, err)
		}
		pgMajor = env.PGMajor
	}

	res, err := artifacts.Write(commandContext(cmd), artifacts.Options{
		Dir:      generateFlags.output,
		Manifest: m,
		Profile:  profile,
		Roles:    roles,
		PGMajor:  pgMajor,
		Logger:   newLogger(),
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	theme := themeFor(out)
	rows := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		state := theme.Muted("unchanged")
		if f.Changed {
			state = theme.Success("updated")
		}
		rows = append(rows, []string{f.Name, f.Sum.Raw[:12], state})
	}
	fmt.Fprint(out, theme.Table([]string{"FILE", "SHA256", "STATE"}, rows))
	fmt.Fprintf(out, "%d artifact(s) in %s\n", len(res.Files), generateFlags.output)
	return nil
}
