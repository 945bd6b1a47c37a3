package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/logging"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/internal/tui"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

type globalFlags struct {
	verbose bool
	profile string
}

var globals globalFlags

func newLogger() pgbundle.Logger {
	return logging.NewConsoleLogger(globals.verbose)
}

func themeFor(w io.Writer) tui.Theme {
	return tui.NewTheme(tui.ColorEnabled(w))
}

// loadEnv loads .env from the working directory. Values already in the
// environment win.
func loadEnv() {
	_ = godotenv.Load()
}

// loadProfile reads the --profile file. Without the flag, ./pgbundle.yaml is
// used when present and the built-in defaults otherwise.
func loadProfile() (*config.Profile, error) {
	path := globals.profile
	explicit := path != ""
	if !explicit {
		path = pgbundle.DefaultProfileFile
	}

	profile, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !explicit {
			return config.Default(), nil
		}
		return nil, fmt.Errorf("%w: profile %s: %w", pgbundle.ErrInvalidConfig, path, err)
	}
	return profile, nil
}

// loadManifest reads and validates a manifest. Any violation is fatal.
func loadManifest(path string, profile *config.Profile) (*manifest.Manifest, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", pgbundle.ErrManifestSchema, err)
	}
	result := manifest.Validate(m, manifest.ValidateOptions{
		ExpectedTotal:   profile.Validation.ExpectedTotal,
		ExpectedEnabled: profile.Validation.ExpectedEnabled,
	})
	if err := result.Err(); err != nil {
		return nil, err
	}
	return m, nil
}

// parseRoles accepts a role name or "all".
func parseRoles(s string) ([]config.Role, error) {
	if strings.EqualFold(s, "all") {
		return config.AllRoles, nil
	}
	role, err := config.ParseRole(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("invalid argument %q for --role: %w", s, err)
	}
	return []config.Role{role}, nil
}

// connectionFromEnv returns the connection string from the environment.
func connectionFromEnv() string {
	if s := os.Getenv("PGBUNDLE_CONNECTION"); s != "" {
		return s
	}
	return os.Getenv("DATABASE_URL")
}

func addConnectionFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVarP(target, "connection", "c", "",
		"PostgreSQL connection string (default $PGBUNDLE_CONNECTION, $DATABASE_URL, then PG* variables)")
}
