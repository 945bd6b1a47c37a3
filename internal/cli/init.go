package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/scaffold"
	"github.com/vvka-141/pgbundle/internal/tui"
)

var initFlags struct {
	template string
	list     bool
}

var initCmd = &cobra.Command{
	Use:   "init [target_path]",
	Short: "Create a starter profile and manifest",
	Long: `Init writes pgbundle.yaml, manifest.yaml, and .env.example into the target
directory (default: current directory). Existing files are never overwritten.

Templates:
  minimal - builtin extensions only, nothing to compile
  vector  - pgvector built from source and pg_cron from PGDG

Examples:
  pgbundle init
  pgbundle init ./images/analytics --template vector`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVarP(&initFlags.template, "template", "t", scaffold.DefaultTemplate, "Template to use")
	initCmd.Flags().BoolVar(&initFlags.list, "list", false, "List available templates")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if initFlags.list {
		names, err := scaffold.ListTemplates()
		if err != nil {
			return fmt.Errorf("failed to list templates: %w", err)
		}
		for _, name := range names {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	targetPath := "."
	if len(args) == 1 {
		targetPath = args[0]
	}
	projectName := filepath.Base(targetPath)
	if projectName == "." || projectName == ".." || projectName == string(filepath.Separator) {
		projectName = "pgbundle"
		if cwd, err := os.Getwd(); err == nil {
			projectName = filepath.Base(cwd)
		}
	}

	files, err := scaffold.NewScaffolder(newLogger()).CreateProject(projectName, initFlags.template, targetPath)
	if err != nil {
		return err
	}

	theme := themeFor(out)
	fmt.Fprintln(out, theme.Title("Initialized "+projectName))
	for _, f := range files {
		fmt.Fprintf(out, "  %s %s\n", theme.Success(tui.SymbolCheck), filepath.Join(targetPath, f))
	}
	fmt.Fprintf(out, "\nNext: pgbundle validate %s\n", filepath.Join(targetPath, "manifest.yaml"))
	return nil
}
