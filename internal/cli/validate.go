package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/internal/tui"
)

var validateCmd = &cobra.Command{
	Use:   "validate <manifest>",
	Short: "Check a manifest against every schema and dependency rule",
	Long: `Validate loads the manifest and reports every violation at once:
unknown kinds and build types, unpinned or mis-pinned sources, dangling or
cyclic dependencies, inconsistent runtime flags, and vendor version drift.

Exits 10 when any violation is found.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}

	m, err := loadManifest(args[0], profile)
	out := cmd.OutOrStdout()
	theme := themeFor(out)

	var verr *manifest.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintln(out, theme.Title("Manifest "+args[0]))
		for _, v := range verr.Violations {
			fmt.Fprintf(out, "  %s %s\n", theme.Error(tui.SymbolCross), v)
		}
		return &reportedError{
			summary: fmt.Sprintf("%s has %d violation(s)", args[0], len(verr.Violations)),
			err:     err,
		}
	}
	if err != nil {
		return err
	}

	printSummary(out, theme, args[0], m)
	return nil
}

func printSummary(w io.Writer, theme tui.Theme, path string, m *manifest.Manifest) {
	var enabled, source, builtin int
	for i := range m.Entries {
		e := &m.Entries[i]
		if !e.IsEnabled() {
			continue
		}
		enabled++
		switch {
		case e.IsBuiltin():
			builtin++
		case e.NeedsBuild():
			source++
		}
	}

	fmt.Fprintln(w, theme.Title("Manifest "+path))
	fmt.Fprintf(w, "  %s valid\n", theme.Success(tui.SymbolCheck))
	fmt.Fprintf(w, "  %s %d entries, %d enabled\n", tui.SymbolBullet, len(m.Entries), enabled)
	fmt.Fprintf(w, "  %s %d built from source, %d vendor packages, %d builtin\n",
		tui.SymbolBullet, source, len(manifest.VendorPackaged(m)), builtin)
	fmt.Fprintf(w, "  %s %d extensions created at first boot\n", tui.SymbolBullet, len(manifest.DefaultExtensions(m)))
	fmt.Fprintf(w, "  %s %d preload libraries\n", tui.SymbolBullet, len(manifest.PreloadLibraries(m)))
}
