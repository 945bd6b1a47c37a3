package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vvka-141/pgbundle/internal/manifest"
)

var listFlags struct {
	enabledOnly bool
}

var listCmd = &cobra.Command{
	Use:   "list <manifest>",
	Short: "List manifest entries",
	Args:  cobra.ExactArgs(1),
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listFlags.enabledOnly, "enabled", false, "Only list enabled entries")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	profile, err := loadProfile()
	if err != nil {
		return err
	}
	m, err := loadManifest(args[0], profile)
	if err != nil {
		return err
	}

	var rows [][]string
	for i := range m.Entries {
		e := &m.Entries[i]
		if listFlags.enabledOnly && !e.IsEnabled() {
			continue
		}
		rows = append(rows, []string{
			e.Name,
			string(e.Kind),
			enabledLabel(e),
			installLabel(e),
			e.Runtime.Strategy().String(),
			pinLabel(e),
			strings.Join(e.Dependencies, ","),
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprint(out, themeFor(out).Table(
		[]string{"NAME", "KIND", "ENABLED", "INSTALL", "LOAD", "PIN", "DEPENDS"},
		rows,
	))
	return nil
}

func enabledLabel(e *manifest.Entry) string {
	if e.IsEnabled() {
		return "yes"
	}
	return "no"
}

func installLabel(e *manifest.Entry) string {
	switch {
	case e.IsBuiltin():
		return "builtin"
	case e.IsVendorPackaged():
		return "pgdg"
	case e.Build != nil:
		return string(e.Build.Type)
	}
	return "-"
}

func pinLabel(e *manifest.Entry) string {
	kind, value := e.Source.Pin()
	switch kind {
	case manifest.PinCommit:
		if len(value) > 12 {
			value = value[:12]
		}
		return value
	case manifest.PinTag:
		return value
	}
	return "-"
}
