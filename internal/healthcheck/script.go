package healthcheck

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

//go:embed tiers.sh
var tiersScript string

// GenerateScript returns the container healthcheck script for exp.
// Expected values are baked in as literals; only the tier logic is shared
// between images.
func GenerateScript(exp Expectations) string {
	role := exp.DefaultRole
	if role == "" {
		role = config.RolePrimary
	}
	minRelations := exp.MinCatalogRelations
	if minRelations <= 0 {
		minRelations = pgbundle.MinCatalogRelations
	}

	var b strings.Builder
	b.WriteString("#!/usr/bin/env bash\n")
	b.WriteString("# Generated by pgbundle. Do not edit.\n")
	b.WriteString("# Connection parameters come from the standard PG* environment variables.\n")
	b.WriteString("set -o pipefail\n\n")
	fmt.Fprintf(&b, "EXPECTED_EXTENSIONS=%s\n", shellArray(exp.Extensions))
	fmt.Fprintf(&b, "EXPECTED_COUNT=%d\n", len(exp.Extensions))
	fmt.Fprintf(&b, "EXPECTED_PRELOAD=%s\n", shellArray(exp.Preload))
	fmt.Fprintf(&b, "MIN_CATALOG_RELATIONS=%d\n", minRelations)
	fmt.Fprintf(&b, "STATUS_TABLE=%s\n", pgbundle.StatusTable)
	fmt.Fprintf(&b, "ROLE=\"${PGBUNDLE_ROLE:-%s}\"\n", role)
	b.WriteString(tiersScript)
	return b.String()
}

func shellArray(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = shellQuote(v)
	}
	return "(" + strings.Join(quoted, " ") + ")"
}

var shellEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "$", `\$`, "`", "\\`")

func shellQuote(s string) string {
	return `"` + shellEscaper.Replace(s) + `"`
}
