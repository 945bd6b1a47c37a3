package pgconf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

var (
	lowerUpper   = regexp.MustCompile(`([a-z0-9])([A-Z])`)
	acronymUpper = regexp.MustCompile(`([A-Z]+)([A-Z][a-z])`)
	validName    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)
)

// extensionPrefixes are extension namespaces whose settings are written as
// prefix.setting in postgresql.conf.
var extensionPrefixes = []string{
	"pg_stat_statements",
	"auto_explain",
	"pgaudit",
	"cron",
	"timescaledb",
}

// ParameterName translates an inner-caps profile key into the server's
// parameter name:
//
//	listenAddresses            -> listen_addresses
//	sslCAFile                  -> ssl_ca_file
//	pgStatStatementsMax        -> pg_stat_statements.max
//	autoExplainLogMinDuration  -> auto_explain.log_min_duration
//
// Keys already in canonical form pass through unchanged. A result outside
// the parameter name grammar is an error wrapping pgbundle.ErrInvalidSetting.
func ParameterName(key string) (string, error) {
	name := lowerUpper.ReplaceAllString(key, "${1}_${2}")
	name = acronymUpper.ReplaceAllString(name, "${1}_${2}")
	name = strings.ToLower(name)

	for _, prefix := range extensionPrefixes {
		if rest, ok := strings.CutPrefix(name, prefix+"_"); ok && rest != "" {
			name = prefix + "." + rest
			break
		}
	}

	if !validName.MatchString(name) {
		return "", fmt.Errorf("%w: key %q translates to %q, which is not a valid parameter name",
			pgbundle.ErrInvalidSetting, key, name)
	}
	return name, nil
}
