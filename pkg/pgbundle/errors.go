package pgbundle

import (
	"errors"
	"strings"
)

// Sentinel errors for the failure classes of the manifest pipeline.
// Callers distinguish them with errors.Is().
//
// Example usage:
//
//	_, err := orchestrator.Run(ctx, m)
//	if errors.Is(err, pgbundle.ErrUntrustedSource) {
//	    // a manifest edit pointed a source at an unlisted host
//	}
var (
	// ErrManifestSchema indicates a structural violation in the manifest.
	ErrManifestSchema = errors.New("manifest schema violation")

	// ErrDependencyGraph indicates a dangling, disabled, or cyclic dependency.
	ErrDependencyGraph = errors.New("manifest dependency graph violation")

	// ErrUntrustedSource indicates a git repository host outside the allow-list.
	// This is a security control and is never downgraded to a warning.
	ErrUntrustedSource = errors.New("untrusted source host")

	// ErrUnsupportedBuildType indicates a build type the orchestrator cannot run,
	// including the reserved script type.
	ErrUnsupportedBuildType = errors.New("unsupported build type")

	// ErrUnsupportedSourceType indicates a source type the orchestrator cannot fetch.
	ErrUnsupportedSourceType = errors.New("unsupported source type")

	// ErrBuildFailed indicates a clone, checkout, or build command failed.
	ErrBuildFailed = errors.New("build failed")

	// ErrInvalidSetting indicates a server setting that cannot be rendered safely.
	ErrInvalidSetting = errors.New("invalid server setting")

	// ErrHealthcheckFailed indicates a live healthcheck tier failed.
	ErrHealthcheckFailed = errors.New("healthcheck failed")

	// ErrInvalidConfig indicates the profile or environment configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates database connection failed.
	ErrConnectionFailed = errors.New("connection failed")
)

// usageErrorPatterns are cobra error message prefixes that indicate misuse of the CLI.
var usageErrorPatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"accepts ",
	"requires at least",
	"required flag",
	"invalid argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrManifestSchema),
		errors.Is(err, ErrDependencyGraph),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrInvalidSetting):
		return ExitManifestError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrUntrustedSource):
		return ExitUntrustedSource
	case errors.Is(err, ErrUnsupportedBuildType),
		errors.Is(err, ErrUnsupportedSourceType):
		return ExitUnsupportedBuild
	case errors.Is(err, ErrBuildFailed):
		return ExitBuildFailed
	case errors.Is(err, ErrHealthcheckFailed):
		return ExitHealthcheckFailed
	}

	errStr := err.Error()
	for _, p := range usageErrorPatterns {
		if strings.HasPrefix(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
