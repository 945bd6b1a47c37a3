package pgbundle

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess           = 0  // Command completed successfully
	ExitGeneralError      = 1  // Unknown or unclassified error
	ExitUsageError        = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic             = 3  // Internal panic (unexpected crash)
	ExitManifestError     = 10 // Manifest, profile, or setting invalid
	ExitConnectionError   = 11 // Failed to connect to database
	ExitUntrustedSource   = 12 // Source repository host not allow-listed
	ExitUnsupportedBuild  = 13 // Unknown, reserved, or unimplemented build/source type
	ExitBuildFailed       = 14 // Clone, checkout, or build command failed
	ExitHealthcheckFailed = 15 // A live healthcheck tier failed
)

const (
	// DefaultPGMajor is the target PostgreSQL major version when PG_MAJOR is unset.
	DefaultPGMajor = 17

	// DefaultOutputRoot is the staging directory build artifacts are installed into.
	DefaultOutputRoot = "./build-output"

	// DefaultProfileFile is the profile looked up when --profile is not given.
	DefaultProfileFile = "pgbundle.yaml"

	// StatusTable is the table the bootstrap script records initialization runs in.
	StatusTable = "pgbundle_init_status"

	// MinCatalogRelations is the lowest plausible number of relations in pg_catalog.
	// A fresh PostgreSQL 13+ cluster has well over a hundred.
	MinCatalogRelations = 50

	// DefaultRetryInitialDelay is the default initial delay before the first connection retry.
	DefaultRetryInitialDelay = 200 * time.Millisecond

	// DefaultRetryMaxDelay is the default maximum delay between connection retries.
	DefaultRetryMaxDelay = 10 * time.Second

	// DefaultRetryMaxAttempts is the default number of connection retries.
	DefaultRetryMaxAttempts = 5

	// DefaultConnectTimeout bounds verify and apply against a hung server.
	DefaultConnectTimeout = 2 * time.Minute
)
