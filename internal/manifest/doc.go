// Package manifest defines the bundle manifest, its loader, and its validator.
//
// # Overview
//
// A manifest lists every extension, tool, and builtin module bundled into the
// distribution: where its source comes from, how it is built, and how the
// server loads it at runtime. The build orchestrator and every generator read
// the same validated Manifest, so no artifact can disagree with another.
//
// # Format
//
//	{
//	  "generatedAt": "2025-06-01T00:00:00Z",
//	  "entries": [
//	    {
//	      "name": "vector",
//	      "kind": "extension",
//	      "source": {"type": "git", "repository": "https://github.com/pgvector/pgvector.git", "tag": "v0.8.0"},
//	      "build": {"type": "pgxs"},
//	      "runtime": {"sharedPreload": false, "defaultEnable": true, "preloadOnly": false}
//	    }
//	  ]
//	}
//
// YAML manifests with the same field names are accepted as well.
//
// # Validation
//
// Validate never stops at the first problem. It returns every violation so a
// broken manifest is fixed in one round trip. Violations are either schema
// violations (pgbundle.ErrManifestSchema) or dependency graph violations
// (pgbundle.ErrDependencyGraph); ValidationError matches both with errors.Is.
//
// # Runtime loading
//
// The sharedPreload and preloadOnly flags collapse into one LoadStrategy:
// shared-preload, sql-schema, or create-extension. Generators switch on the
// strategy rather than combining booleans.
package manifest
