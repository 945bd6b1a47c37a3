// Package logging provides concrete implementations of the pgbundle.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: zerolog console output on stderr with level tags
//   - NullLogger: Discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
