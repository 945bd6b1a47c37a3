// Package checksum computes digests of generated artifacts.
//
// Every artifact gets two digests:
//
//   - Raw: SHA-256 of the exact bytes, written to SHA256SUMS in the format
//     sha256sum -c understands
//   - Content: SHA-256 after comments are stripped and whitespace runs are
//     collapsed, so a regenerated artifact whose only difference is a comment
//     is reported as unchanged
//
// Comment syntax follows the file type: SQL files strip -- and nested /* */
// comments outside literals, configuration and shell files strip # comments
// outside quotes.
//
// SHA256 is safe for concurrent use by multiple goroutines.
package checksum
