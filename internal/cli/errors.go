package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// errorTags label failures on stderr. The first matching sentinel wins.
var errorTags = []struct {
	err error
	tag string
}{
	{pgbundle.ErrUntrustedSource, "untrusted-source"},
	{pgbundle.ErrUnsupportedBuildType, "unsupported-build"},
	{pgbundle.ErrUnsupportedSourceType, "unsupported-source"},
	{pgbundle.ErrBuildFailed, "build"},
	{pgbundle.ErrDependencyGraph, "dependency"},
	{pgbundle.ErrManifestSchema, "manifest"},
	{pgbundle.ErrInvalidSetting, "setting"},
	{pgbundle.ErrInvalidConfig, "config"},
	{pgbundle.ErrConnectionFailed, "connection"},
	{pgbundle.ErrHealthcheckFailed, "healthcheck"},
}

func errorTag(err error) string {
	for _, t := range errorTags {
		if errors.Is(err, t.err) {
			return t.tag
		}
	}
	if pgbundle.ExitCodeForError(err) == pgbundle.ExitUsageError {
		return "usage"
	}
	return "error"
}

func reportError(w io.Writer, err error) {
	fmt.Fprintf(w, "[ERROR] %s: %s\n", errorTag(err), err)
}

// reportedError is an error whose details a command already printed.
// Only the short summary is repeated on stderr.
type reportedError struct {
	summary string
	err     error
}

func (e *reportedError) Error() string { return e.summary }

func (e *reportedError) Unwrap() error { return e.err }
