package manifest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Sentinel errors for manifest loading.
var (
	// ErrFileNotFound indicates the manifest file does not exist.
	ErrFileNotFound = errors.New("manifest file not found")

	// ErrInvalidFormat indicates the manifest is not valid JSON or YAML.
	ErrInvalidFormat = errors.New("manifest must be valid JSON or YAML")

	// ErrUnsupportedExt indicates an unsupported file extension.
	ErrUnsupportedExt = errors.New("unsupported manifest extension (use .json, .yaml, or .yml)")
)

// ViolationClass groups violations into the two fatal manifest error kinds.
type ViolationClass int

const (
	ClassSchema ViolationClass = iota
	ClassDependency
)

// Violation is one problem found by the validator.
type Violation struct {
	Class   ViolationClass
	Entry   string // entry name, empty for manifest-level violations
	Field   string
	Message string
}

func (v Violation) String() string {
	var b strings.Builder
	if v.Entry != "" {
		fmt.Fprintf(&b, "%s: ", v.Entry)
	}
	if v.Field != "" {
		fmt.Fprintf(&b, "%s: ", v.Field)
	}
	b.WriteString(v.Message)
	return b.String()
}

// ValidationError carries the complete list of violations.
// errors.Is matches pgbundle.ErrManifestSchema and/or
// pgbundle.ErrDependencyGraph depending on the classes present.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "manifest has %d violation(s):\n", len(e.Violations))
	for i, v := range e.Violations {
		fmt.Fprintf(&msg, "  %d. %s\n", i+1, v)
	}
	return strings.TrimRight(msg.String(), "\n")
}

// Unwrap exposes the sentinel for every violation class present.
func (e *ValidationError) Unwrap() []error {
	var schema, dependency bool
	for _, v := range e.Violations {
		switch v.Class {
		case ClassSchema:
			schema = true
		case ClassDependency:
			dependency = true
		}
	}
	var errs []error
	if schema {
		errs = append(errs, pgbundle.ErrManifestSchema)
	}
	if dependency {
		errs = append(errs, pgbundle.ErrDependencyGraph)
	}
	return errs
}
