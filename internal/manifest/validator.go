package manifest

import (
	"fmt"
	"path"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// ValidateOptions carries the regression guards that live outside the manifest.
// Zero counts are not checked.
type ValidateOptions struct {
	ExpectedTotal   int
	ExpectedEnabled int
}

// ValidationResult contains the outcome of manifest validation.
// It always holds every violation found, never just the first.
type ValidationResult struct {
	Violations []Violation
}

func (r *ValidationResult) add(class ViolationClass, entry, field, format string, args ...interface{}) {
	r.Violations = append(r.Violations, Violation{
		Class:   class,
		Entry:   entry,
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	})
}

// Valid returns true if no violations were found.
func (r *ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}

// Err returns nil for a valid manifest, otherwise a *ValidationError.
func (r *ValidationResult) Err() error {
	if r.Valid() {
		return nil
	}
	return &ValidationError{Violations: r.Violations}
}

// Validate checks structural and cross-entry invariants of m.
// It checks:
//   - unique, non-empty names and known kinds, sources, build types, install methods
//   - builtin entries carry a builtin source and no build
//   - disabled entries explain why
//   - dependencies resolve, are acyclic, and enabled entries only depend on
//     enabled or builtin entries
//   - runtime flags and build options are coherent
//   - patches parse and name their targets
//   - pgdg versions agree with the pinned source tag
//   - entry counts match the expected totals
func Validate(m *Manifest, opts ValidateOptions) *ValidationResult {
	r := &ValidationResult{}

	if len(m.Entries) == 0 {
		r.add(ClassSchema, "", "entries", "manifest has no entries")
	}

	seen := make(map[string]int, len(m.Entries))
	for i := range m.Entries {
		e := &m.Entries[i]
		if strings.TrimSpace(e.Name) == "" {
			r.add(ClassSchema, fmt.Sprintf("entries[%d]", i), "name", "name is required")
			continue
		}
		if first, dup := seen[e.Name]; dup {
			r.add(ClassSchema, e.Name, "name", "duplicate name (first defined at entries[%d])", first)
			continue
		}
		seen[e.Name] = i
	}

	for i := range m.Entries {
		validateEntry(r, &m.Entries[i])
	}

	validateDependencies(r, m)
	validateCounts(r, m, opts)

	return r
}

func validateEntry(r *ValidationResult, e *Entry) {
	name := e.Name

	if !e.Kind.Valid() {
		r.add(ClassSchema, name, "kind", "unknown kind %q (expected extension, tool, or builtin)", e.Kind)
	}
	if !e.IsEnabled() && strings.TrimSpace(e.DisabledReason) == "" {
		r.add(ClassSchema, name, "disabledReason", "disabled entries must state a reason")
	}
	if !e.InstallVia.Valid() {
		r.add(ClassSchema, name, "install_via", "unknown install method %q (expected pgdg or source)", e.InstallVia)
	}

	validateSource(r, e)

	if e.Kind == KindBuiltin {
		if e.Source.Type != SourceBuiltin {
			r.add(ClassSchema, name, "source.type", "builtin entries must use a builtin source, got %q", e.Source.Type)
		}
		if e.Build != nil {
			r.add(ClassSchema, name, "build", "builtin entries must not declare a build")
		}
	}

	if e.Build == nil {
		if e.NeedsBuild() {
			r.add(ClassSchema, name, "build", "entries built from source must declare a build")
		}
	} else {
		validateBuild(r, e)
	}

	validateRuntime(r, e)
	validateVendorVersion(r, e)
}

func validateSource(r *ValidationResult, e *Entry) {
	s := e.Source
	name := e.Name

	if !s.Type.Valid() {
		r.add(ClassSchema, name, "source.type", "unknown source type %q (expected builtin, git, or git-ref)", s.Type)
		return
	}

	switch s.Type {
	case SourceBuiltin:
		if s.Repository != "" || s.Commit != "" || s.Tag != "" || s.Ref != "" {
			r.add(ClassSchema, name, "source", "builtin sources take no repository or revision")
		}
	case SourceGit:
		if s.Repository == "" {
			r.add(ClassSchema, name, "source.repository", "git sources require a repository")
		}
		switch {
		case s.Commit == "" && s.Tag == "":
			r.add(ClassSchema, name, "source", "git sources require a commit or a tag")
		case s.Commit != "" && s.Tag != "":
			r.add(ClassSchema, name, "source", "git sources take a commit or a tag, not both")
		case s.Commit != "" && !IsCommitHash(s.Commit):
			r.add(ClassSchema, name, "source.commit", "%q is not a commit hash", s.Commit)
		}
		if s.Ref != "" {
			r.add(ClassSchema, name, "source.ref", "ref is only valid for git-ref sources")
		}
	case SourceGitRef:
		if s.Repository == "" {
			r.add(ClassSchema, name, "source.repository", "git-ref sources require a repository")
		}
		if s.Ref == "" {
			r.add(ClassSchema, name, "source.ref", "git-ref sources require a ref")
		}
		if strings.HasPrefix(s.Ref, "refs/heads/") {
			r.add(ClassSchema, name, "source.ref", "branch refs are not reproducible; pin a commit or tag")
		}
		if s.Commit != "" || s.Tag != "" {
			r.add(ClassSchema, name, "source", "git-ref sources take only ref")
		}
	}
}

func validateBuild(r *ValidationResult, e *Entry) {
	b := e.Build
	name := e.Name

	if !b.Type.Known() {
		r.add(ClassSchema, name, "build.type", "unknown build type %q", b.Type)
	}
	if b.Type != BuildCargoPgrx {
		if len(b.Features) > 0 || b.NoDefaultFeatures {
			r.add(ClassSchema, name, "build.features", "features only apply to cargo-pgrx builds")
		}
		if b.ToolVersion != "" {
			r.add(ClassSchema, name, "build.toolVersion", "toolVersion only applies to cargo-pgrx builds")
		}
	}
	if b.Subdir != "" {
		clean := path.Clean(b.Subdir)
		if path.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, "../") {
			r.add(ClassSchema, name, "build.subdir", "subdir %q must stay inside the checkout", b.Subdir)
		}
	}
	for i, p := range b.Patches {
		field := fmt.Sprintf("build.patches[%d]", i)
		if _, err := ParseExpression(p.Expression); err != nil {
			r.add(ClassSchema, name, field, "invalid expression %q: %v", p.Expression, err)
		}
		if len(p.Files) == 0 {
			r.add(ClassSchema, name, field, "patch must list its target files")
		}
		for _, f := range p.Files {
			if path.IsAbs(f) || strings.HasPrefix(path.Clean(f), "..") {
				r.add(ClassSchema, name, field, "target %q must be relative to the checkout", f)
			}
		}
	}
}

func validateRuntime(r *ValidationResult, e *Entry) {
	rt := e.Runtime
	if rt.PreloadLibraryName != "" && !rt.SharedPreload {
		r.add(ClassSchema, e.Name, "runtime.preloadLibraryName", "preloadLibraryName requires sharedPreload")
	}
	if e.Kind == KindTool && rt.SharedPreload {
		r.add(ClassSchema, e.Name, "runtime.sharedPreload", "tools are not loaded by the server")
	}
}

// validateVendorVersion guards against a pgdg package version drifting from
// the source tag the manifest pins. Entries without a declared version or
// without a tag have nothing to compare.
func validateVendorVersion(r *ValidationResult, e *Entry) {
	if !e.IsVendorPackaged() || e.PGDGVersion == "" {
		return
	}
	kind, tag := e.Source.Pin()
	if kind != PinTag {
		return
	}
	if !versionsMatch(e.PGDGVersion, tag) {
		r.add(ClassSchema, e.Name, "pgdgVersion", "pgdg version %q does not match source tag %q", e.PGDGVersion, tag)
	}
}

func versionsMatch(declared, tag string) bool {
	dv, derr := semver.NewVersion(declared)
	tv, terr := semver.NewVersion(TagVersion(tag))
	if derr == nil && terr == nil {
		return dv.Equal(tv)
	}
	return strings.TrimPrefix(declared, "v") == TagVersion(tag)
}

func validateDependencies(r *ValidationResult, m *Manifest) {
	g := NewGraph(m)

	for _, e := range m.Entries {
		for _, missing := range g.Missing[e.Name] {
			r.add(ClassDependency, e.Name, "dependencies", "unknown dependency %q", missing)
		}
	}

	for i := range m.Entries {
		e := &m.Entries[i]
		if !e.IsEnabled() {
			continue
		}
		for _, depName := range g.Dependencies(e.Name) {
			dep, _ := m.Lookup(depName)
			if !dep.IsEnabled() && dep.Kind != KindBuiltin {
				r.add(ClassDependency, e.Name, "dependencies", "enabled entry depends on disabled entry %q", depName)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		r.add(ClassDependency, "", "dependencies", "%v", err)
	}
}

func validateCounts(r *ValidationResult, m *Manifest, opts ValidateOptions) {
	if opts.ExpectedTotal > 0 && len(m.Entries) != opts.ExpectedTotal {
		r.add(ClassSchema, "", "entries", "expected %d entries, found %d", opts.ExpectedTotal, len(m.Entries))
	}
	if opts.ExpectedEnabled > 0 {
		enabled := 0
		for i := range m.Entries {
			if m.Entries[i].IsEnabled() {
				enabled++
			}
		}
		if enabled != opts.ExpectedEnabled {
			r.add(ClassSchema, "", "entries", "expected %d enabled entries, found %d", opts.ExpectedEnabled, enabled)
		}
	}
}
