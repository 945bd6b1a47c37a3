package manifest

import "time"

// Manifest is the declarative description of every bundled entry.
// It is the single source of truth for the build and for every generated artifact.
type Manifest struct {
	GeneratedAt time.Time `json:"generatedAt" yaml:"generatedAt"`
	Entries     []Entry   `json:"entries" yaml:"entries"`
}

// Kind classifies an entry.
type Kind string

const (
	KindExtension Kind = "extension"
	KindTool      Kind = "tool"
	KindBuiltin   Kind = "builtin"
)

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindExtension, KindTool, KindBuiltin:
		return true
	}
	return false
}

// InstallVia selects how an entry reaches the image.
type InstallVia string

const (
	InstallDefault InstallVia = ""
	InstallPGDG    InstallVia = "pgdg"
	InstallSource  InstallVia = "source"
)

// Valid reports whether v is a known install method.
func (v InstallVia) Valid() bool {
	switch v {
	case InstallDefault, InstallPGDG, InstallSource:
		return true
	}
	return false
}

// Entry describes one bundled extension, tool, or builtin module.
type Entry struct {
	Name           string     `json:"name" yaml:"name"`
	Kind           Kind       `json:"kind" yaml:"kind"`
	Category       string     `json:"category,omitempty" yaml:"category,omitempty"`
	Description    string     `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled        *bool      `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	DisabledReason string     `json:"disabledReason,omitempty" yaml:"disabledReason,omitempty"`
	Source         Source     `json:"source" yaml:"source"`
	Build          *Build     `json:"build,omitempty" yaml:"build,omitempty"`
	InstallVia     InstallVia `json:"install_via,omitempty" yaml:"install_via,omitempty"`
	PGDGPackage    string     `json:"pgdgPackage,omitempty" yaml:"pgdgPackage,omitempty"`
	PGDGVersion    string     `json:"pgdgVersion,omitempty" yaml:"pgdgVersion,omitempty"`
	Runtime        Runtime    `json:"runtime" yaml:"runtime"`
	Dependencies   []string   `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// IsEnabled reports whether the entry is enabled. Absent means enabled.
func (e *Entry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// IsBuiltin reports whether the entry ships with the server itself.
func (e *Entry) IsBuiltin() bool {
	return e.Kind == KindBuiltin || e.Source.Type == SourceBuiltin
}

// IsVendorPackaged reports whether the entry is installed from the PGDG repository.
func (e *Entry) IsVendorPackaged() bool {
	return e.InstallVia == InstallPGDG
}

// NeedsBuild reports whether the build orchestrator has to compile the entry.
func (e *Entry) NeedsBuild() bool {
	return !e.IsBuiltin() && !e.IsVendorPackaged()
}

// Runtime describes how the server loads an entry.
type Runtime struct {
	SharedPreload      bool   `json:"sharedPreload" yaml:"sharedPreload"`
	DefaultEnable      bool   `json:"defaultEnable" yaml:"defaultEnable"`
	PreloadOnly        bool   `json:"preloadOnly" yaml:"preloadOnly"`
	PreloadLibraryName string `json:"preloadLibraryName,omitempty" yaml:"preloadLibraryName,omitempty"`
}

// LoadStrategy is the single runtime loading variant derived from the
// runtime flags.
type LoadStrategy int

const (
	// LoadCreateExtension is a plain CREATE EXTENSION with no preloaded library.
	LoadCreateExtension LoadStrategy = iota
	// LoadSharedPreload loads a native library at server start. Unless the
	// entry is preload-only it also gets CREATE EXTENSION.
	LoadSharedPreload
	// LoadSQLSchema is a SQL-only schema with no shared library and no
	// CREATE EXTENSION in the bootstrap script.
	LoadSQLSchema
)

func (s LoadStrategy) String() string {
	switch s {
	case LoadCreateExtension:
		return "create-extension"
	case LoadSharedPreload:
		return "shared-preload"
	case LoadSQLSchema:
		return "sql-schema"
	}
	return "unknown"
}

// Strategy returns the loading variant for r.
func (r Runtime) Strategy() LoadStrategy {
	switch {
	case r.SharedPreload:
		return LoadSharedPreload
	case r.PreloadOnly:
		return LoadSQLSchema
	default:
		return LoadCreateExtension
	}
}

// CreatesExtension reports whether the bootstrap script issues CREATE EXTENSION.
func (r Runtime) CreatesExtension() bool {
	switch r.Strategy() {
	case LoadCreateExtension:
		return true
	case LoadSharedPreload:
		return !r.PreloadOnly
	default:
		return false
	}
}

// LibraryName returns the token that goes into shared_preload_libraries.
func (e *Entry) LibraryName() string {
	if e.Runtime.PreloadLibraryName != "" {
		return e.Runtime.PreloadLibraryName
	}
	return e.Name
}

// Lookup returns the entry with the given name.
func (m *Manifest) Lookup(name string) (*Entry, bool) {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return &m.Entries[i], true
		}
	}
	return nil, false
}
