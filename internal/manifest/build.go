package manifest

// BuildType is the closed set of build flows the orchestrator knows.
// Any switch over it must list every constant and fail on default.
type BuildType string

const (
	BuildPGXS        BuildType = "pgxs"
	BuildCargoPgrx   BuildType = "cargo-pgrx"
	BuildCMake       BuildType = "cmake"
	BuildMeson       BuildType = "meson"
	BuildAutotools   BuildType = "autotools"
	BuildTimescaleDB BuildType = "timescaledb"
	BuildMake        BuildType = "make"
	BuildPerl        BuildType = "perl"
	// BuildScript is reserved and has no handler.
	BuildScript BuildType = "script"
)

// BuildTypes lists every known build type.
var BuildTypes = []BuildType{
	BuildPGXS,
	BuildCargoPgrx,
	BuildCMake,
	BuildMeson,
	BuildAutotools,
	BuildTimescaleDB,
	BuildMake,
	BuildPerl,
	BuildScript,
}

// Known reports whether t is a member of the closed set.
func (t BuildType) Known() bool {
	for _, known := range BuildTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Build describes how to compile and install an entry.
type Build struct {
	Type              BuildType `json:"type" yaml:"type"`
	Subdir            string    `json:"subdir,omitempty" yaml:"subdir,omitempty"`
	Features          []string  `json:"features,omitempty" yaml:"features,omitempty"`
	NoDefaultFeatures bool      `json:"noDefaultFeatures,omitempty" yaml:"noDefaultFeatures,omitempty"`
	ToolVersion       string    `json:"toolVersion,omitempty" yaml:"toolVersion,omitempty"`
	Patches           []Patch   `json:"patches,omitempty" yaml:"patches,omitempty"`
}
