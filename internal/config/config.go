package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigNotFound is returned when the profile file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("profile file not found")

// DefaultAllowedHosts are the git hosting domains trusted when a profile does
// not list its own.
var DefaultAllowedHosts = []string{
	"github.com",
	"gitlab.com",
	"codeberg.org",
	"bitbucket.org",
}

// HBARule is one pg_hba line, optionally restricted to a set of roles.
type HBARule struct {
	Rule    string `yaml:"rule"`
	Roles   []Role `yaml:"roles,omitempty"`
	Comment string `yaml:"comment,omitempty"`
}

// AppliesTo reports whether the rule belongs in the given role's access file.
// A rule without roles applies everywhere.
func (r HBARule) AppliesTo(role Role) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, candidate := range r.Roles {
		if candidate == role {
			return true
		}
	}
	return false
}

// SettingsConfig holds common server settings and per-role overrides.
type SettingsConfig struct {
	Common Settings          `yaml:"common"`
	Roles  map[Role]Settings `yaml:"roles,omitempty"`
}

type SourcesConfig struct {
	AllowedHosts []string `yaml:"allowedHosts,omitempty"`
}

type ValidationConfig struct {
	ExpectedTotal   int `yaml:"expectedTotal,omitempty"`
	ExpectedEnabled int `yaml:"expectedEnabled,omitempty"`
}

// Profile is the deployment profile that accompanies a manifest.
type Profile struct {
	Settings   SettingsConfig   `yaml:"settings"`
	HBARules   []HBARule        `yaml:"pgHbaRules"`
	Sources    SourcesConfig    `yaml:"sources"`
	Validation ValidationConfig `yaml:"validation"`
}

// Default returns the profile used when no profile file exists.
func Default() *Profile {
	return &Profile{
		Sources: SourcesConfig{AllowedHosts: append([]string(nil), DefaultAllowedHosts...)},
	}
}

// EffectiveSettings merges common settings with the role's overrides.
func (p *Profile) EffectiveSettings(role Role) Settings {
	return p.Settings.Common.Merge(p.Settings.Roles[role])
}

// AllowedHosts returns the configured allow-list, falling back to the defaults.
func (p *Profile) AllowedHosts() []string {
	if len(p.Sources.AllowedHosts) == 0 {
		return append([]string(nil), DefaultAllowedHosts...)
	}
	return p.Sources.AllowedHosts
}

// Validate checks role names in overrides and hba rules.
func (p *Profile) Validate() error {
	var errs []error
	for role := range p.Settings.Roles {
		if !role.Valid() {
			errs = append(errs, fmt.Errorf("settings.roles: unknown role %q", role))
		}
	}
	for i, rule := range p.HBARules {
		if rule.Rule == "" {
			errs = append(errs, fmt.Errorf("pgHbaRules[%d]: rule is empty", i))
		}
		for _, role := range rule.Roles {
			if !role.Valid() {
				errs = append(errs, fmt.Errorf("pgHbaRules[%d]: unknown role %q", i, role))
			}
		}
	}
	if p.Validation.ExpectedTotal < 0 || p.Validation.ExpectedEnabled < 0 {
		errs = append(errs, errors.New("validation: expected counts cannot be negative"))
	}
	return errors.Join(errs...)
}

// Load reads a profile from path.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates profile YAML.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}
