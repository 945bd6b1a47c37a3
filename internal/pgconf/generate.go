package pgconf

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Output is the configuration generated for one role.
type Output struct {
	Role   config.Role
	Config string
	HBA    string
}

// Generate renders postgresql.conf and pg_hba.conf text for role.
//
// Settings are the profile's common settings with the role's overrides
// applied. When the profile does not set the preload list, the manifest's
// preload libraries are used so the server loads what the image was built
// with. Every invalid setting is reported, not only the first.
func Generate(profile *config.Profile, role config.Role, m *manifest.Manifest) (*Output, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("unknown role %q", role)
	}

	settings := profile.EffectiveSettings(role)
	if !hasPreloadSetting(settings) {
		libs := manifest.PreloadLibraries(m)
		settings = settings.Set("sharedPreloadLibraries", libs)
	}

	conf, err := renderConfig(role, settings)
	if err != nil {
		return nil, err
	}
	return &Output{
		Role:   role,
		Config: conf,
		HBA:    renderHBA(role, profile.HBARules),
	}, nil
}

func hasPreloadSetting(settings config.Settings) bool {
	for _, s := range settings {
		if name, err := ParameterName(s.Key); err == nil && name == PreloadParameter {
			return true
		}
	}
	return false
}

func renderConfig(role config.Role, settings config.Settings) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "# postgresql.conf for role %s, generated by pgbundle. Do not edit.\n\n", role)

	var errs []error
	seen := make(map[string]string, len(settings))
	for _, s := range settings {
		name, err := ParameterName(s.Key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if prev, dup := seen[name]; dup {
			errs = append(errs, fmt.Errorf("%w: settings %q and %q both set %s", pgbundle.ErrInvalidSetting, prev, s.Key, name))
			continue
		}
		seen[name] = s.Key

		value, emit, err := FormatValue(name, s.Value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !emit {
			continue
		}
		fmt.Fprintf(&b, "%s = %s\n", name, value)
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return b.String(), nil
}

func renderHBA(role config.Role, rules []config.HBARule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# pg_hba.conf for role %s, generated by pgbundle. Do not edit.\n", role)
	for _, r := range rules {
		if !r.AppliesTo(role) {
			continue
		}
		if r.Comment != "" {
			fmt.Fprintf(&b, "\n# %s\n", r.Comment)
		}
		b.WriteString(strings.TrimSpace(r.Rule))
		b.WriteByte('\n')
	}
	return b.String()
}
