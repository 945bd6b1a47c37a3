package manifest

// DefaultExtensions returns the names the bootstrap script creates and the
// healthcheck expects: enabled, default-on, non-tool entries whose loading
// strategy includes CREATE EXTENSION. Dependencies come before dependents;
// otherwise manifest order is kept. A cyclic manifest falls back to manifest
// order; the validator rejects cycles before generation anyway.
func DefaultExtensions(m *Manifest) []string {
	var names []string
	for _, e := range orderedOrAsIs(m) {
		if !e.IsEnabled() || !e.Runtime.DefaultEnable || e.Kind == KindTool {
			continue
		}
		if !e.Runtime.CreatesExtension() {
			continue
		}
		names = append(names, e.Name)
	}
	return names
}

// PreloadLibraries returns the shared_preload_libraries tokens of enabled,
// default-on entries in manifest order, without duplicates.
func PreloadLibraries(m *Manifest) []string {
	var libs []string
	seen := make(map[string]bool)
	for i := range m.Entries {
		e := &m.Entries[i]
		if !e.IsEnabled() || !e.Runtime.DefaultEnable || e.Runtime.Strategy() != LoadSharedPreload {
			continue
		}
		lib := e.LibraryName()
		if seen[lib] {
			continue
		}
		seen[lib] = true
		libs = append(libs, lib)
	}
	return libs
}

// VendorPackaged returns enabled entries installed from the PGDG repository.
func VendorPackaged(m *Manifest) []*Entry {
	var out []*Entry
	for i := range m.Entries {
		e := &m.Entries[i]
		if e.IsEnabled() && e.IsVendorPackaged() {
			out = append(out, e)
		}
	}
	return out
}

func orderedOrAsIs(m *Manifest) []*Entry {
	if ordered, err := OrderedEntries(m); err == nil {
		return ordered
	}
	out := make([]*Entry, 0, len(m.Entries))
	for i := range m.Entries {
		out = append(out, &m.Entries[i])
	}
	return out
}
