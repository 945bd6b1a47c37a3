// Package pkglist renders the vendor package list the image build installs
// from the PGDG apt repository.
package pkglist

import (
	"fmt"
	"sort"
	"strings"

	"github.com/vvka-141/pgbundle/internal/manifest"
)

// PackageName returns the apt package for e on the given server major.
func PackageName(e *manifest.Entry, pgMajor int) string {
	pkg := e.PGDGPackage
	if pkg == "" {
		pkg = strings.ReplaceAll(e.Name, "_", "-")
	}
	return fmt.Sprintf("postgresql-%d-%s", pgMajor, pkg)
}

// Version returns the declared vendor version, falling back to the version
// in the pinned source tag. An empty result means the package is unpinned.
func Version(e *manifest.Entry) string {
	if e.PGDGVersion != "" {
		return e.PGDGVersion
	}
	if kind, tag := e.Source.Pin(); kind == manifest.PinTag {
		return manifest.TagVersion(tag)
	}
	return ""
}

// Lines returns one apt package line per enabled vendor-packaged entry, sorted.
// Pinned versions carry a trailing wildcard so the distribution revision
// suffix still matches.
func Lines(m *manifest.Manifest, pgMajor int) []string {
	var lines []string
	for _, e := range manifest.VendorPackaged(m) {
		line := PackageName(e, pgMajor)
		if v := Version(e); v != "" {
			line += "=" + v + "*"
		}
		lines = append(lines, line)
	}
	sort.Strings(lines)
	return lines
}

// Generate returns the package list file contents.
func Generate(m *manifest.Manifest, pgMajor int) string {
	lines := Lines(m, pgMajor)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
