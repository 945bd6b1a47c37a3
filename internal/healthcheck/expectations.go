package healthcheck

import (
	"github.com/vvka-141/pgbundle/internal/config"
	"github.com/vvka-141/pgbundle/internal/manifest"
	"github.com/vvka-141/pgbundle/pkg/pgbundle"
)

// Expectations are the literal values a healthcheck compares the live server against.
type Expectations struct {
	// Extensions must all exist in pg_extension.
	Extensions []string
	// Preload tokens must all appear in shared_preload_libraries.
	Preload []string
	// MinCatalogRelations is the lowest acceptable relation count in pg_catalog.
	MinCatalogRelations int
	// DefaultRole is used by the script when PGBUNDLE_ROLE is unset.
	DefaultRole config.Role
}

// FromManifest derives the expectations the bootstrap script and server
// configuration generated from m will satisfy.
func FromManifest(m *manifest.Manifest, role config.Role) Expectations {
	return Expectations{
		Extensions:          manifest.DefaultExtensions(m),
		Preload:             manifest.PreloadLibraries(m),
		MinCatalogRelations: pgbundle.MinCatalogRelations,
		DefaultRole:         role,
	}
}

// Without returns a copy of e with the named extension removed.
func (e Expectations) Without(name string) Expectations {
	out := e
	out.Extensions = nil
	for _, ext := range e.Extensions {
		if ext != name {
			out.Extensions = append(out.Extensions, ext)
		}
	}
	return out
}
