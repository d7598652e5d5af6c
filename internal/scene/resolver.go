package scene

import (
	"strings"

	"github.com/roach88/roboplan/internal/ir"
)

// Resolver maps a scene identifier to a Scene.
//
// Implementations must never fail: an identifier they do not recognize
// resolves to a default scene. A camera-backed detector can replace the
// catalog lookup behind this interface.
type Resolver interface {
	Resolve(identifier string) ir.Scene
	ListAvailable() []string
}

// CatalogResolver resolves identifiers against a Catalog.
type CatalogResolver struct {
	catalog *Catalog
}

var _ Resolver = (*CatalogResolver)(nil)

// NewResolver creates a resolver over catalog. A nil catalog selects
// DefaultCatalog.
func NewResolver(catalog *Catalog) *CatalogResolver {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &CatalogResolver{catalog: catalog}
}

// Resolve returns a copy of the scene for identifier, or of the default
// scene when identifier is empty or its key is not in the catalog.
// Lookup is case-sensitive.
func (r *CatalogResolver) Resolve(identifier string) ir.Scene {
	if identifier == "" {
		return r.catalog.Default()
	}
	if s, ok := r.catalog.Lookup(Key(identifier)); ok {
		return s
	}
	return r.catalog.Default()
}

// Known reports whether identifier names a catalog scene rather than
// falling back to the default.
func (r *CatalogResolver) Known(identifier string) bool {
	if identifier == "" {
		return false
	}
	_, ok := r.catalog.Lookup(Key(identifier))
	return ok
}

// ResolveKey returns the catalog key Resolve would use for identifier:
// the derived key when known, the default key otherwise.
func (r *CatalogResolver) ResolveKey(identifier string) string {
	if r.Known(identifier) {
		return Key(identifier)
	}
	return r.catalog.DefaultKey()
}

// ListAvailable returns catalog keys in definition order, default included.
func (r *CatalogResolver) ListAvailable() []string {
	return r.catalog.Keys()
}

// Catalog returns the underlying catalog.
func (r *CatalogResolver) Catalog() *Catalog {
	return r.catalog
}

// Key derives the catalog key from a scene identifier: the final path
// segment (after the last '/' or '\') with everything from the last '.'
// removed.
//
//	Key("scene1")              == "scene1"
//	Key("images/scene2.jpg")   == "scene2"
//	Key(`C:\shots\scene3.png`) == "scene3"
//	Key("scene1.tar.gz")       == "scene1.tar"
func Key(identifier string) string {
	name := identifier
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[:i]
	}
	return name
}
