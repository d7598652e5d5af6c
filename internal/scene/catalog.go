package scene

import (
	"fmt"
	"strings"

	"github.com/roach88/roboplan/internal/ir"
)

// DefaultKey is the conventional key of the fallback scene.
const DefaultKey = "default"

// Entry is one named scene in a catalog.
type Entry struct {
	Key   string
	Scene ir.Scene
}

// Catalog is an immutable, ordered mapping from scene key to Scene.
// It is safe for concurrent reads; nothing mutates it after NewCatalog.
type Catalog struct {
	defaultKey string
	keys       []string
	scenes     map[string]ir.Scene
}

// NewCatalog builds a catalog from entries in definition order.
// It rejects empty or duplicate keys, keys containing path separators,
// invalid scenes, and a defaultKey with no matching entry.
func NewCatalog(defaultKey string, entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		defaultKey: defaultKey,
		keys:       make([]string, 0, len(entries)),
		scenes:     make(map[string]ir.Scene, len(entries)),
	}

	var errs ir.ValidationErrors
	for i, e := range entries {
		field := fmt.Sprintf("scenes[%d]", i)
		switch {
		case strings.TrimSpace(e.Key) == "":
			errs = append(errs, ir.ValidationError{Field: field + ".key", Message: "key is required"})
			continue
		case strings.ContainsAny(e.Key, `/\`):
			errs = append(errs, ir.ValidationError{Field: field + ".key", Message: fmt.Sprintf("key %q must not contain a path separator", e.Key)})
			continue
		}
		if _, dup := c.scenes[e.Key]; dup {
			errs = append(errs, ir.ValidationError{Field: field + ".key", Message: fmt.Sprintf("duplicate scene key %q", e.Key)})
			continue
		}
		if verrs := e.Scene.Validate(); len(verrs) > 0 {
			for _, ve := range verrs {
				errs = append(errs, ir.ValidationError{Field: field + "." + ve.Field, Message: ve.Message})
			}
			continue
		}
		c.keys = append(c.keys, e.Key)
		c.scenes[e.Key] = e.Scene.Clone()
	}

	if _, ok := c.scenes[defaultKey]; !ok && len(errs) == 0 {
		errs = append(errs, ir.ValidationError{Field: "default", Message: fmt.Sprintf("default scene %q is not in the catalog", defaultKey)})
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return c, nil
}

// Keys returns scene keys in definition order.
func (c *Catalog) Keys() []string {
	out := make([]string, len(c.keys))
	copy(out, c.keys)
	return out
}

// DefaultKey returns the key of the fallback scene.
func (c *Catalog) DefaultKey() string {
	return c.defaultKey
}

// Lookup returns a copy of the scene stored under key.
func (c *Catalog) Lookup(key string) (ir.Scene, bool) {
	s, ok := c.scenes[key]
	if !ok {
		return ir.Scene{}, false
	}
	return s.Clone(), true
}

// Default returns a copy of the fallback scene.
func (c *Catalog) Default() ir.Scene {
	return c.scenes[c.defaultKey].Clone()
}

// Len returns the number of scenes.
func (c *Catalog) Len() int {
	return len(c.keys)
}
