// Package scene resolves scene identifiers to perceived scenes.
//
// Perception is a deterministic lookup in an immutable Catalog. An
// identifier is conventionally an image file name; its key is the last
// path segment with the extension removed, so "photos/scene1.jpg",
// "scene1.png" and "scene1" all resolve to the same scene. Unknown keys and
// empty identifiers resolve to the catalog's default scene. Resolution
// never fails.
//
// The built-in catalog is an embedded CUE document validated against the
// #Catalog schema in schema.cue. Custom catalogs may be loaded from CUE or
// YAML files with LoadCatalogFile.
package scene
