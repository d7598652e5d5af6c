package scene

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	"gopkg.in/yaml.v3"

	"github.com/roach88/roboplan/internal/ir"
)

//go:embed schema.cue
var schemaSource []byte

//go:embed catalog.cue
var builtinSource []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the built-in catalog (scene1, scene2, scene3,
// default). It is parsed once and shared; callers must treat it as
// read-only, which the Catalog API enforces.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		defaultCatalog = Must(ParseCUE("catalog.cue", builtinSource))
	})
	return defaultCatalog
}

// Must panics if err is non-nil. For catalogs that are known to be valid,
// such as embedded ones.
func Must(c *Catalog, err error) *Catalog {
	if err != nil {
		panic(fmt.Sprintf("scene: invalid catalog: %v", err))
	}
	return c
}

// LoadError reports a catalog that could not be read, parsed or validated.
type LoadError struct {
	Source  string // File name or label of the catalog source
	Field   string // Offending field path, if known
	Message string
	Pos     token.Pos // CUE source position, if known
	Err     error
}

func (e *LoadError) Error() string {
	var sb strings.Builder
	switch {
	case e.Pos.IsValid():
		fmt.Fprintf(&sb, "%s:%d:%d: ", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column())
	case e.Source != "":
		sb.WriteString(e.Source + ": ")
	}
	if e.Field != "" {
		sb.WriteString(e.Field + ": ")
	}
	sb.WriteString(e.Message)
	return sb.String()
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// IsLoadError reports whether err is or wraps a *LoadError.
func IsLoadError(err error) bool {
	var le *LoadError
	return errors.As(err, &le)
}

// LoadCatalogFile reads a catalog from a .cue, .yaml or .yml file.
func LoadCatalogFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Source: path, Message: fmt.Sprintf("failed to read catalog file: %v", err), Err: err}
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return ParseCUE(path, data)
	case ".yaml", ".yml":
		return ParseYAML(path, data)
	default:
		return nil, &LoadError{
			Source:  path,
			Message: fmt.Sprintf("unsupported catalog format %q (want .cue, .yaml or .yml)", filepath.Ext(path)),
		}
	}
}

// ParseCUE parses a catalog document written in CUE. The document is
// unified with the #Catalog schema, which fills defaults and closes every
// struct against unknown fields.
func ParseCUE(filename string, src []byte) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(filename, err)
	}

	v = schema.LookupPath(cue.ParsePath("#Catalog")).Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(filename, err)
	}

	// Round-trip through JSON so the decoder applies the same strict field
	// rules as the YAML path.
	data, err := v.MarshalJSON()
	if err != nil {
		return nil, formatCUEError(filename, err)
	}
	var file catalogFile
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&file); err != nil {
		return nil, &LoadError{Source: filename, Message: fmt.Sprintf("failed to decode catalog: %v", err), Err: err}
	}
	return file.build(filename)
}

// ParseYAML parses a catalog document written in YAML. Unknown fields are
// rejected; a missing confidence defaults to 1.0.
func ParseYAML(filename string, src []byte) (*Catalog, error) {
	var file catalogFile
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, &LoadError{Source: filename, Message: fmt.Sprintf("failed to parse YAML: %v", err), Err: err}
	}
	return file.build(filename)
}

type catalogFile struct {
	Default string       `json:"default" yaml:"default"`
	Scenes  []sceneEntry `json:"scenes" yaml:"scenes"`
}

type sceneEntry struct {
	Key         string        `json:"key" yaml:"key"`
	Description string        `json:"description" yaml:"description"`
	Objects     []objectEntry `json:"objects" yaml:"objects"`
}

type objectEntry struct {
	Name       string         `json:"name" yaml:"name"`
	ObjectType string         `json:"object_type" yaml:"object_type"`
	Position   *positionEntry `json:"position" yaml:"position"`
	Confidence *float64       `json:"confidence" yaml:"confidence"`
}

type positionEntry struct {
	X *float64 `json:"x" yaml:"x"`
	Y *float64 `json:"y" yaml:"y"`
	Z *float64 `json:"z" yaml:"z"`
}

// build converts a decoded document into a Catalog, reporting the first
// problem as a LoadError.
func (f catalogFile) build(source string) (*Catalog, error) {
	defaultKey := f.Default
	if defaultKey == "" {
		defaultKey = DefaultKey
	}

	var errs ir.ValidationErrors
	entries := make([]Entry, 0, len(f.Scenes))
	for i, se := range f.Scenes {
		objects := make([]ir.DetectedObject, 0, len(se.Objects))
		for j, oe := range se.Objects {
			field := fmt.Sprintf("scenes[%d].objects[%d]", i, j)
			pos, perrs := oe.Position.toPosition(field + ".position")
			if len(perrs) > 0 {
				errs = append(errs, perrs...)
				continue
			}
			confidence := ir.DefaultObjectConfidence
			if oe.Confidence != nil {
				confidence = *oe.Confidence
			}
			objects = append(objects, ir.DetectedObject{
				Name:       oe.Name,
				ObjectType: oe.ObjectType,
				Position:   pos,
				Confidence: confidence,
			})
		}
		entries = append(entries, Entry{
			Key:   se.Key,
			Scene: ir.Scene{Objects: objects, Description: se.Description},
		})
	}
	if len(errs) > 0 {
		return nil, &LoadError{Source: source, Field: errs[0].Field, Message: errs[0].Message, Err: errs}
	}

	c, err := NewCatalog(defaultKey, entries...)
	if err != nil {
		var verrs ir.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, &LoadError{Source: source, Field: verrs[0].Field, Message: verrs[0].Message, Err: err}
		}
		return nil, &LoadError{Source: source, Message: err.Error(), Err: err}
	}
	return c, nil
}

func (p *positionEntry) toPosition(field string) (ir.Position, ir.ValidationErrors) {
	if p == nil {
		return ir.Position{}, ir.ValidationErrors{{Field: field, Message: "position is required"}}
	}
	var errs ir.ValidationErrors
	for _, c := range []struct {
		name string
		val  *float64
	}{{"x", p.X}, {"y", p.Y}, {"z", p.Z}} {
		if c.val == nil {
			errs = append(errs, ir.ValidationError{Field: field + "." + c.name, Message: "coordinate is required"})
		}
	}
	if len(errs) > 0 {
		return ir.Position{}, errs
	}
	return ir.Position{X: *p.X, Y: *p.Y, Z: *p.Z}, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(source string, err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &LoadError{Source: source, Message: err.Error(), Err: err}
	}

	// Return first error with position info
	first := errs[0]
	le := &LoadError{Source: source, Message: first.Error(), Err: err}
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		le.Pos = positions[0]
	}
	return le
}
