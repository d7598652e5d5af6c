package scene

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roboplan/internal/ir"
)

func TestDefaultCatalogValues(t *testing.T) {
	c := DefaultCatalog()
	require.Same(t, c, DefaultCatalog(), "parsed once and shared")

	assert.Equal(t, "default", c.DefaultKey())
	assert.Equal(t, []string{"scene1", "scene2", "scene3", "default"}, c.Keys())

	want := map[string][]ir.DetectedObject{
		"scene1": {
			{Name: "red_block", ObjectType: "block", Position: ir.Position{X: 0.5, Y: 0.2, Z: 0.0}, Confidence: 0.95},
			{Name: "blue_block", ObjectType: "block", Position: ir.Position{X: 0.3, Y: 0.1, Z: 0.0}, Confidence: 0.92},
		},
		"scene2": {
			{Name: "coffee_mug", ObjectType: "cup", Position: ir.Position{X: 0.2, Y: 0.3, Z: 0.0}, Confidence: 0.91},
			{Name: "red_apple", ObjectType: "fruit", Position: ir.Position{X: 0.0, Y: 0.2, Z: 0.0}, Confidence: 0.94},
			{Name: "green_apple", ObjectType: "fruit", Position: ir.Position{X: 0.1, Y: 0.25, Z: 0.0}, Confidence: 0.91},
		},
		"scene3": {
			{Name: "blue_block_base", ObjectType: "block", Position: ir.Position{X: 0.4, Y: 0.15, Z: 0.0}, Confidence: 0.96},
			{Name: "red_block_stacked", ObjectType: "block", Position: ir.Position{X: 0.4, Y: 0.15, Z: 0.05}, Confidence: 0.88},
			{Name: "yellow_ball", ObjectType: "ball", Position: ir.Position{X: -0.2, Y: 0.3, Z: 0.0}, Confidence: 0.93},
		},
		"default": {
			{Name: "red_block", ObjectType: "block", Position: ir.Position{X: 0.3, Y: 0.2, Z: 0.0}, Confidence: 0.90},
		},
	}
	for key, objects := range want {
		s, ok := c.Lookup(key)
		require.True(t, ok, key)
		assert.Equal(t, objects, s.Objects, key)
	}
}

func TestParseCUE(t *testing.T) {
	src := []byte(`
default: "bench"
scenes: [{
	key: "bench"
	objects: [{
		name: "beaker"
		position: {x: 1, y: 2, z: 3}
	}]
}]
`)
	c, err := ParseCUE("bench.cue", src)
	require.NoError(t, err)

	s := c.Default()
	require.Len(t, s.Objects, 1)
	assert.Equal(t, "beaker", s.Objects[0].Name)
	assert.Equal(t, "", s.Objects[0].ObjectType)
	assert.Equal(t, ir.Position{X: 1, Y: 2, Z: 3}, s.Objects[0].Position)
	assert.Equal(t, 1.0, s.Objects[0].Confidence, "confidence defaults to 1.0")
}

func TestParseCUERejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax error", `scenes: [`},
		{"unknown field", `scenes: [{key: "default", objects: [], colour: "red"}]`},
		{"confidence out of range", `scenes: [{key: "default", objects: [{name: "a", position: {x: 0, y: 0, z: 0}, confidence: 1.5}]}]`},
		{"missing coordinate", `scenes: [{key: "default", objects: [{name: "a", position: {x: 0, y: 0}}]}]`},
		{"empty name", `scenes: [{key: "default", objects: [{name: "", position: {x: 0, y: 0, z: 0}}]}]`},
		{"missing default scene", `scenes: [{key: "scene1", objects: []}]`},
		{"duplicate key", `scenes: [{key: "default", objects: []}, {key: "default", objects: []}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCUE("bad.cue", []byte(tt.src))
			require.Error(t, err)
			assert.True(t, IsLoadError(err), "got %T: %v", err, err)
		})
	}
}

func TestParseYAML(t *testing.T) {
	src := []byte(`
scenes:
  - key: default
    description: Empty table
    objects: []
  - key: desk
    description: Desk with a pen
    objects:
      - name: pen
        object_type: tool
        position: {x: 0.1, y: -0.2, z: 0.0}
`)
	c, err := ParseYAML("desk.yaml", src)
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "desk"}, c.Keys())
	assert.Equal(t, "default", c.DefaultKey(), "default key defaults to \"default\"")

	desk, ok := c.Lookup("desk")
	require.True(t, ok)
	assert.Equal(t, "Desk with a pen", desk.Description)
	assert.Equal(t, 1.0, desk.Objects[0].Confidence)
	assert.Equal(t, -0.2, desk.Objects[0].Position.Y)
}

func TestParseYAMLRejects(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"unknown field", "scenes:\n  - key: default\n    objcts: []\n", ""},
		{"missing position", "scenes:\n  - key: default\n    objects:\n      - name: a\n", "scenes[0].objects[0].position"},
		{"missing coordinate", "scenes:\n  - key: default\n    objects:\n      - name: a\n        position: {x: 1, y: 2}\n", "scenes[0].objects[0].position.z"},
		{"bad confidence", "scenes:\n  - key: default\n    objects:\n      - name: a\n        position: {x: 1, y: 2, z: 3}\n        confidence: -1\n", "scenes[0].objects[0].confidence"},
		{"missing default", "default: home\nscenes:\n  - key: default\n    objects: []\n", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseYAML("bad.yaml", []byte(tt.src))
			require.Error(t, err)

			var le *LoadError
			require.ErrorAs(t, err, &le)
			assert.Equal(t, tt.field, le.Field)
			assert.Contains(t, le.Error(), "bad.yaml")
		})
	}
}

func TestLoadCatalogFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "catalog.yml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("scenes:\n  - key: default\n    objects: []\n"), 0o644))
	c, err := LoadCatalogFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"default"}, c.Keys())

	cuePath := filepath.Join(dir, "catalog.cue")
	require.NoError(t, os.WriteFile(cuePath, builtinSource, 0o644))
	c, err = LoadCatalogFile(cuePath)
	require.NoError(t, err)
	assert.Equal(t, DefaultCatalog().Keys(), c.Keys())

	_, err = LoadCatalogFile(filepath.Join(dir, "catalog.json"))
	require.Error(t, err)
	assert.True(t, IsLoadError(err))

	txtPath := filepath.Join(dir, "catalog.txt")
	require.NoError(t, os.WriteFile(txtPath, []byte("x"), 0o644))
	_, err = LoadCatalogFile(txtPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported catalog format")
}

func TestLoadErrorFormat(t *testing.T) {
	err := &LoadError{Source: "a.yaml", Field: "scenes[0].key", Message: "key is required"}
	assert.Equal(t, "a.yaml: scenes[0].key: key is required", err.Error())

	err = &LoadError{Message: "boom"}
	assert.Equal(t, "boom", err.Error())
}
