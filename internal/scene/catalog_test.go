package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/roboplan/internal/ir"
)

func testScene(t *testing.T, description string, names ...string) ir.Scene {
	t.Helper()
	objects := make([]ir.DetectedObject, len(names))
	for i, name := range names {
		objects[i] = ir.DetectedObject{
			Name:       name,
			ObjectType: "block",
			Position:   ir.Position{X: float64(i) * 0.1},
			Confidence: 0.9,
		}
	}
	s, err := ir.NewScene(description, objects...)
	require.NoError(t, err)
	return s
}

func TestNewCatalog(t *testing.T) {
	c, err := NewCatalog("home",
		Entry{Key: "alpha", Scene: testScene(t, "A", "cube")},
		Entry{Key: "home", Scene: testScene(t, "H", "ball")},
	)
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "home"}, c.Keys())
	assert.Equal(t, "home", c.DefaultKey())
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, "H", c.Default().Description)

	s, ok := c.Lookup("alpha")
	require.True(t, ok)
	assert.Equal(t, "cube", s.Objects[0].Name)

	_, ok = c.Lookup("ALPHA")
	assert.False(t, ok, "lookup is case-sensitive")
}

func TestNewCatalogRejects(t *testing.T) {
	valid := testScene(t, "", "cube")

	tests := []struct {
		name       string
		defaultKey string
		entries    []Entry
		field      string
	}{
		{
			name:       "missing default",
			defaultKey: "default",
			entries:    []Entry{{Key: "scene1", Scene: valid}},
			field:      "default",
		},
		{
			name:       "duplicate key",
			defaultKey: "scene1",
			entries:    []Entry{{Key: "scene1", Scene: valid}, {Key: "scene1", Scene: valid}},
			field:      "scenes[1].key",
		},
		{
			name:       "empty key",
			defaultKey: "scene1",
			entries:    []Entry{{Key: "scene1", Scene: valid}, {Key: " ", Scene: valid}},
			field:      "scenes[1].key",
		},
		{
			name:       "path separator in key",
			defaultKey: "scene1",
			entries:    []Entry{{Key: "scene1", Scene: valid}, {Key: "a/b", Scene: valid}},
			field:      "scenes[1].key",
		},
		{
			name:       "invalid object",
			defaultKey: "scene1",
			entries: []Entry{{Key: "scene1", Scene: ir.Scene{Objects: []ir.DetectedObject{
				{Name: "cube", Confidence: 1.5},
			}}}},
			field: "scenes[0].objects[0].confidence",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewCatalog(tt.defaultKey, tt.entries...)
			require.Error(t, err)

			var verrs ir.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestCatalogIsolation(t *testing.T) {
	original := testScene(t, "", "cube")
	c, err := NewCatalog("home", Entry{Key: "home", Scene: original})
	require.NoError(t, err)

	// Mutating the input after construction does not reach the catalog
	original.Objects[0].Name = "mutated"
	s, _ := c.Lookup("home")
	assert.Equal(t, "cube", s.Objects[0].Name)

	// Mutating a lookup result does not reach the catalog either
	s.Objects[0].Name = "mutated again"
	assert.Equal(t, "cube", c.Default().Objects[0].Name)

	keys := c.Keys()
	keys[0] = "changed"
	assert.Equal(t, []string{"home"}, c.Keys())
}
