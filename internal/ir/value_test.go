package ir

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	var _ Value = Null{}
	var _ Value = String("test")
	var _ Value = Int(42)
	var _ Value = Float(0.5)
	var _ Value = Bool(true)
	var _ Value = List{String("a"), Int(1)}
	var _ Value = Params{"key": String("value")}
}

func TestParamsSortedKeys(t *testing.T) {
	obj := Params{
		"zebra":  String("z"),
		"apple":  String("a"),
		"banana": String("b"),
	}
	assert.Equal(t, []string{"apple", "banana", "zebra"}, obj.SortedKeys())
}

func TestParamsSortedKeysUTF16Order(t *testing.T) {
	// U+FF61 sorts after U+1F600 in UTF-8 byte order but before it in UTF-16
	// code units (the emoji encodes as a D83D surrogate).
	obj := Params{
		"\U0001F600": Int(1),
		"\uff61":     Int(2),
	}
	assert.Equal(t, []string{"\U0001F600", "\uff61"}, obj.SortedKeys())
}

func TestParamsNumbersKeepTheirType(t *testing.T) {
	var params Params
	require.NoError(t, json.Unmarshal([]byte(`{"force": 0.5, "count": 3, "scale": 2.0, "tiny": 1e-3}`), &params))

	assert.Equal(t, Float(0.5), params["force"])
	assert.Equal(t, Int(3), params["count"])
	assert.Equal(t, Float(2), params["scale"])
	assert.Equal(t, Float(0.001), params["tiny"])

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.Equal(t, `{"count":3,"force":0.5,"scale":2.0,"tiny":0.001}`, string(data))

	var again Params
	require.NoError(t, json.Unmarshal(data, &again))
	assert.Equal(t, params, again)
}

func TestParamsNested(t *testing.T) {
	input := `{"grip":{"fingers":["thumb","index"],"closed":false},"note":null}`
	var params Params
	require.NoError(t, json.Unmarshal([]byte(input), &params))

	grip, ok := params["grip"].(Params)
	require.True(t, ok)
	assert.Equal(t, List{String("thumb"), String("index")}, grip["fingers"])
	assert.Equal(t, Bool(false), grip["closed"])
	assert.Equal(t, Null{}, params["note"])

	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.JSONEq(t, input, string(data))
}

func TestNilParamsMarshalsEmptyObject(t *testing.T) {
	var params Params
	data, err := json.Marshal(params)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
}

func TestFloatRejectsNonFinite(t *testing.T) {
	_, err := MarshalValue(Float(math.NaN()))
	require.Error(t, err)

	_, err = ToValue(math.Inf(-1))
	require.Error(t, err)
}

func TestToValue(t *testing.T) {
	v, err := ToValue(map[string]any{
		"force": 0.5,
		"count": 3,
		"tags":  []any{"a", true, nil},
	})
	require.NoError(t, err)

	assert.Equal(t, Params{
		"force": Float(0.5),
		"count": Int(3),
		"tags":  List{String("a"), Bool(true), Null{}},
	}, v)

	_, err = ToValue(struct{}{})
	require.Error(t, err)
}

func TestNewParams(t *testing.T) {
	params := NewParams(P("force", Float(0.5)), P("speed", String("slow")))
	assert.Len(t, params, 2)
	assert.Equal(t, String("slow"), params["speed"])
}
