package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlan(t *testing.T) ActionPlan {
	t.Helper()

	moveTo, err := NewRobotAction("move to", "red_block", WithPosition(Position{X: 0.3, Y: 0.2, Z: 0.0}))
	require.NoError(t, err)
	grasp, err := NewRobotAction("grasp", "red_block", WithParams(NewParams(
		P("force", Float(0.5)),
		P("attempts", Int(2)),
		P("mode", String("pinch")),
		P("careful", Bool(true)),
		P("offsets", List{Float(1), Int(0), Null{}}),
		P("limits", Params{"max": Float(2.25)}),
	)))
	require.NoError(t, err)
	release, err := NewRobotAction("release", "red_block", WithEndEffector("left hand"))
	require.NoError(t, err)

	plan, err := NewActionPlan([]RobotAction{moveTo, grasp, release}, 0.9, "red_block is the only block")
	require.NoError(t, err)
	return plan
}

// edgePlan holds values that once decoded differently from how they were
// built: nil parameters, nil list elements and empty strings.
func edgePlan(t *testing.T) ActionPlan {
	t.Helper()

	nilList, err := NewRobotAction("grasp", "red_block", WithParams(Params{"l": List{nil}, "m": Params{"k": nil}}))
	require.NoError(t, err)
	look, err := NewRobotAction("look_at", "", WithEndEffector(""), WithPosition(Position{X: 0.4, Z: 0.3}))
	require.NoError(t, err)
	bare := RobotAction{Type: ActionRelease, Target: "red_block", EndEffector: DefaultEndEffector}

	plan, err := NewActionPlan([]RobotAction{nilList, look, bare}, 0.5, "")
	require.NoError(t, err)
	return plan
}

func TestActionPlanRoundTripCompact(t *testing.T) {
	for name, plan := range map[string]ActionPlan{"sample": samplePlan(t), "edge": edgePlan(t)} {
		t.Run(name, func(t *testing.T) {
			require.Empty(t, plan.Validate())

			data, err := json.Marshal(plan)
			require.NoError(t, err)

			var decoded ActionPlan
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, plan, decoded)
		})
	}
}

func TestActionPlanRoundTripIndented(t *testing.T) {
	for name, plan := range map[string]ActionPlan{"sample": samplePlan(t), "edge": edgePlan(t)} {
		t.Run(name, func(t *testing.T) {
			data, err := json.MarshalIndent(plan, "", "  ")
			require.NoError(t, err)
			assert.Contains(t, string(data), "\n  \"actions\"")

			var decoded ActionPlan
			require.NoError(t, json.Unmarshal(data, &decoded))
			assert.Equal(t, plan, decoded)
		})
	}
}

func TestEdgePlanNormalized(t *testing.T) {
	plan := edgePlan(t)
	assert.Equal(t, Params{"l": List{Null{}}, "m": Params{"k": Null{}}}, plan.Actions[0].Parameters)
	assert.Equal(t, Params{}, plan.Actions[2].Parameters)
}

func TestCompactAndIndentedAreSameValue(t *testing.T) {
	plan := samplePlan(t)

	compact, err := json.Marshal(plan)
	require.NoError(t, err)
	indented, err := json.MarshalIndent(plan, "", "    ")
	require.NoError(t, err)

	assert.JSONEq(t, string(compact), string(indented))
	assert.Equal(t, MustPlanHash(plan), func() string {
		var p ActionPlan
		require.NoError(t, json.Unmarshal(indented, &p))
		return MustPlanHash(p)
	}())
}

func TestActionPlanUnmarshalDefaults(t *testing.T) {
	var plan ActionPlan
	err := json.Unmarshal([]byte(`{
		"actions": [{"type": "grasp", "target": "red_block"}],
		"confidence": 1
	}`), &plan)
	require.NoError(t, err)

	require.Len(t, plan.Actions, 1)
	assert.Equal(t, DefaultEndEffector, plan.Actions[0].EndEffector)
	assert.Equal(t, Params{}, plan.Actions[0].Parameters)
	assert.Nil(t, plan.Actions[0].Position)
	assert.Empty(t, plan.Reasoning)
}

func TestActionPlanUnmarshalNulls(t *testing.T) {
	var plan ActionPlan
	err := json.Unmarshal([]byte(`{
		"actions": [{"type": "look_at", "target": "yellow_ball", "position": null, "parameters": null}],
		"confidence": 0.7,
		"reasoning": null
	}`), &plan)
	require.NoError(t, err)

	assert.Nil(t, plan.Actions[0].Position)
	assert.Equal(t, Params{}, plan.Actions[0].Parameters)
}

func TestActionPlanUnmarshalRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"missing actions", `{"confidence": 0.5}`, "actions"},
		{"null actions", `{"actions": null, "confidence": 0.5}`, "actions"},
		{"missing confidence", `{"actions": []}`, "confidence"},
		{"confidence too high", `{"actions": [], "confidence": 1.2}`, "confidence"},
		{"confidence negative", `{"actions": [], "confidence": -0.1}`, "confidence"},
		{"disallowed type", `{"actions": [{"type": "throw", "target": "red_apple"}], "confidence": 0.5}`, "actions[0].type"},
		{"missing type", `{"actions": [{"target": "red_apple"}], "confidence": 0.5}`, "actions[0].type"},
		{"missing target", `{"actions": [{"type": "grasp"}], "confidence": 0.5}`, "actions[0].target"},
		{"partial position", `{"actions": [{"type": "move to", "target": "x", "position": {"x": 1}}], "confidence": 0.5}`, "actions[0].position.y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var plan ActionPlan
			err := json.Unmarshal([]byte(tt.input), &plan)
			require.Error(t, err)

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, tt.field, verrs[0].Field)
		})
	}
}

func TestActionPlanUnmarshalWrongTypes(t *testing.T) {
	var plan ActionPlan
	err := json.Unmarshal([]byte(`{"actions": "none", "confidence": 0.5}`), &plan)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"actions": [], "confidence": "high"}`), &plan)
	require.Error(t, err)
}

func TestDetectedObjectUnmarshalDefaultConfidence(t *testing.T) {
	var obj DetectedObject
	err := json.Unmarshal([]byte(`{"name": "red_block", "object_type": "block", "position": {"x": 0.3, "y": 0.2, "z": 0}}`), &obj)
	require.NoError(t, err)
	assert.Equal(t, 1.0, obj.Confidence)

	err = json.Unmarshal([]byte(`{"name": "red_block", "object_type": "block", "position": {"x": 0, "y": 0, "z": 0}, "confidence": 3}`), &obj)
	require.Error(t, err)

	err = json.Unmarshal([]byte(`{"name": "red_block", "object_type": "block"}`), &obj)
	require.Error(t, err)
}

func TestSceneRoundTrip(t *testing.T) {
	scene, err := NewScene("Table with red and blue blocks",
		DetectedObject{Name: "red_block", ObjectType: "block", Position: Position{X: 0.5, Y: 0.2}, Confidence: 0.95},
		DetectedObject{Name: "blue_block", ObjectType: "block", Position: Position{X: 0.3, Y: 0.1}, Confidence: 0.92},
	)
	require.NoError(t, err)

	data, err := json.Marshal(scene)
	require.NoError(t, err)

	var decoded Scene
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, scene, decoded)
}

func TestCommandUnmarshal(t *testing.T) {
	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(`{"text": "look at the yellow ball", "image_path": null}`), &cmd))
	assert.Equal(t, "look at the yellow ball", cmd.Text)
	assert.Empty(t, cmd.ImagePath)

	require.Error(t, json.Unmarshal([]byte(`{"text": ""}`), &cmd))
}
