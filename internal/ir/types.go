package ir

// DefaultEndEffector is used when an action does not name a hand or gripper.
const DefaultEndEffector = "right hand"

// DefaultObjectConfidence is the detection confidence assumed when none is given.
const DefaultObjectConfidence = 1.0

// Position represents a point in 3D space, in meters.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// DetectedObject is one perceived item in a scene.
type DetectedObject struct {
	Name       string   `json:"name"`        // Object identifier, e.g. "red_block"
	ObjectType string   `json:"object_type"` // Category, e.g. "block", "cup"
	Position   Position `json:"position"`
	Confidence float64  `json:"confidence"` // [0, 1]
}

// Scene is a snapshot of detected objects, in detection order.
type Scene struct {
	Objects     []DetectedObject `json:"objects"`
	Description string           `json:"description,omitempty"`
}

// Command is the caller's instruction plus the identifier used to select a scene.
type Command struct {
	Text      string `json:"text"`
	ImagePath string `json:"image_path,omitempty"` // Scene identifier, conventionally a file name
}

// ActionType is the closed set of robot action kinds.
type ActionType string

const (
	ActionMoveTo  ActionType = "move to"
	ActionGrasp   ActionType = "grasp"
	ActionRelease ActionType = "release"
	ActionLookAt  ActionType = "look_at"
)

// ActionTypes lists every valid ActionType in declaration order.
var ActionTypes = []ActionType{ActionMoveTo, ActionGrasp, ActionRelease, ActionLookAt}

// RobotAction is a single step for the robot to perform.
type RobotAction struct {
	Type        ActionType `json:"type"`
	Target      string     `json:"target"`             // Object acted upon
	EndEffector string     `json:"end_effector"`       // Which hand or gripper
	Position    *Position  `json:"position,omitempty"` // Explicit target position, if needed
	Parameters  Params     `json:"parameters"`         // Action-specific extensions (e.g. grasp force)
}

// ActionPlan is an ordered sequence of actions with an overall confidence.
// Actions execute strictly in slice order.
type ActionPlan struct {
	Actions    []RobotAction `json:"actions"`
	Confidence float64       `json:"confidence"` // [0, 1]
	Reasoning  string        `json:"reasoning,omitempty"`
}

// Object returns the first object in the scene with the given name.
func (s Scene) Object(name string) (DetectedObject, bool) {
	for _, obj := range s.Objects {
		if obj.Name == name {
			return obj, true
		}
	}
	return DetectedObject{}, false
}

// ObjectNames returns object names in scene order.
func (s Scene) ObjectNames() []string {
	names := make([]string, len(s.Objects))
	for i, obj := range s.Objects {
		names[i] = obj.Name
	}
	return names
}

// Clone returns a deep copy of the scene. The copy always has a non-nil
// Objects slice so it serializes as [] rather than null.
func (s Scene) Clone() Scene {
	out := Scene{
		Objects:     make([]DetectedObject, len(s.Objects)),
		Description: s.Description,
	}
	copy(out.Objects, s.Objects)
	return out
}

// Targets returns the action targets in execution order.
func (p ActionPlan) Targets() []string {
	targets := make([]string, len(p.Actions))
	for i, a := range p.Actions {
		targets[i] = a.Target
	}
	return targets
}
