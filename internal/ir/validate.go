package ir

import (
	"fmt"
	"math"
	"strings"
)

// ValidationError represents a validation error with field path and message.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in a value.
// Validation is not fail-fast so callers see all issues at once.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	switch len(errs) {
	case 0:
		return "no validation errors"
	case 1:
		return "invalid value: " + errs[0].Error()
	}
	parts := make([]string, len(errs))
	for i, e := range errs {
		parts[i] = e.Error()
	}
	return fmt.Sprintf("invalid value (%d errors): %s", len(errs), strings.Join(parts, "; "))
}

// prefixed returns a copy of errs with each Field nested under prefix.
func (errs ValidationErrors) prefixed(prefix string) ValidationErrors {
	out := make(ValidationErrors, len(errs))
	for i, e := range errs {
		out[i] = ValidationError{Field: prefix + "." + e.Field, Message: e.Message}
	}
	return out
}

// IsValid reports whether t is one of the enumerated action types.
func (t ActionType) IsValid() bool {
	for _, valid := range ActionTypes {
		if t == valid {
			return true
		}
	}
	return false
}

// ParseActionType converts a string into an ActionType, rejecting values
// outside the closed enumeration.
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.IsValid() {
		return "", ValidationError{Field: "type", Message: invalidTypeMessage(s)}
	}
	return t, nil
}

func invalidTypeMessage(s string) string {
	quoted := make([]string, len(ActionTypes))
	for i, t := range ActionTypes {
		quoted[i] = fmt.Sprintf("%q", string(t))
	}
	return fmt.Sprintf("invalid action type %q, must be one of: %s", s, strings.Join(quoted, ", "))
}

func validateConfidence(field string, c float64) ValidationErrors {
	if math.IsNaN(c) || c < 0 || c > 1 {
		return ValidationErrors{{
			Field:   field,
			Message: fmt.Sprintf("confidence %v out of range, must be within [0, 1]", c),
		}}
	}
	return nil
}

// Validate checks a DetectedObject against the schema rules.
func (o DetectedObject) Validate() ValidationErrors {
	var errs ValidationErrors
	if strings.TrimSpace(o.Name) == "" {
		errs = append(errs, ValidationError{Field: "name", Message: "name is required and must be non-empty"})
	}
	errs = append(errs, validateConfidence("confidence", o.Confidence)...)
	return errs
}

// Validate checks every object in the scene.
func (s Scene) Validate() ValidationErrors {
	var errs ValidationErrors
	for i, obj := range s.Objects {
		errs = append(errs, obj.Validate().prefixed(fmt.Sprintf("objects[%d]", i))...)
	}
	return errs
}

// Validate checks a Command.
func (c Command) Validate() ValidationErrors {
	if strings.TrimSpace(c.Text) == "" {
		return ValidationErrors{{Field: "text", Message: "command text is required and must be non-empty"}}
	}
	return nil
}

// Validate checks a RobotAction against the schema rules. Target and
// end effector are free-form strings and may be empty, e.g. a look_at
// that carries only a position. Parameters must be non-nil and hold no
// nil Values, so the action survives a JSON round trip unchanged.
func (a RobotAction) Validate() ValidationErrors {
	var errs ValidationErrors
	if !a.Type.IsValid() {
		errs = append(errs, ValidationError{Field: "type", Message: invalidTypeMessage(string(a.Type))})
	}
	if a.Parameters == nil {
		errs = append(errs, ValidationError{Field: "parameters", Message: "parameters is required (use an empty map for no parameters)"})
	}
	errs = append(errs, validateParams("parameters", a.Parameters)...)
	return errs
}

// validateParams reports nil Values anywhere inside params. Use Null{}
// for an explicit JSON null.
func validateParams(field string, params Params) ValidationErrors {
	var errs ValidationErrors
	for _, k := range params.SortedKeys() {
		errs = append(errs, validateValue(fmt.Sprintf("%s[%q]", field, k), params[k])...)
	}
	return errs
}

func validateValue(field string, v Value) ValidationErrors {
	switch v := v.(type) {
	case nil:
		return ValidationErrors{{Field: field, Message: "nil value (use Null{} for null)"}}
	case List:
		if v == nil {
			return ValidationErrors{{Field: field, Message: "nil list (use an empty List)"}}
		}
		var errs ValidationErrors
		for i, elem := range v {
			errs = append(errs, validateValue(fmt.Sprintf("%s[%d]", field, i), elem)...)
		}
		return errs
	case Params:
		if v == nil {
			return ValidationErrors{{Field: field, Message: "nil map (use an empty Params)"}}
		}
		return validateParams(field, v)
	}
	return nil
}

// normalizeValue returns a deep copy of v with nil Values replaced by
// Null{} and nil containers by empty ones.
func normalizeValue(v Value) Value {
	switch v := v.(type) {
	case nil:
		return Null{}
	case List:
		out := make(List, len(v))
		for i, elem := range v {
			out[i] = normalizeValue(elem)
		}
		return out
	case Params:
		return normalizeParams(v)
	}
	return v
}

func normalizeParams(params Params) Params {
	out := make(Params, len(params))
	for k, v := range params {
		out[k] = normalizeValue(v)
	}
	return out
}

// Validate checks an ActionPlan and all of its actions.
func (p ActionPlan) Validate() ValidationErrors {
	var errs ValidationErrors
	if p.Actions == nil {
		errs = append(errs, ValidationError{Field: "actions", Message: "actions is required (use an empty list for a no-op plan)"})
	}
	for i, a := range p.Actions {
		errs = append(errs, a.Validate().prefixed(fmt.Sprintf("actions[%d]", i))...)
	}
	errs = append(errs, validateConfidence("confidence", p.Confidence)...)
	return errs
}

// NewDetectedObject creates a validated DetectedObject.
func NewDetectedObject(name, objectType string, pos Position, confidence float64) (DetectedObject, error) {
	obj := DetectedObject{
		Name:       name,
		ObjectType: objectType,
		Position:   pos,
		Confidence: confidence,
	}
	if errs := obj.Validate(); len(errs) > 0 {
		return DetectedObject{}, errs
	}
	return obj, nil
}

// NewScene creates a validated Scene. The objects slice is copied.
func NewScene(description string, objects ...DetectedObject) (Scene, error) {
	s := Scene{Objects: objects, Description: description}.Clone()
	if errs := s.Validate(); len(errs) > 0 {
		return Scene{}, errs
	}
	return s, nil
}

// NewCommand creates a validated Command. imagePath may be empty.
func NewCommand(text, imagePath string) (Command, error) {
	c := Command{Text: text, ImagePath: imagePath}
	if errs := c.Validate(); len(errs) > 0 {
		return Command{}, errs
	}
	return c, nil
}

// ActionOption configures optional RobotAction fields.
type ActionOption func(*RobotAction)

// WithEndEffector overrides the default "right hand" end effector.
func WithEndEffector(name string) ActionOption {
	return func(a *RobotAction) {
		a.EndEffector = name
	}
}

// WithPosition sets an explicit target position.
func WithPosition(pos Position) ActionOption {
	return func(a *RobotAction) {
		p := pos
		a.Position = &p
	}
}

// WithParams sets the action parameters. The map is deep-copied and nil
// Values inside it become Null{}.
func WithParams(params Params) ActionOption {
	return func(a *RobotAction) {
		a.Parameters = normalizeParams(params)
	}
}

// NewRobotAction creates a validated RobotAction. The type string must be
// one of the enumerated ActionTypes.
func NewRobotAction(actionType, target string, opts ...ActionOption) (RobotAction, error) {
	a := RobotAction{
		Type:        ActionType(actionType),
		Target:      target,
		EndEffector: DefaultEndEffector,
		Parameters:  Params{},
	}
	for _, opt := range opts {
		opt(&a)
	}
	if errs := a.Validate(); len(errs) > 0 {
		return RobotAction{}, errs
	}
	return a, nil
}

// NewActionPlan creates a validated ActionPlan. A nil actions slice is
// normalized to an empty one: an empty plan is a valid no-op. Each action's
// parameters are normalized as WithParams does.
func NewActionPlan(actions []RobotAction, confidence float64, reasoning string) (ActionPlan, error) {
	if actions == nil {
		actions = []RobotAction{}
	}
	p := ActionPlan{
		Actions:    make([]RobotAction, len(actions)),
		Confidence: confidence,
		Reasoning:  reasoning,
	}
	for i, a := range actions {
		a.Parameters = normalizeParams(a.Parameters)
		p.Actions[i] = a
	}
	if errs := p.Validate(); len(errs) > 0 {
		return ActionPlan{}, errs
	}
	return p, nil
}
