package ir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Decoding goes through the same validation as the constructors: a value
// that fails validation is never returned to the caller. Missing required
// fields are reported as ValidationErrors, not silently zeroed.

// UnmarshalJSON implements json.Unmarshaler for Position. All three
// coordinates are required.
func (p *Position) UnmarshalJSON(data []byte) error {
	var raw struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
		Z *float64 `json:"z"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("position: %w", err)
	}

	var errs ValidationErrors
	for _, f := range []struct {
		name string
		val  *float64
	}{{"x", raw.X}, {"y", raw.Y}, {"z", raw.Z}} {
		if f.val == nil {
			errs = append(errs, ValidationError{Field: "position." + f.name, Message: "coordinate is required"})
		}
	}
	if len(errs) > 0 {
		return errs
	}

	*p = Position{X: *raw.X, Y: *raw.Y, Z: *raw.Z}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for DetectedObject.
// A missing confidence defaults to DefaultObjectConfidence.
func (o *DetectedObject) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name       string    `json:"name"`
		ObjectType string    `json:"object_type"`
		Position   *Position `json:"position"`
		Confidence *float64  `json:"confidence"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Position == nil {
		return ValidationErrors{{Field: "position", Message: "position is required"}}
	}

	confidence := DefaultObjectConfidence
	if raw.Confidence != nil {
		confidence = *raw.Confidence
	}
	obj, err := NewDetectedObject(raw.Name, raw.ObjectType, *raw.Position, confidence)
	if err != nil {
		return err
	}
	*o = obj
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Scene.
func (s *Scene) UnmarshalJSON(data []byte) error {
	var raw struct {
		Objects     []DetectedObject `json:"objects"`
		Description *string          `json:"description"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	desc := ""
	if raw.Description != nil {
		desc = *raw.Description
	}
	scene, err := NewScene(desc, raw.Objects...)
	if err != nil {
		return err
	}
	*s = scene
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for Command.
func (c *Command) UnmarshalJSON(data []byte) error {
	var raw struct {
		Text      string  `json:"text"`
		ImagePath *string `json:"image_path"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	path := ""
	if raw.ImagePath != nil {
		path = *raw.ImagePath
	}
	cmd, err := NewCommand(raw.Text, path)
	if err != nil {
		return err
	}
	*c = cmd
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for RobotAction.
// type and target are required; end_effector defaults to "right hand";
// position and parameters may be absent or null.
func (a *RobotAction) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        *string   `json:"type"`
		Target      *string   `json:"target"`
		EndEffector *string   `json:"end_effector"`
		Position    *Position `json:"position"`
		Parameters  Params    `json:"parameters"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var errs ValidationErrors
	if raw.Type == nil {
		errs = append(errs, ValidationError{Field: "type", Message: "type is required"})
	}
	if raw.Target == nil {
		errs = append(errs, ValidationError{Field: "target", Message: "target is required"})
	}
	if len(errs) > 0 {
		return errs
	}

	var opts []ActionOption
	if raw.EndEffector != nil {
		opts = append(opts, WithEndEffector(*raw.EndEffector))
	}
	if raw.Position != nil {
		opts = append(opts, WithPosition(*raw.Position))
	}
	if raw.Parameters != nil {
		opts = append(opts, WithParams(raw.Parameters))
	}

	action, err := NewRobotAction(*raw.Type, *raw.Target, opts...)
	if err != nil {
		return err
	}
	*a = action
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for ActionPlan.
// actions and confidence are required; an explicit empty actions list is valid.
func (p *ActionPlan) UnmarshalJSON(data []byte) error {
	var raw struct {
		Actions    *[]json.RawMessage `json:"actions"`
		Confidence *float64           `json:"confidence"`
		Reasoning  *string            `json:"reasoning"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var errs ValidationErrors
	if raw.Actions == nil {
		errs = append(errs, ValidationError{Field: "actions", Message: "actions is required"})
	}
	if raw.Confidence == nil {
		errs = append(errs, ValidationError{Field: "confidence", Message: "confidence is required"})
	}
	if len(errs) > 0 {
		return errs
	}

	actions := make([]RobotAction, len(*raw.Actions))
	for i, rawAction := range *raw.Actions {
		if err := json.Unmarshal(rawAction, &actions[i]); err != nil {
			var verrs ValidationErrors
			if errors.As(err, &verrs) {
				return verrs.prefixed(fmt.Sprintf("actions[%d]", i))
			}
			return fmt.Errorf("actions[%d]: %w", i, err)
		}
	}

	reasoning := ""
	if raw.Reasoning != nil {
		reasoning = *raw.Reasoning
	}
	plan, err := NewActionPlan(actions, *raw.Confidence, reasoning)
	if err != nil {
		return err
	}
	*p = plan
	return nil
}
