package planner

import (
	"fmt"

	"github.com/roach88/roboplan/internal/ir"
)

// CheckGrounding reports actions whose target is not an object in the
// scene. "move to" and "look_at" may name an unknown target when they
// carry an explicit position; "grasp" and "release" never may.
//
// The check is advisory unless the planner was built with
// WithStrictGrounding.
func CheckGrounding(plan ir.ActionPlan, s ir.Scene) ir.ValidationErrors {
	var findings ir.ValidationErrors
	for i, a := range plan.Actions {
		if _, ok := s.Object(a.Target); ok {
			continue
		}
		positional := a.Type == ir.ActionMoveTo || a.Type == ir.ActionLookAt
		if positional && a.Position != nil {
			continue
		}
		findings = append(findings, ir.ValidationError{
			Field:   fmt.Sprintf("actions[%d].target", i),
			Message: fmt.Sprintf("target %q is not an object in the scene", a.Target),
		})
	}
	return findings
}
