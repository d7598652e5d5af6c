package harness

import (
	"fmt"
	"math"
	"slices"

	"github.com/roach88/roboplan/internal/ir"
	"github.com/roach88/roboplan/internal/planner"
)

// confidenceTolerance absorbs float rounding in YAML-sourced bounds.
const confidenceTolerance = 1e-9

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string
	Expected interface{}
	Actual   interface{}
	Message  string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	if e.Expected == nil && e.Actual == nil {
		return fmt.Sprintf("%s assertion failed: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s assertion failed: %s (expected %v, got %v)", e.Type, e.Message, e.Expected, e.Actual)
}

// EvaluateAssertions evaluates all assertions against a plan and the scene
// it was planned for. Returns a slice of error messages for failed
// assertions.
func EvaluateAssertions(plan ir.ActionPlan, s ir.Scene, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(plan, s, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(plan ir.ActionPlan, s ir.Scene, a Assertion) error {
	switch a.Type {
	case AssertActionTypes:
		return assertActionTypes(plan, a)
	case AssertTargets:
		if got := plan.Targets(); !slices.Equal(got, a.Targets) {
			return &AssertionError{Type: a.Type, Message: "target sequence differs", Expected: a.Targets, Actual: got}
		}
	case AssertActionCount:
		if len(plan.Actions) != *a.Count {
			return &AssertionError{Type: a.Type, Message: "wrong number of actions", Expected: *a.Count, Actual: len(plan.Actions)}
		}
	case AssertContainsTarget:
		if !slices.Contains(plan.Targets(), a.Target) {
			return &AssertionError{Type: a.Type, Message: fmt.Sprintf("no action targets %q", a.Target), Expected: a.Target, Actual: plan.Targets()}
		}
	case AssertConfidence:
		return assertConfidence(plan, a)
	case AssertEndEffector:
		for i, act := range plan.Actions {
			if act.EndEffector != a.EndEffector {
				return &AssertionError{Type: a.Type, Message: fmt.Sprintf("actions[%d] uses another end effector", i), Expected: a.EndEffector, Actual: act.EndEffector}
			}
		}
	case AssertParameter:
		return assertParameter(plan, a)
	case AssertGrounded:
		if findings := planner.CheckGrounding(plan, s); len(findings) > 0 {
			return &AssertionError{Type: a.Type, Message: findings.Error()}
		}
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func assertActionTypes(plan ir.ActionPlan, a Assertion) error {
	got := make([]string, len(plan.Actions))
	for i, act := range plan.Actions {
		got[i] = string(act.Type)
	}
	if !slices.Equal(got, a.Actions) {
		return &AssertionError{Type: a.Type, Message: "action type sequence differs", Expected: a.Actions, Actual: got}
	}
	return nil
}

func assertConfidence(plan ir.ActionPlan, a Assertion) error {
	c := plan.Confidence
	if a.Min != nil && c < *a.Min-confidenceTolerance {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("confidence below %v", *a.Min), Expected: *a.Min, Actual: c}
	}
	if a.Max != nil && c > *a.Max+confidenceTolerance {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("confidence above %v", *a.Max), Expected: *a.Max, Actual: c}
	}
	return nil
}

func assertParameter(plan ir.ActionPlan, a Assertion) error {
	if a.Index >= len(plan.Actions) {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("plan has no actions[%d]", a.Index)}
	}
	actual, ok := plan.Actions[a.Index].Parameters[a.Key]
	if !ok {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("actions[%d] has no parameter %q", a.Index, a.Key)}
	}
	expected, err := ir.ToValue(normalizeYAML(a.Value))
	if err != nil {
		return fmt.Errorf("parameter %q: %w", a.Key, err)
	}
	if !valuesEqual(actual, expected) {
		return &AssertionError{Type: a.Type, Message: fmt.Sprintf("actions[%d].parameters[%q] differs", a.Index, a.Key), Expected: expected, Actual: actual}
	}
	return nil
}

// normalizeYAML converts yaml.v3 decoded values into the shapes ToValue
// accepts.
func normalizeYAML(v interface{}) interface{} {
	switch val := v.(type) {
	case map[string]interface{}:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = normalizeYAML(elem)
		}
		return out
	case []interface{}:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = normalizeYAML(elem)
		}
		return out
	case float32:
		return float64(val)
	case uint64:
		return int64(val)
	}
	return v
}

// valuesEqual compares two parameter values. Numbers compare by value so
// a YAML 1 matches a Float(1.0) parameter.
func valuesEqual(actual, expected ir.Value) bool {
	if af, ok := number(actual); ok {
		ef, ok := number(expected)
		return ok && math.Abs(af-ef) < 1e-9
	}
	switch a := actual.(type) {
	case ir.List:
		e, ok := expected.(ir.List)
		if !ok || len(a) != len(e) {
			return false
		}
		for i := range a {
			if !valuesEqual(a[i], e[i]) {
				return false
			}
		}
		return true
	case ir.Params:
		e, ok := expected.(ir.Params)
		if !ok || len(a) != len(e) {
			return false
		}
		for k, v := range a {
			ev, ok := e[k]
			if !ok || !valuesEqual(v, ev) {
				return false
			}
		}
		return true
	}
	return actual == expected
}

func number(v ir.Value) (float64, bool) {
	switch n := v.(type) {
	case ir.Int:
		return float64(n), true
	case ir.Float:
		return float64(n), true
	}
	return 0, false
}
