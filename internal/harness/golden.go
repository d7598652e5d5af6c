package harness

import (
	"context"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/roboplan/internal/ir"
)

// PlanSnapshot captures the observable outcome of a scenario.
// All fields use canonical JSON serialization for deterministic comparison.
type PlanSnapshot struct {
	ScenarioName string
	SceneKey     string
	Attempts     int
	Plan         *ir.ActionPlan
	ErrorCode    string
}

// NewPlanSnapshot builds a snapshot from a scenario result.
func NewPlanSnapshot(name string, result *Result) PlanSnapshot {
	return PlanSnapshot{
		ScenarioName: name,
		SceneKey:     result.SceneKey,
		Attempts:     result.Attempts,
		Plan:         result.Plan,
		ErrorCode:    result.ErrorCode,
	}
}

// toCanonicalValue converts a PlanSnapshot to an ir.Params for canonical JSON serialization.
func (s PlanSnapshot) toCanonicalValue() ir.Params {
	out := ir.Params{
		"scenario_name": ir.String(s.ScenarioName),
		"scene_key":     ir.String(s.SceneKey),
		"attempts":      ir.Int(s.Attempts),
	}
	if s.Plan != nil {
		out["plan"] = s.Plan.CanonicalValue()
	}
	if s.ErrorCode != "" {
		out["error_code"] = ir.String(s.ErrorCode)
	}
	return out
}

// MarshalCanonical returns the snapshot's canonical JSON.
func (s PlanSnapshot) MarshalCanonical() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalValue())
}

// RunWithGolden executes a scenario and compares its outcome against a golden file.
// The golden file is stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the outcome doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(context.Background(), scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result against a golden file without
// re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := NewPlanSnapshot(scenarioName, result).MarshalCanonical()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)
	return nil
}
