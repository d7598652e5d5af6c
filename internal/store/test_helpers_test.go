package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/roboplan/internal/ir"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testScene() ir.Scene {
	return ir.Scene{
		Objects: []ir.DetectedObject{
			{Name: "red_block", ObjectType: "block", Position: ir.Position{X: 0.3, Y: 0.2, Z: 0.1}, Confidence: 0.95},
			{Name: "blue_block", ObjectType: "block", Position: ir.Position{X: 0.5, Y: 0.2, Z: 0.1}, Confidence: 0.93},
		},
		Description: "two blocks",
	}
}

func testPlan(target string, confidence float64) ir.ActionPlan {
	return ir.ActionPlan{
		Actions: []ir.RobotAction{
			{Type: ir.ActionMoveTo, Target: target, EndEffector: ir.DefaultEndEffector, Parameters: ir.Params{}},
			{
				Type:        ir.ActionGrasp,
				Target:      target,
				EndEffector: ir.DefaultEndEffector,
				Parameters:  ir.Params{"force": ir.Float(0.3), "retries": ir.Int(2)},
			},
		},
		Confidence: confidence,
		Reasoning:  "pick up " + target,
	}
}

// createTestRecord creates a record with valid hashes.
func createTestRecord(t *testing.T, id, text, target string) ir.PlanRecord {
	t.Helper()
	rec, err := NewPlanRecord(id, ir.Command{Text: text, ImagePath: "scene1.jpg"}, "scene1", testScene(), testPlan(target, 0.9), "heuristic")
	if err != nil {
		t.Fatalf("NewPlanRecord() failed: %v", err)
	}
	return rec
}
