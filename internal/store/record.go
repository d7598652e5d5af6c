package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/roach88/roboplan/internal/ir"
)

// NewPlanRecord assembles a record for a completed planning request,
// computing the scene and plan hashes. Seq is left zero; WritePlan
// assigns it.
func NewPlanRecord(id string, cmd ir.Command, sceneKey string, scene ir.Scene, plan ir.ActionPlan, model string) (ir.PlanRecord, error) {
	sceneHash, err := ir.SceneHash(scene)
	if err != nil {
		return ir.PlanRecord{}, fmt.Errorf("new plan record: %w", err)
	}
	planHash, err := ir.PlanHash(plan)
	if err != nil {
		return ir.PlanRecord{}, fmt.Errorf("new plan record: %w", err)
	}
	return ir.PlanRecord{
		ID:            id,
		Command:       cmd,
		SceneKey:      sceneKey,
		SceneHash:     sceneHash,
		PlanHash:      planHash,
		Plan:          plan,
		Model:         model,
		SchemaVersion: ir.SchemaVersion,
	}, nil
}

// marshalPlan converts a plan to canonical JSON TEXT for storage.
func marshalPlan(plan ir.ActionPlan) (string, error) {
	data, err := ir.MarshalCanonical(plan)
	if err != nil {
		return "", fmt.Errorf("marshal plan: %w", err)
	}
	return string(data), nil
}

// unmarshalPlan decodes stored plan JSON through the ir validators.
func unmarshalPlan(text string) (ir.ActionPlan, error) {
	var plan ir.ActionPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return ir.ActionPlan{}, fmt.Errorf("unmarshal plan: %w", err)
	}
	return plan, nil
}

// Record builds a record from a completed request and writes it,
// returning the record with its assigned seq.
func (s *Store) Record(ctx context.Context, id string, cmd ir.Command, sceneKey string, scene ir.Scene, plan ir.ActionPlan, model string) (ir.PlanRecord, error) {
	rec, err := NewPlanRecord(id, cmd, sceneKey, scene, plan, model)
	if err != nil {
		return ir.PlanRecord{}, err
	}
	seq, err := s.WritePlan(ctx, rec)
	if err != nil {
		return ir.PlanRecord{}, err
	}
	rec.Seq = seq
	return rec, nil
}
