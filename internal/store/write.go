package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/roboplan/internal/ir"
)

// WritePlan appends a plan record and returns its assigned seq.
//
// The record's Seq field is ignored; the store assigns MAX(seq)+1 inside
// the insert transaction. Writing an id that already exists is a no-op
// that returns the existing row's seq, so retried writes are idempotent.
// The record must carry a plan that passes validation and a PlanHash that
// matches it.
func (s *Store) WritePlan(ctx context.Context, rec ir.PlanRecord) (int64, error) {
	if rec.ID == "" {
		return 0, fmt.Errorf("write plan: id is required")
	}
	if errs := rec.Plan.Validate(); len(errs) > 0 {
		return 0, fmt.Errorf("write plan: %w", errs)
	}
	planHash, err := ir.PlanHash(rec.Plan)
	if err != nil {
		return 0, fmt.Errorf("write plan: %w", err)
	}
	if rec.PlanHash != planHash {
		return 0, fmt.Errorf("write plan: plan_hash %q does not match plan content (%s)", rec.PlanHash, planHash)
	}
	planJSON, err := marshalPlan(rec.Plan)
	if err != nil {
		return 0, fmt.Errorf("write plan: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("write plan: begin: %w", err)
	}
	defer tx.Rollback()

	var existing int64
	err = tx.QueryRowContext(ctx, "SELECT seq FROM plans WHERE id = ?", rec.ID).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return 0, fmt.Errorf("write plan: lookup id: %w", err)
	}

	var seq int64
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) + 1 FROM plans").Scan(&seq); err != nil {
		return 0, fmt.Errorf("write plan: next seq: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO plans
		(id, seq, command_text, image_path, scene_key, scene_hash, plan_hash, plan, confidence, action_count, model, schema_version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		seq,
		rec.Command.Text,
		rec.Command.ImagePath,
		rec.SceneKey,
		rec.SceneHash,
		rec.PlanHash,
		planJSON,
		rec.Plan.Confidence,
		len(rec.Plan.Actions),
		rec.Model,
		rec.SchemaVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("write plan: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("write plan: commit: %w", err)
	}
	return seq, nil
}
