package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/roboplan/internal/ir"
)

// ErrNotFound is returned when no plan record has the requested id.
var ErrNotFound = errors.New("plan record not found")

const selectColumns = `id, seq, command_text, image_path, scene_key, scene_hash, plan_hash, plan, model, schema_version`

// ReadPlan returns the record with the given id, or ErrNotFound.
func (s *Store) ReadPlan(ctx context.Context, id string) (ir.PlanRecord, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+selectColumns+" FROM plans WHERE id = ?", id)
	rec, err := scanPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.PlanRecord{}, fmt.Errorf("read plan %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return ir.PlanRecord{}, fmt.Errorf("read plan %q: %w", id, err)
	}
	return rec, nil
}

// ListPlans returns the most recent limit records in ascending seq order.
// A limit of zero or less returns every record.
//
// Returns an empty slice (not nil) if the store is empty.
func (s *Store) ListPlans(ctx context.Context, limit int) ([]ir.PlanRecord, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return s.queryPlans(ctx, `
		SELECT `+selectColumns+` FROM (
			SELECT * FROM plans ORDER BY seq DESC LIMIT ?
		)
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, limit)
}

// ListByScene returns every record whose scene resolved to sceneKey.
func (s *Store) ListByScene(ctx context.Context, sceneKey string) ([]ir.PlanRecord, error) {
	return s.queryPlans(ctx, `
		SELECT `+selectColumns+` FROM plans
		WHERE scene_key = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, sceneKey)
}

// FindByPlanHash returns every record with identical plan content.
func (s *Store) FindByPlanHash(ctx context.Context, planHash string) ([]ir.PlanRecord, error) {
	return s.queryPlans(ctx, `
		SELECT `+selectColumns+` FROM plans
		WHERE plan_hash = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, planHash)
}

func (s *Store) queryPlans(ctx context.Context, query string, args ...any) ([]ir.PlanRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query plans: %w", err)
	}
	defer rows.Close()

	records := []ir.PlanRecord{}
	for rows.Next() {
		rec, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate plans: %w", err)
	}
	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

// scanPlan reads one row and verifies the stored plan against its hash.
func scanPlan(row scanner) (ir.PlanRecord, error) {
	var (
		rec      ir.PlanRecord
		planJSON string
	)
	err := row.Scan(
		&rec.ID,
		&rec.Seq,
		&rec.Command.Text,
		&rec.Command.ImagePath,
		&rec.SceneKey,
		&rec.SceneHash,
		&rec.PlanHash,
		&planJSON,
		&rec.Model,
		&rec.SchemaVersion,
	)
	if err != nil {
		return ir.PlanRecord{}, err
	}

	rec.Plan, err = unmarshalPlan(planJSON)
	if err != nil {
		return ir.PlanRecord{}, fmt.Errorf("plan %q: %w", rec.ID, err)
	}
	hash, err := ir.PlanHash(rec.Plan)
	if err != nil {
		return ir.PlanRecord{}, fmt.Errorf("plan %q: %w", rec.ID, err)
	}
	if hash != rec.PlanHash {
		return ir.PlanRecord{}, fmt.Errorf("plan %q: stored content does not match plan_hash", rec.ID)
	}
	return rec, nil
}
