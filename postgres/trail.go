package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/trailgraph"
)

// SaveTrail saves a full trail (header + step sequence) in one transaction.
// Existing steps for the trail are replaced; steps keep their input order,
// with StepOrder filled in (1-indexed) where the caller left it zero.
// Returns the trail with all step orders assigned.
func (s *PGStore) SaveTrail(ctx context.Context, t *trailgraph.Trail) (*trailgraph.Trail, error) {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	for i := range t.Steps {
		if t.Steps[i].StepOrder == 0 {
			t.Steps[i].StepOrder = i + 1
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("trailgraph: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// Replace semantics: upsert the header, wipe old steps.
	if _, err := tx.Exec(ctx,
		`INSERT INTO trails (id, title, start_node_id) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET title = $2, start_node_id = $3`,
		t.ID, t.Title, t.StartNodeID,
	); err != nil {
		return nil, fmt.Errorf("trailgraph: upsert trail: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM trail_steps WHERE trail_id = $1`, t.ID); err != nil {
		return nil, fmt.Errorf("trailgraph: delete steps: %w", err)
	}

	for _, step := range t.Steps {
		payload, err := json.Marshal(step)
		if err != nil {
			return nil, fmt.Errorf("trailgraph: encode step %d: %w", step.StepOrder, err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO trail_steps (id, trail_id, step_order, payload) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), t.ID, step.StepOrder, payload,
		); err != nil {
			return nil, fmt.Errorf("trailgraph: insert step %d: %w", step.StepOrder, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("trailgraph: commit: %w", err)
	}

	return t, nil
}

// GetTrail retrieves a trail header and its full step sequence.
// Returns nil, nil if the trail doesn't exist.
func (s *PGStore) GetTrail(ctx context.Context, trailID string) (*trailgraph.Trail, error) {
	t := &trailgraph.Trail{ID: trailID}

	err := s.db.QueryRow(ctx,
		`SELECT title, start_node_id FROM trails WHERE id = $1`, trailID,
	).Scan(&t.Title, &t.StartNodeID)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("trailgraph: get trail: %w", err)
	}

	steps, err := s.ListSteps(ctx, trailID)
	if err != nil {
		return nil, err
	}
	t.Steps = steps

	return t, nil
}

// DeleteTrail removes a trail and its steps.
// No error if the trailID doesn't exist.
func (s *PGStore) DeleteTrail(ctx context.Context, trailID string) error {
	// Steps are cascade-deleted by the DB.
	_, err := s.db.Exec(ctx, `DELETE FROM trails WHERE id = $1`, trailID)
	if err != nil {
		return fmt.Errorf("trailgraph: delete trail: %w", err)
	}
	return nil
}

// isNoRows checks if the error is a "no rows" error from pgx.
func isNoRows(err error) bool {
	return err != nil && err.Error() == "no rows in result set"
}
