package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/meikuraledutech/trailgraph"
)

// AppendStep inserts a single step at the end of a trail's sequence.
// If step.StepOrder is zero, the next order after the current maximum is
// assigned. Returns trailgraph.ErrTrailNotFound if the trail doesn't exist.
func (s *PGStore) AppendStep(ctx context.Context, trailID string, step trailgraph.StepRecord) (string, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trails WHERE id = $1)`, trailID,
	).Scan(&exists)
	if err != nil {
		return "", fmt.Errorf("trailgraph: check trail: %w", err)
	}
	if !exists {
		return "", trailgraph.ErrTrailNotFound
	}

	if step.StepOrder == 0 {
		err := s.db.QueryRow(ctx,
			`SELECT COALESCE(MAX(step_order), 0) + 1 FROM trail_steps WHERE trail_id = $1`, trailID,
		).Scan(&step.StepOrder)
		if err != nil {
			return "", fmt.Errorf("trailgraph: next step order: %w", err)
		}
	}

	payload, err := json.Marshal(step)
	if err != nil {
		return "", fmt.Errorf("trailgraph: encode step: %w", err)
	}

	id := uuid.NewString()
	if _, err := s.db.Exec(ctx,
		`INSERT INTO trail_steps (id, trail_id, step_order, payload) VALUES ($1, $2, $3, $4)`,
		id, trailID, step.StepOrder, payload,
	); err != nil {
		return "", fmt.Errorf("trailgraph: insert step: %w", err)
	}

	return id, nil
}

// ListSteps returns all steps for a trail in sequence order.
// Returns an empty slice (not nil) if none found.
func (s *PGStore) ListSteps(ctx context.Context, trailID string) ([]trailgraph.StepRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT payload FROM trail_steps WHERE trail_id = $1 ORDER BY step_order, created_at`, trailID)
	if err != nil {
		return nil, fmt.Errorf("trailgraph: list steps: %w", err)
	}
	defer rows.Close()

	steps := []trailgraph.StepRecord{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("trailgraph: scan step: %w", err)
		}
		var step trailgraph.StepRecord
		if err := json.Unmarshal(payload, &step); err != nil {
			return nil, fmt.Errorf("trailgraph: decode step: %w", err)
		}
		steps = append(steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("trailgraph: rows steps: %w", err)
	}

	return steps, nil
}
