package postgres

import "context"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS trails (
    id            TEXT PRIMARY KEY,
    title         TEXT NOT NULL DEFAULT '',
    start_node_id TEXT NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS trail_steps (
    id         TEXT PRIMARY KEY,
    trail_id   TEXT NOT NULL REFERENCES trails(id) ON DELETE CASCADE,
    step_order INT NOT NULL,
    payload    JSONB NOT NULL DEFAULT '{}',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_trail_steps_trail_id ON trail_steps(trail_id);
CREATE INDEX IF NOT EXISTS idx_trail_steps_order    ON trail_steps(trail_id, step_order);
`

// CreateSchema creates the trails and trail_steps tables if they don't exist.
func (s *PGStore) CreateSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, schemaSQL)
	return err
}

// DropSchema drops the trail_steps and trails tables.
func (s *PGStore) DropSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DROP TABLE IF EXISTS trail_steps, trails CASCADE;`)
	return err
}
