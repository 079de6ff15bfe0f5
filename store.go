package trailgraph

import (
	"context"
	"errors"
)

var (
	ErrEmptySteps       = errors.New("trailgraph: empty step sequence")
	ErrMissingStartNode = errors.New("trailgraph: missing start node id")
	ErrTrailNotFound    = errors.New("trailgraph: trail not found")
)

// Store defines the contract for persisting and retrieving trails.
// The flat step sequence is the source of truth; graphs are rebuilt from it on
// demand and never stored.
type Store interface {
	// Schema
	CreateSchema(ctx context.Context) error
	DropSchema(ctx context.Context) error

	// Trails (bulk operations, replace semantics)
	SaveTrail(ctx context.Context, t *Trail) (*Trail, error)
	GetTrail(ctx context.Context, trailID string) (*Trail, error)
	DeleteTrail(ctx context.Context, trailID string) error

	// Steps
	AppendStep(ctx context.Context, trailID string, step StepRecord) (string, error)
	ListSteps(ctx context.Context, trailID string) ([]StepRecord, error)
}
