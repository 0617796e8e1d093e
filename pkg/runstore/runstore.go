// Package runstore persists a history of completed optimization runs to
// Postgres via bun. This is a pure audit trail bolted alongside the
// stateless per-payload algorithm (spec.md §6 notes "No persistent state"
// for the algorithm itself) — nothing here feeds back into optimization.
package runstore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Run is one payload's optimization outcome.
type Run struct {
	bun.BaseModel `bun:"table:optimization_runs,alias:r"`

	ID                 uuid.UUID         `bun:"id,pk,type:uuid"`
	WorkflowARN        string            `bun:"workflow_arn,notnull"`
	Payload            string            `bun:"payload,notnull"`
	FunctionMemory     map[string]int    `bun:"function_memory,type:jsonb"`
	CriticalPathTimeMs float64           `bun:"critical_path_time_ms"`
	CostMBMs           float64           `bun:"cost_mb_ms"`
	ConstraintMet      bool              `bun:"constraint_met"`
	Err                string            `bun:"error,nullzero"`
	CreatedAt          time.Time         `bun:"created_at,nullzero,default:current_timestamp"`
}

// Store persists and retrieves Run rows.
type Store struct {
	db *bun.DB
}

// NewStore wraps a bun.DB.
func NewStore(db *bun.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the optimization_runs table if it does not already exist.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.db.NewCreateTable().Model((*Run)(nil)).IfNotExists().Exec(ctx)
	return err
}

// Save inserts run, assigning it a fresh ID if unset.
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	_, err := s.db.NewInsert().Model(run).Exec(ctx)
	return err
}

// RecentRuns returns the most recent runs for a workflow ARN, newest first.
func (s *Store) RecentRuns(ctx context.Context, arn string, limit int) ([]Run, error) {
	var runs []Run
	err := s.db.NewSelect().
		Model(&runs).
		Where("workflow_arn = ?", arn).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx)
	return runs, err
}
