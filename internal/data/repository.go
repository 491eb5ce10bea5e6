package data

import (
	"context"
	"time"
)

// StepRecord captures the outcome of a single uninstall step.
type StepRecord struct {
	Name    string
	Outcome string
	Detail  string
}

// RunRecord captures one uninstall run with its step outcomes.
type RunRecord struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Steps      []StepRecord
}

// Repository persists uninstall run history.
type Repository interface {
	// Bootstrap prepares the backing store (e.g. create the schema).
	Bootstrap(ctx context.Context) error
	// RecordRun stores a completed run and its step outcomes.
	RecordRun(ctx context.Context, run RunRecord) error
	// Close releases the underlying store.
	Close() error
}
