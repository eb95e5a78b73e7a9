// Package trace records scheduler runs for later inspection. A Recorder
// observes the scheduler and buffers events in memory; nothing touches the
// database until the run is finished, keeping the hot path free of SQL.
package trace

import (
	"context"
	"time"
)

// Run is one recorded scheduler run.
type Run struct {
	ID         string
	Script     string
	StartedAt  time.Time
	FinishedAt *time.Time
	Outcome    string // OK or FAILED
	Error      string
}

// Event is one scheduler lifecycle event within a run.
type Event struct {
	RunID   string
	Seq     int
	At      time.Time
	FiberID uint64
	Kind    string
	Detail  string
}

// Event kinds written by the Recorder.
const (
	EventSpawned    = "spawned"
	EventResumed    = "resumed"
	EventSuspended  = "suspended"
	EventTerminated = "terminated"
	EventJobDone    = "job_done"
)

// Store persists runs and their events.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	FinishRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context) ([]*Run, error)
	AppendEvents(ctx context.Context, events []Event) error
	ListEvents(ctx context.Context, runID string) ([]Event, error)

	Migrate(ctx context.Context) error
	Close() error
}
