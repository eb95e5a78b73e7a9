package trace

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/me/weft/pkg/fiber"
)

// Recorder implements fiber.Observer, buffering events for one run.
// Observer callbacks arrive on the scheduler goroutine and only append to
// the buffer; the database is written on Start and Finish.
type Recorder struct {
	store  Store
	run    *Run
	events []Event
	seq    int
}

// NewRecorder creates a recorder writing to store.
func NewRecorder(store Store) *Recorder {
	return &Recorder{store: store}
}

// Start registers a new run for the given script.
func (r *Recorder) Start(ctx context.Context, script string) error {
	r.run = &Run{
		ID:        "run_" + uuid.New().String(),
		Script:    script,
		StartedAt: time.Now().UTC(),
	}
	r.events = nil
	r.seq = 0
	return r.store.CreateRun(ctx, r.run)
}

// RunID returns the id of the run in progress.
func (r *Recorder) RunID() string {
	if r.run == nil {
		return ""
	}
	return r.run.ID
}

// Finish records the run's outcome and flushes the buffered events.
func (r *Recorder) Finish(ctx context.Context, runErr error) error {
	if r.run == nil {
		return fmt.Errorf("recorder: Finish without Start")
	}
	now := time.Now().UTC()
	r.run.FinishedAt = &now
	if runErr != nil {
		r.run.Outcome = "FAILED"
		r.run.Error = runErr.Error()
	} else {
		r.run.Outcome = "OK"
	}
	if err := r.store.AppendEvents(ctx, r.events); err != nil {
		return fmt.Errorf("append events: %w", err)
	}
	return r.store.FinishRun(ctx, r.run)
}

func (r *Recorder) append(fiberID fiber.FiberID, kind, detail string) {
	if r.run == nil {
		return
	}
	r.events = append(r.events, Event{
		RunID:   r.run.ID,
		Seq:     r.seq,
		At:      time.Now().UTC(),
		FiberID: uint64(fiberID),
		Kind:    kind,
		Detail:  detail,
	})
	r.seq++
}

func (r *Recorder) FiberSpawned(id, parent fiber.FiberID) {
	r.append(id, EventSpawned, fmt.Sprintf("parent=%d", parent))
}

func (r *Recorder) FiberResumed(id fiber.FiberID) {
	r.append(id, EventResumed, "")
}

func (r *Recorder) FiberSuspended(id fiber.FiberID, reason string) {
	r.append(id, EventSuspended, reason)
}

func (r *Recorder) FiberTerminated(id fiber.FiberID, out fiber.Outcome) {
	if out.Err != nil {
		r.append(id, EventTerminated, "error: "+out.Err.Error())
		return
	}
	r.append(id, EventTerminated, "ok")
}

func (r *Recorder) JobCompleted(id fiber.JobID, out fiber.Outcome) {
	detail := fmt.Sprintf("job=%d ok", id)
	if out.Err != nil {
		detail = fmt.Sprintf("job=%d error: %v", id, out.Err)
	}
	r.append(0, EventJobDone, detail)
}

func (r *Recorder) RunFinished(fiber.Outcome) {}
