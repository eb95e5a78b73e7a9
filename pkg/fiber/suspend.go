package fiber

import "time"

// Suspension is a fiber's request to the scheduler, produced once per
// suspension and consumed exactly once to decide how the fiber resumes.
type Suspension interface {
	// Reason is a short tag for logging and tracing.
	Reason() string
}

// SleepRequest parks the fiber until Duration has elapsed.
type SleepRequest struct {
	Duration time.Duration
}

// ForkRequest schedules Child as a new independent fiber. The requester is
// re-enqueued immediately with the child's Job handle as its resume value;
// forking never blocks the forker.
type ForkRequest struct {
	Child Fiber
}

// FetchRequest hands a URL to the I/O provider. The fiber resumes with the
// fetched payload or the failure.
type FetchRequest struct {
	URL string
}

// WaitRequest parks the fiber until Job completes. If the job is already
// complete the fiber is re-enqueued immediately with the recorded result.
type WaitRequest struct {
	Job *Job
}

// YieldRequest re-enqueues the fiber behind everything currently ready.
type YieldRequest struct{}

func (SleepRequest) Reason() string { return "sleep" }
func (ForkRequest) Reason() string  { return "fork" }
func (FetchRequest) Reason() string { return "fetch" }
func (WaitRequest) Reason() string  { return "wait" }
func (YieldRequest) Reason() string { return "yield" }
