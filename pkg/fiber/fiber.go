package fiber

// FiberID identifies a fiber within a scheduler. The root fiber is 0.
type FiberID uint64

// Input is the value a suspended fiber is resumed with: an elapsed timer
// resumes with neither field set, a completed fetch with the payload or the
// failure, a completed job with the job's recorded outcome, and a fork with
// the new job handle.
type Input struct {
	Value any
	Err   error
}

// Outcome is the terminal result of a fiber: the value its body returned,
// or the error it failed with.
type Outcome struct {
	Value any
	Err   error
}

// Step is what a single resumption produced: either a suspension request
// (Done false) or the fiber's terminal outcome (Done true).
type Step struct {
	Suspend Suspension
	Done    bool
	Result  Outcome
}

// Fiber is a resumable unit of computation. Exactly one Resume call is
// legal while the fiber is suspended; Resume on a running or terminated
// fiber returns *InvalidStateError and performs nothing.
//
// Implementations in this module: the goroutine-backed fiber returned by
// New, and the generator-backed script fiber in internal/script.
type Fiber interface {
	// Resume runs the fiber until its next suspension or termination.
	Resume(in Input) (Step, error)

	// State reports the fiber's current lifecycle state.
	State() State

	// Stop releases any resources held by a fiber abandoned mid-flight,
	// such as a parked goroutine. Stopping a terminated fiber is a no-op.
	Stop()
}
