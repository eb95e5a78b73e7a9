package fiber

import "fmt"

// InvalidStateError is returned when a fiber is resumed while not in a
// resumable state. It indicates a defect in the caller, not a recoverable
// runtime condition.
type InvalidStateError struct {
	State State
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("fiber is not resumable (state %s)", e.State)
}

// FiberFailure wraps the error a fiber body terminated with. The scheduler
// records it as the fiber's outcome and delivers it verbatim to every
// waiter on the fiber's job; it never logs or swallows it on their behalf.
type FiberFailure struct {
	Fiber FiberID
	Err   error
}

func (e *FiberFailure) Error() string {
	return fmt.Sprintf("fiber %d failed: %v", e.Fiber, e.Err)
}

func (e *FiberFailure) Unwrap() error {
	return e.Err
}
