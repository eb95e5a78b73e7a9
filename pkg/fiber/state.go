package fiber

// State represents the lifecycle state of a fiber.
type State string

const (
	StateReady     State = "READY"
	StateRunning   State = "RUNNING"
	StateSuspended State = "SUSPENDED"
	StateCompleted State = "COMPLETED"
	StateFailed    State = "FAILED"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if the fiber is in a final state.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateFailed:
		return true
	}
	return false
}

// Resumable returns true if a Resume call is legal in this state.
// A fiber is resumable before its first run (READY) and at every
// suspension point (SUSPENDED); anything else is a contract violation.
func (s State) Resumable() bool {
	return s == StateReady || s == StateSuspended
}
