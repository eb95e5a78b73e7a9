package fiber

// Observer receives scheduler lifecycle events. All methods are invoked on
// the scheduler goroutine between resumptions; implementations must not
// block.
type Observer interface {
	FiberSpawned(id, parent FiberID)
	FiberResumed(id FiberID)
	FiberSuspended(id FiberID, reason string)
	FiberTerminated(id FiberID, out Outcome)
	JobCompleted(id JobID, out Outcome)
	RunFinished(out Outcome)
}

// NopObserver is an Observer that ignores every event.
type NopObserver struct{}

func (NopObserver) FiberSpawned(FiberID, FiberID)    {}
func (NopObserver) FiberResumed(FiberID)             {}
func (NopObserver) FiberSuspended(FiberID, string)   {}
func (NopObserver) FiberTerminated(FiberID, Outcome) {}
func (NopObserver) JobCompleted(JobID, Outcome)      {}
func (NopObserver) RunFinished(Outcome)              {}
