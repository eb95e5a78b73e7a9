package fiber

// JobID identifies a job within a scheduler.
type JobID uint64

// Job is the handle to a forked fiber's eventual outcome. It transitions
// from pending to completed exactly once, when its fiber terminates; the
// recorded outcome is immutable and repeatable, and remains queryable for
// as long as any reference to the job exists.
//
// A Job is mutated only by the scheduler between resumptions, and read only
// from fiber bodies, which never run concurrently with the scheduler. No
// locking is needed.
type Job struct {
	id      JobID
	fiber   FiberID
	done    bool
	result  Outcome
	waiters []FiberID
}

// ID returns the job's identity.
func (j *Job) ID() JobID { return j.id }

// Fiber returns the id of the fiber this job supervises.
func (j *Job) Fiber() FiberID { return j.fiber }

// Done reports whether the job's fiber has terminated.
func (j *Job) Done() bool { return j.done }

// Result returns the recorded outcome. The second return is false while
// the job is still pending.
func (j *Job) Result() (Outcome, bool) {
	return j.result, j.done
}

// addWaiter registers a fiber to be woken when the job completes.
func (j *Job) addWaiter(id FiberID) {
	j.waiters = append(j.waiters, id)
}

// complete records the outcome and returns the registered waiters in
// registration order, clearing the list. The result stays retrievable for
// waits issued after completion.
func (j *Job) complete(out Outcome) []FiberID {
	j.done = true
	j.result = out
	w := j.waiters
	j.waiters = nil
	return w
}
