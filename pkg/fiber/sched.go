package fiber

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock replaces the scheduler's time source.
func WithClock(c Clock) Option {
	return func(s *Scheduler) { s.clock = c }
}

// WithIOProvider wires the provider backing Fetch. Without one, any fetch
// resumes with an error.
func WithIOProvider(p IOProvider) Option {
	return func(s *Scheduler) { s.provider = p }
}

// WithLogger sets the scheduler's logger. Logs go nowhere by default.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) { s.obs = o }
}

// task is the scheduler's bookkeeping for one live fiber.
type task struct {
	id    FiberID
	f     Fiber
	job   *Job  // the job this fiber fulfills; nil for the root
	next  Input // resume value pending delivery on the next resumption
}

// Scheduler owns all fibers and jobs and drives the run loop until no work
// remains. It is not safe for concurrent use; all interaction happens via
// Run and from within fiber bodies.
type Scheduler struct {
	clock    Clock
	logger   *slog.Logger
	obs      Observer
	provider IOProvider

	fibers   map[FiberID]*task
	jobs     map[JobID]*Job
	ready    []FiberID
	timers   timerQueue
	inflight map[IOToken]FiberID

	nextFiber FiberID
	nextJob   JobID
	nextToken IOToken
	timerSeq  uint64

	rootSpawned bool
	rootDone    bool
	rootOut     Outcome
}

// NewScheduler creates an idle scheduler.
func NewScheduler(opts ...Option) *Scheduler {
	s := &Scheduler{
		clock:    wallClock{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		obs:      NopObserver{},
		fibers:   make(map[FiberID]*task),
		jobs:     make(map[JobID]*Job),
		inflight: make(map[IOToken]FiberID),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "scheduler")
	heap.Init(&s.timers)
	return s
}

// SpawnRoot registers f as fiber 0 and enqueues it ready. The root's
// terminal outcome becomes the whole run's outcome.
func (s *Scheduler) SpawnRoot(f Fiber) (FiberID, error) {
	if s.rootSpawned {
		return 0, errors.New("root fiber already spawned")
	}
	s.rootSpawned = true
	t := s.register(f, nil)
	s.ready = append(s.ready, t.id)
	s.obs.FiberSpawned(t.id, t.id)
	return t.id, nil
}

// Job returns the job with the given id, if it exists.
func (s *Scheduler) Job(id JobID) (*Job, bool) {
	j, ok := s.jobs[id]
	return j, ok
}

// Run drives the loop until the ready queue, the timer queue and in-flight
// I/O are all empty, then returns the root fiber's outcome. Background
// fibers forked along the way are not cancelled when the root finishes;
// they keep the loop alive until they terminate themselves.
//
// Cancelling ctx stops the loop early: fibers still parked are released,
// and Run returns the root outcome if the root already finished, or
// ctx.Err() otherwise.
func (s *Scheduler) Run(ctx context.Context) (any, error) {
	if !s.rootSpawned {
		return nil, errors.New("no root fiber spawned")
	}
	defer s.release()

	for {
		select {
		case <-ctx.Done():
			if s.rootDone {
				return s.rootOut.Value, s.rootOut.Err
			}
			return nil, ctx.Err()
		default:
		}

		s.drainCompletions()
		s.fireDueTimers()

		if len(s.ready) > 0 {
			id := s.ready[0]
			s.ready = s.ready[1:]
			if err := s.step(id); err != nil {
				// A resume contract violation is a defect in the
				// scheduler itself; surface it instead of limping on.
				return nil, fmt.Errorf("resume fiber %d: %w", id, err)
			}
			continue
		}

		if err := s.waitForWork(ctx); err != nil {
			if errors.Is(err, errDrained) {
				break
			}
			if s.rootDone {
				return s.rootOut.Value, s.rootOut.Err
			}
			return nil, err
		}
	}

	s.obs.RunFinished(s.rootOut)
	s.logger.Debug("run drained", "outcome_err", s.rootOut.Err)
	return s.rootOut.Value, s.rootOut.Err
}

// errDrained signals that no ready fibers, timers or in-flight I/O remain.
var errDrained = errors.New("drained")

// waitForWork blocks until the earliest timer is due or an I/O completion
// arrives. Returns errDrained when there is nothing left to wait for.
func (s *Scheduler) waitForWork(ctx context.Context) error {
	var timerCh <-chan time.Time
	if s.timers.Len() > 0 {
		d := s.timers.peek().due.Sub(s.clock.Now())
		if d < 0 {
			d = 0
		}
		timerCh = s.clock.After(d)
	} else if len(s.inflight) == 0 {
		return errDrained
	}

	var ioCh <-chan IOCompletion
	if len(s.inflight) > 0 && s.provider != nil {
		ioCh = s.provider.Completions()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timerCh:
		return nil
	case c := <-ioCh:
		s.completeIO(c)
		return nil
	}
}

// step resumes one fiber and handles whatever it produced.
func (s *Scheduler) step(id FiberID) error {
	t, ok := s.fibers[id]
	if !ok {
		return fmt.Errorf("unknown fiber %d", id)
	}
	in := t.next
	t.next = Input{}

	s.obs.FiberResumed(id)
	st, err := t.f.Resume(in)
	if err != nil {
		return err
	}
	if st.Done {
		s.finish(t, st.Result)
		return nil
	}

	s.obs.FiberSuspended(id, st.Suspend.Reason())
	s.logger.Debug("fiber suspended", "fiber_id", id, "reason", st.Suspend.Reason())

	switch req := st.Suspend.(type) {
	case SleepRequest:
		s.timerSeq++
		s.timers.push(timerEntry{
			due:   s.clock.Now().Add(req.Duration),
			seq:   s.timerSeq,
			fiber: id,
		})

	case YieldRequest:
		s.ready = append(s.ready, id)

	case ForkRequest:
		child := s.register(req.Child, nil)
		job := s.registerJob(child)
		s.obs.FiberSpawned(child.id, id)
		s.logger.Debug("fiber forked", "fiber_id", child.id, "parent_id", id, "job_id", job.ID())
		// Child first, then the forker with its new handle; the fork
		// itself never blocks the forker.
		s.ready = append(s.ready, child.id, id)
		t.next = Input{Value: job}

	case FetchRequest:
		if s.provider == nil {
			t.next = Input{Err: fmt.Errorf("fetch %s: no I/O provider configured", req.URL)}
			s.ready = append(s.ready, id)
			break
		}
		s.nextToken++
		token := s.nextToken
		s.inflight[token] = id
		s.provider.Submit(IORequest{Token: token, URL: req.URL})

	case WaitRequest:
		if req.Job == nil {
			t.next = Input{Err: errors.New("wait on nil job")}
			s.ready = append(s.ready, id)
			break
		}
		if out, done := req.Job.Result(); done {
			// Already resolved: deliver without an iteration delay.
			t.next = Input{Value: out.Value, Err: out.Err}
			s.ready = append(s.ready, id)
			break
		}
		req.Job.addWaiter(id)

	default:
		return fmt.Errorf("fiber %d produced unknown suspension %T", id, st.Suspend)
	}
	return nil
}

// finish records a fiber's terminal outcome, completes its job and wakes
// every registered waiter before the loop advances further.
func (s *Scheduler) finish(t *task, out Outcome) {
	if out.Err != nil {
		out.Err = &FiberFailure{Fiber: t.id, Err: out.Err}
	}
	s.obs.FiberTerminated(t.id, out)
	if out.Err != nil {
		s.logger.Debug("fiber failed", "fiber_id", t.id, "error", out.Err)
	} else {
		s.logger.Debug("fiber completed", "fiber_id", t.id)
	}

	if t.job != nil {
		waiters := t.job.complete(out)
		s.obs.JobCompleted(t.job.ID(), out)
		for _, w := range waiters {
			if wt, ok := s.fibers[w]; ok {
				wt.next = Input{Value: out.Value, Err: out.Err}
				s.ready = append(s.ready, w)
			}
		}
	}

	if t.id == 0 {
		s.rootDone = true
		s.rootOut = out
	}
	delete(s.fibers, t.id)
}

// fireDueTimers moves every elapsed timer entry to the ready queue, in
// due order with ties FIFO by insertion.
func (s *Scheduler) fireDueTimers() {
	now := s.clock.Now()
	for s.timers.Len() > 0 && !s.timers.peek().due.After(now) {
		e := s.timers.pop()
		s.ready = append(s.ready, e.fiber)
	}
}

// drainCompletions consumes already-arrived I/O completions without
// blocking.
func (s *Scheduler) drainCompletions() {
	if s.provider == nil {
		return
	}
	for {
		select {
		case c := <-s.provider.Completions():
			s.completeIO(c)
		default:
			return
		}
	}
}

func (s *Scheduler) completeIO(c IOCompletion) {
	id, ok := s.inflight[c.Token]
	if !ok {
		s.logger.Warn("completion for unknown token", "token", c.Token)
		return
	}
	delete(s.inflight, c.Token)
	t := s.fibers[id]
	t.next = Input{Value: c.Body, Err: c.Err}
	s.ready = append(s.ready, id)
}

func (s *Scheduler) register(f Fiber, job *Job) *task {
	t := &task{id: s.nextFiber, f: f, job: job}
	s.nextFiber++
	s.fibers[t.id] = t
	return t
}

// registerJob creates the job supervising t, atomically with the fork.
func (s *Scheduler) registerJob(t *task) *Job {
	s.nextJob++
	j := &Job{id: s.nextJob, fiber: t.id}
	t.job = j
	s.jobs[j.id] = j
	return j
}

// release unwinds fibers still parked when the loop exits.
func (s *Scheduler) release() {
	for _, t := range s.fibers {
		t.f.Stop()
	}
}
