package fiber

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Body is a fiber entry point written in Go. It receives the capability
// context exposing the suspension primitives and returns the fiber's value
// or its failure.
type Body func(*Context) (any, error)

// errStopped unwinds a parked fiber goroutine when the scheduler abandons
// it mid-flight.
var errStopped = errors.New("fiber stopped")

// goFiber runs a Body on a dedicated goroutine with a strict channel
// handoff: the goroutine executes only between a Resume call and the next
// suspension, so at most one fiber goroutine runs at any instant.
type goFiber struct {
	body    Body
	state   State
	started bool

	resumeCh chan Input
	stepCh   chan Step
	stopCh   chan struct{}
	stopOnce sync.Once
}

// New wraps a Go function as a resumable fiber.
func New(body Body) Fiber {
	return &goFiber{
		body:     body,
		state:    StateReady,
		resumeCh: make(chan Input),
		stepCh:   make(chan Step),
		stopCh:   make(chan struct{}),
	}
}

func (f *goFiber) State() State { return f.state }

func (f *goFiber) Resume(in Input) (Step, error) {
	if !f.state.Resumable() {
		return Step{}, &InvalidStateError{State: f.state}
	}
	f.state = StateRunning

	if !f.started {
		f.started = true
		go f.run()
	} else {
		f.resumeCh <- in
	}

	st := <-f.stepCh
	switch {
	case !st.Done:
		f.state = StateSuspended
	case st.Result.Err != nil:
		f.state = StateFailed
	default:
		f.state = StateCompleted
	}
	return st, nil
}

func (f *goFiber) Stop() {
	f.stopOnce.Do(func() { close(f.stopCh) })
}

func (f *goFiber) run() {
	defer func() {
		if r := recover(); r != nil {
			if r == errStopped {
				return
			}
			f.stepCh <- Step{Done: true, Result: Outcome{Err: fmt.Errorf("fiber panic: %v", r)}}
		}
	}()

	v, err := f.body(&Context{f: f})
	f.stepCh <- Step{Done: true, Result: Outcome{Value: v, Err: err}}
}

// suspend hands a request to the scheduler and parks until resumed. Runs
// on the fiber goroutine.
func (f *goFiber) suspend(req Suspension) Input {
	select {
	case f.stepCh <- Step{Suspend: req}:
	case <-f.stopCh:
		panic(errStopped)
	}
	select {
	case in := <-f.resumeCh:
		return in
	case <-f.stopCh:
		panic(errStopped)
	}
}

// Context is the capability object injected into a Body. It exposes
// exactly the runtime's suspension primitives; a fiber never suspends
// except through these.
type Context struct {
	f *goFiber
}

// Sleep suspends the fiber for at least d.
func (c *Context) Sleep(d time.Duration) {
	c.f.suspend(SleepRequest{Duration: d})
}

// Yield re-enqueues the fiber behind everything currently ready.
func (c *Context) Yield() {
	c.f.suspend(YieldRequest{})
}

// Fork schedules body as an independent fiber and returns its Job handle.
// Fork returns as soon as the scheduler has registered the child; it never
// waits for the child to run.
func (c *Context) Fork(body Body) *Job {
	in := c.f.suspend(ForkRequest{Child: New(body)})
	return in.Value.(*Job)
}

// Fetch retrieves url through the scheduler's I/O provider, suspending
// until the payload or failure arrives.
func (c *Context) Fetch(url string) ([]byte, error) {
	in := c.f.suspend(FetchRequest{URL: url})
	if in.Err != nil {
		return nil, in.Err
	}
	b, _ := in.Value.([]byte)
	return b, nil
}

// Wait suspends until j completes and returns its recorded outcome. Wait
// is idempotent: any number of calls, from any fibers, before or after
// completion, observe the identical result.
func (c *Context) Wait(j *Job) (any, error) {
	in := c.f.suspend(WaitRequest{Job: j})
	return in.Value, in.Err
}
