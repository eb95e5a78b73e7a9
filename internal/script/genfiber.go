package script

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/me/weft/pkg/fiber"
)

// genFiber adapts a JavaScript generator to the fiber contract: next()
// resumes it with a value, throw() resumes it with a failure, done means
// the fiber completed, and an uncaught exception means it failed.
type genFiber struct {
	eng   *Engine
	gen   *goja.Object
	next  goja.Callable
	thrw  goja.Callable
	state fiber.State
}

func (g *genFiber) State() fiber.State { return g.state }

// Stop is a no-op: a parked generator holds no resources beyond the VM.
func (g *genFiber) Stop() {}

func (g *genFiber) Resume(in fiber.Input) (fiber.Step, error) {
	if !g.state.Resumable() {
		return fiber.Step{}, &fiber.InvalidStateError{State: g.state}
	}
	g.state = fiber.StateRunning

	var res goja.Value
	var err error
	if in.Err != nil {
		if g.thrw == nil {
			g.state = fiber.StateFailed
			return fiber.Step{Done: true, Result: fiber.Outcome{Err: in.Err}}, nil
		}
		res, err = g.thrw(g.gen, g.eng.vm.NewGoError(in.Err))
	} else {
		res, err = g.next(g.gen, g.eng.resumeValue(in.Value))
	}
	if err != nil {
		// The generator did not catch what was thrown at it, or its own
		// code raised: either way the fiber failed.
		g.state = fiber.StateFailed
		return fiber.Step{Done: true, Result: fiber.Outcome{Err: fmt.Errorf("uncaught script error: %w", err)}}, nil
	}

	step := res.ToObject(g.eng.vm)
	value := step.Get("value")
	if step.Get("done").ToBoolean() {
		g.state = fiber.StateCompleted
		return fiber.Step{Done: true, Result: fiber.Outcome{Value: exportValue(value)}}, nil
	}

	req, err := g.translate(value)
	if err != nil {
		g.state = fiber.StateFailed
		return fiber.Step{Done: true, Result: fiber.Outcome{Err: err}}, nil
	}
	g.state = fiber.StateSuspended
	return fiber.Step{Suspend: req}, nil
}

// translate maps a yielded descriptor onto a scheduler suspension.
func (g *genFiber) translate(v goja.Value) (fiber.Suspension, error) {
	req, ok := v.Export().(*ioRequest)
	if !ok {
		return nil, fmt.Errorf("script yielded %s; only runtime requests may be yielded", v)
	}
	switch req.kind {
	case reqSleep:
		return fiber.SleepRequest{Duration: req.duration}, nil
	case reqGet:
		return fiber.FetchRequest{URL: req.url}, nil
	case reqYield:
		return fiber.YieldRequest{}, nil
	case reqWait:
		return fiber.WaitRequest{Job: req.job}, nil
	case reqFork:
		child, err := g.eng.newGenFiber(req.fn)
		if err != nil {
			return nil, fmt.Errorf("forkio: %w", err)
		}
		return fiber.ForkRequest{Child: child}, nil
	default:
		return nil, fmt.Errorf("unknown request kind %d", req.kind)
	}
}

func exportValue(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}
