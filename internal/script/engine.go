// Package script hosts JavaScript programs on the fiber runtime using goja.
// A script evaluates to a generator function; each fiber is one generator,
// and every value it yields must be a request built by the runtime globals
// (sleep, forkio, get, nop) or by job.wait(). The runtime resumes the
// generator with the request's result, or throws the failure into it.
package script

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/dop251/goja"

	"github.com/me/weft/pkg/fiber"
)

// Engine owns the JavaScript runtime for one run. A single VM is shared by
// every fiber of the run; this is safe because the scheduler resumes one
// fiber at a time and each generator step runs to completion before
// control returns.
type Engine struct {
	vm     *goja.Runtime
	stdout io.Writer
	logger *slog.Logger
}

// NewEngine creates an engine with the runtime globals installed.
func NewEngine(logger *slog.Logger) (*Engine, error) {
	e := &Engine{
		vm:     goja.New(),
		stdout: os.Stdout,
		logger: logger.With("component", "script"),
	}
	if err := e.setup(); err != nil {
		return nil, err
	}
	return e, nil
}

// SetStdout redirects the script's print output.
func (e *Engine) SetStdout(w io.Writer) { e.stdout = w }

// setup installs the primitive surface exposed to script bodies.
func (e *Engine) setup() error {
	// Uncapitalize Go names so the job handle reads as job.wait().
	e.vm.SetFieldNameMapper(goja.UncapFieldNameMapper())

	builtins := map[string]func(goja.FunctionCall) goja.Value{
		"sleep":  e.sleepBuiltin,
		"forkio": e.forkBuiltin,
		"get":    e.getBuiltin,
		"nop":    e.nopBuiltin,
		"print":  e.printBuiltin,
	}
	for name, fn := range builtins {
		if err := e.vm.Set(name, fn); err != nil {
			return fmt.Errorf("set %s: %w", name, err)
		}
	}
	return nil
}

// Load compiles and evaluates a script. The script's value must be a
// generator function, which becomes the root fiber's entry point.
func (e *Engine) Load(name, src string) (fiber.Fiber, error) {
	prog, err := goja.Compile(name, src, false)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	v, err := e.vm.RunProgram(prog)
	if err != nil {
		return nil, fmt.Errorf("evaluate %s: %w", name, err)
	}
	fn, ok := goja.AssertFunction(v)
	if !ok {
		return nil, fmt.Errorf("script %s must evaluate to a generator function", name)
	}
	f, err := e.newGenFiber(fn)
	if err != nil {
		return nil, fmt.Errorf("script %s: %w", name, err)
	}
	return f, nil
}

// newGenFiber instantiates the generator and wraps it as a fiber.
func (e *Engine) newGenFiber(fn goja.Callable) (*genFiber, error) {
	v, err := fn(goja.Undefined())
	if err != nil {
		return nil, fmt.Errorf("instantiate generator: %w", err)
	}
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, fmt.Errorf("function returned %s; a generator function is required", v)
	}
	gen := v.ToObject(e.vm)
	next, ok := goja.AssertFunction(gen.Get("next"))
	if !ok {
		return nil, fmt.Errorf("function is not a generator (no next method)")
	}
	thrw, _ := goja.AssertFunction(gen.Get("throw"))
	return &genFiber{
		eng:   e,
		gen:   gen,
		next:  next,
		thrw:  thrw,
		state: fiber.StateReady,
	}, nil
}

// resumeValue converts a runtime resume value into its script-side form.
// Fetch payloads arrive in the script as text, matching the fetch
// provider's response body contract.
func (e *Engine) resumeValue(v any) goja.Value {
	switch t := v.(type) {
	case nil:
		return goja.Undefined()
	case []byte:
		return e.vm.ToValue(string(t))
	case *fiber.Job:
		return e.vm.ToValue(&jobHandle{job: t})
	case goja.Value:
		return t
	default:
		return e.vm.ToValue(t)
	}
}

func (e *Engine) sleepBuiltin(call goja.FunctionCall) goja.Value {
	sec := call.Argument(0).ToFloat()
	return e.vm.ToValue(&ioRequest{
		kind:     reqSleep,
		duration: time.Duration(sec * float64(time.Second)),
	})
}

func (e *Engine) forkBuiltin(call goja.FunctionCall) goja.Value {
	fn, ok := goja.AssertFunction(call.Argument(0))
	if !ok {
		panic(e.vm.NewTypeError("forkio: argument must be a generator function"))
	}
	return e.vm.ToValue(&ioRequest{kind: reqFork, fn: fn})
}

func (e *Engine) getBuiltin(call goja.FunctionCall) goja.Value {
	return e.vm.ToValue(&ioRequest{
		kind: reqGet,
		url:  call.Argument(0).String(),
	})
}

func (e *Engine) nopBuiltin(goja.FunctionCall) goja.Value {
	return e.vm.ToValue(&ioRequest{kind: reqYield})
}

func (e *Engine) printBuiltin(call goja.FunctionCall) goja.Value {
	parts := make([]any, 0, len(call.Arguments))
	for _, arg := range call.Arguments {
		parts = append(parts, arg.String())
	}
	fmt.Fprintln(e.stdout, parts...)
	return goja.Undefined()
}

// reqKind tags the request descriptors the globals hand to scripts.
type reqKind int

const (
	reqSleep reqKind = iota
	reqFork
	reqGet
	reqWait
	reqYield
)

// ioRequest is the opaque descriptor a script yields back to the runtime.
// Fields are unexported, so scripts cannot see or alter them.
type ioRequest struct {
	kind     reqKind
	duration time.Duration
	url      string
	fn       goja.Callable
	job      *fiber.Job
}

// jobHandle is the script-visible wrapper around a runtime job. The field
// name mapper exposes Wait as job.wait() and Done as job.done().
type jobHandle struct {
	job *fiber.Job
}

// Wait builds the request that suspends the caller until the job resolves.
func (h *jobHandle) Wait() *ioRequest {
	return &ioRequest{kind: reqWait, job: h.job}
}

// Done reports whether the job already resolved, without suspending.
func (h *jobHandle) Done() bool {
	return h.job.Done()
}
