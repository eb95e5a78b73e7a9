package fiber

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestResumeCompletedFiberIsInvalid(t *testing.T) {
	f := New(func(ctx *Context) (any, error) { return 1, nil })

	st, err := f.Resume(Input{})
	if err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if !st.Done || st.Result.Value != 1 {
		t.Fatalf("step = %+v, want done with value 1", st)
	}
	if got := f.State(); got != StateCompleted {
		t.Errorf("state = %s, want COMPLETED", got)
	}

	_, err = f.Resume(Input{})
	var ise *InvalidStateError
	if !errors.As(err, &ise) {
		t.Fatalf("resume after completion: err = %v, want InvalidStateError", err)
	}
	if ise.State != StateCompleted {
		t.Errorf("error state = %s, want COMPLETED", ise.State)
	}
}

func TestResumeFailedFiberIsInvalid(t *testing.T) {
	f := New(func(ctx *Context) (any, error) { return nil, errors.New("nope") })

	st, err := f.Resume(Input{})
	if err != nil {
		t.Fatalf("first resume: %v", err)
	}
	if !st.Done || st.Result.Err == nil {
		t.Fatalf("step = %+v, want failed", st)
	}
	if got := f.State(); got != StateFailed {
		t.Errorf("state = %s, want FAILED", got)
	}

	var ise *InvalidStateError
	if _, err := f.Resume(Input{}); !errors.As(err, &ise) {
		t.Errorf("resume after failure: err = %v, want InvalidStateError", err)
	}
}

func TestSuspendedFiberResumesWhereItLeftOff(t *testing.T) {
	f := New(func(ctx *Context) (any, error) {
		ctx.Sleep(time.Second)
		ctx.Sleep(2 * time.Second)
		return "end", nil
	})

	st, err := f.Resume(Input{})
	if err != nil {
		t.Fatalf("resume 1: %v", err)
	}
	req, ok := st.Suspend.(SleepRequest)
	if !ok || req.Duration != time.Second {
		t.Fatalf("suspension 1 = %#v, want SleepRequest{1s}", st.Suspend)
	}
	if got := f.State(); got != StateSuspended {
		t.Errorf("state = %s, want SUSPENDED", got)
	}

	st, err = f.Resume(Input{})
	if err != nil {
		t.Fatalf("resume 2: %v", err)
	}
	if req, ok := st.Suspend.(SleepRequest); !ok || req.Duration != 2*time.Second {
		t.Fatalf("suspension 2 = %#v, want SleepRequest{2s}", st.Suspend)
	}

	st, err = f.Resume(Input{})
	if err != nil {
		t.Fatalf("resume 3: %v", err)
	}
	if !st.Done || st.Result.Value != "end" {
		t.Fatalf("final step = %+v, want end", st)
	}
}

func TestBodyPanicBecomesFailure(t *testing.T) {
	f := New(func(ctx *Context) (any, error) {
		panic("kaboom")
	})

	st, err := f.Resume(Input{})
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !st.Done || st.Result.Err == nil {
		t.Fatalf("step = %+v, want failure", st)
	}
	if !strings.Contains(st.Result.Err.Error(), "kaboom") {
		t.Errorf("error = %v, want panic message preserved", st.Result.Err)
	}
	if got := f.State(); got != StateFailed {
		t.Errorf("state = %s, want FAILED", got)
	}
}

func TestStopReleasesParkedFiber(t *testing.T) {
	f := New(func(ctx *Context) (any, error) {
		ctx.Sleep(time.Hour)
		return nil, nil
	})
	if _, err := f.Resume(Input{}); err != nil {
		t.Fatalf("resume: %v", err)
	}
	// Abandon the suspended fiber; goleak verifies the goroutine exits.
	f.Stop()
	f.Stop() // idempotent
}
