package fiber

import (
	"testing"

	"go.uber.org/goleak"
)

// Fiber goroutines must never outlive the run that spawned them.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}
