package fiber

import "time"

// Clock abstracts the scheduler's time source so runs can be driven on
// virtual time in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type wallClock struct{}

func (wallClock) Now() time.Time { return time.Now() }

func (wallClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// WallClock returns the real-time clock used by default.
func WallClock() Clock { return wallClock{} }
