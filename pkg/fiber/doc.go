// Package fiber implements a single-threaded cooperative runtime: fibers
// suspend at well-defined points (sleep, fork, fetch, wait, yield) and a
// scheduler multiplexes them over non-blocking timers and I/O. Forking
// returns a Job handle whose result is recorded once and delivered to any
// number of waiters, before or after completion.
//
// Exactly one fiber executes at any instant. All scheduler state is touched
// only between resumptions on the scheduler goroutine, so the package uses
// no locks by construction.
package fiber
