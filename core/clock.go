package core

import "time"

// Clock abstracts wall-clock time so time-dependent behavior (loan dates,
// the overdue sweep schedule) can be driven by a simulated clock in tests.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the production Clock backed by the time package.
type SystemClock struct{}

// Now returns the current wall-clock time.
func (SystemClock) Now() time.Time {
	return time.Now()
}

// After waits for the duration to elapse and then delivers the current time.
func (SystemClock) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}
