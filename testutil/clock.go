// Package testutil provides test doubles for the service: a controllable
// clock, a notifier spy, in-memory stores honoring the availability rule,
// and a slog handler spy.
package testutil

import (
	"sync"
	"time"
)

// ClockStub is a controllable clock. Now returns the stubbed instant; After
// registers a waiter that fires when Advance moves the clock past its
// deadline.
type ClockStub struct {
	mu      sync.Mutex
	now     time.Time
	waiters []clockWaiter
}

type clockWaiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewClockStub creates a ClockStub at the given instant.
func NewClockStub(now time.Time) *ClockStub {
	return &ClockStub{now: now}
}

// Now returns the stubbed current time.
func (c *ClockStub) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

// After returns a channel that delivers once the clock has been advanced to
// or past the deadline. A non-positive duration fires immediately.
func (c *ClockStub) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	deadline := c.now.Add(d)

	if !deadline.After(c.now) {
		ch <- c.now
		return ch
	}

	c.waiters = append(c.waiters, clockWaiter{deadline: deadline, ch: ch})

	return ch
}

// Advance moves the clock forward and fires every waiter whose deadline has
// been reached.
func (c *ClockStub) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)

	remaining := c.waiters[:0]
	for _, waiter := range c.waiters {
		if waiter.deadline.After(c.now) {
			remaining = append(remaining, waiter)
			continue
		}

		waiter.ch <- c.now
	}

	c.waiters = remaining
}

// Set moves the clock to an absolute instant, firing due waiters.
func (c *ClockStub) Set(now time.Time) {
	c.mu.Lock()
	delta := now.Sub(c.now)
	c.mu.Unlock()

	if delta > 0 {
		c.Advance(delta)
		return
	}

	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
