package testutil

import (
	"context"
	"sync"
)

// NotifierCall records one Send invocation.
type NotifierCall struct {
	Message    string
	Recipients []string
}

// NotifierSpy records reminder batches and optionally fails on demand.
type NotifierSpy struct {
	mu       sync.Mutex
	calls    []NotifierCall
	failWith error
}

// NewNotifierSpy creates a NotifierSpy.
func NewNotifierSpy() *NotifierSpy {
	return &NotifierSpy{calls: make([]NotifierCall, 0)}
}

// FailWith makes subsequent Send calls return err.
func (n *NotifierSpy) FailWith(err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failWith = err
}

// Send records the call and returns the configured error, if any.
func (n *NotifierSpy) Send(_ context.Context, message string, recipients []string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	copied := make([]string, len(recipients))
	copy(copied, recipients)
	n.calls = append(n.calls, NotifierCall{Message: message, Recipients: copied})

	return n.failWith
}

// Calls returns a copy of all recorded calls.
func (n *NotifierSpy) Calls() []NotifierCall {
	n.mu.Lock()
	defer n.mu.Unlock()

	calls := make([]NotifierCall, len(n.calls))
	copy(calls, n.calls)

	return calls
}

// CallCount returns the number of recorded calls.
func (n *NotifierSpy) CallCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.calls)
}
