package core

import (
	"time"

	"github.com/google/uuid"
)

// LoanStatus is the explicit lifecycle state of a Loan.
// A loan starts Outstanding and transitions to Returned exactly once;
// Returned is terminal. There is no third state.
type LoanStatus string

const (
	// StatusOutstanding marks a loan whose book copy has not come back yet.
	StatusOutstanding LoanStatus = "OUTSTANDING"
	// StatusReturned marks a completed loan. Terminal.
	StatusReturned LoanStatus = "RETURNED"
)

// IsValid reports whether s is one of the two known states.
func (s LoanStatus) IsValid() bool {
	return s == StatusOutstanding || s == StatusReturned
}

// Loan represents one lending of a book copy to a customer.
// BookID is set at creation and never changes. Loans are never deleted.
type Loan struct {
	ID            uuid.UUID
	BookID        uuid.UUID
	Customer      string
	CustomerEmail string
	LoanDate      time.Time
	Status        LoanStatus
}

// IsOutstanding reports whether the book copy is still out.
func (l Loan) IsOutstanding() bool {
	return l.Status == StatusOutstanding
}

// LoanFilter narrows a loan search. A loan matches when its book's ISBN
// equals ISBN or its customer equals Customer - deliberately OR, not AND.
type LoanFilter struct {
	ISBN     string
	Customer string
}

// ToLoanDate normalizes a timestamp to the lending calendar day: UTC,
// truncated to midnight. Loan age is counted in whole days.
func ToLoanDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
