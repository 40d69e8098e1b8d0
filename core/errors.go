package core

import "errors"

// Client-facing domain errors. The message strings are part of the API
// contract and are rendered verbatim in error responses.
var (
	// ErrBookNotFound is returned when an ISBN or book id resolves to no book.
	ErrBookNotFound = errors.New("Book not found for passed isbn")

	// ErrBookAlreadyLoaned signals a violation of the availability rule:
	// the book already has an outstanding loan.
	ErrBookAlreadyLoaned = errors.New("Book already loaned")

	// ErrLoanNotFound is returned when a loan id resolves to no loan.
	ErrLoanNotFound = errors.New("Loan not found for passed id")

	// ErrDuplicateISBN is returned when registering a book with an ISBN
	// that is already in the catalog.
	ErrDuplicateISBN = errors.New("Isbn already registered")
)

// IsClientError reports whether err belongs to the domain error taxonomy,
// as opposed to a storage or transport failure. Client errors are never
// retried internally.
func IsClientError(err error) bool {
	return errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrBookAlreadyLoaned) ||
		errors.Is(err, ErrLoanNotFound) ||
		errors.Is(err, ErrDuplicateISBN)
}
