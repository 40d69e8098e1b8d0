// Package lending owns the loan lifecycle: creating loans under the
// availability rule, recording returns, and loan lookup with pagination.
package lending

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/labinf/libraryapi/core"
)

// BookStore defines the catalog lookup the lending service needs: resolve
// an ISBN to a book, or core.ErrBookNotFound.
type BookStore interface {
	FindByISBN(ctx context.Context, isbn string) (core.Book, error)
}

// LoanStore defines the storage operations the lending service needs.
// Insert must enforce the availability rule atomically with the insert
// itself and fail with core.ErrBookAlreadyLoaned on a conflict.
type LoanStore interface {
	Insert(ctx context.Context, loan core.Loan) error
	Update(ctx context.Context, loan core.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (core.Loan, error)
	FindByISBNOrCustomer(ctx context.Context, isbn string, customer string, page core.PageRequest) (core.Page[core.Loan], error)
	FindByBook(ctx context.Context, bookID uuid.UUID, page core.PageRequest) (core.Page[core.Loan], error)
	FindOverdue(ctx context.Context, cutoff time.Time) ([]core.Loan, error)
	ListAll(ctx context.Context) ([]core.Loan, error)
}

// Clock provides the current time for loan dates.
type Clock interface {
	Now() time.Time
}

// Service implements the lending use cases.
type Service struct {
	books BookStore
	loans LoanStore
	clock Clock
}

// NewService creates a lending Service.
func NewService(books BookStore, loans LoanStore, clock Clock) Service {
	return Service{
		books: books,
		loans: loans,
		clock: clock,
	}
}

// Create lends the book with the given ISBN to a customer.
//
// The ISBN is resolved first; an unknown ISBN fails with core.ErrBookNotFound
// and persists nothing. The insert itself carries the availability check, so
// of two concurrent creates for the same book exactly one succeeds and the
// other fails with core.ErrBookAlreadyLoaned.
func (s Service) Create(ctx context.Context, customer string, customerEmail string, isbn string) (core.Loan, error) {
	book, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		return core.Loan{}, err
	}

	loan := core.Loan{
		ID:            uuid.New(),
		BookID:        book.ID,
		Customer:      customer,
		CustomerEmail: customerEmail,
		LoanDate:      core.ToLoanDate(s.clock.Now()),
		Status:        core.StatusOutstanding,
	}

	if err := s.loans.Insert(ctx, loan); err != nil {
		return core.Loan{}, err
	}

	return loan, nil
}

// MarkReturned records the return of a loan and frees the book for the next
// customer. Returning an already-returned loan is a no-op success: the
// second request changes nothing and reports the same terminal state.
func (s Service) MarkReturned(ctx context.Context, loanID uuid.UUID) (core.Loan, error) {
	loan, err := s.loans.FindByID(ctx, loanID)
	if err != nil {
		return core.Loan{}, err
	}

	if loan.Status == core.StatusReturned {
		return loan, nil
	}

	loan.Status = core.StatusReturned

	if err := s.loans.Update(ctx, loan); err != nil {
		return core.Loan{}, err
	}

	return loan, nil
}

// GetByID loads one loan, failing with core.ErrLoanNotFound.
func (s Service) GetByID(ctx context.Context, id uuid.UUID) (core.Loan, error) {
	return s.loans.FindByID(ctx, id)
}

// Find returns one page of loans matching the filter. A loan matches when
// its book's ISBN equals filter.ISBN OR its customer equals filter.Customer.
func (s Service) Find(ctx context.Context, filter core.LoanFilter, page core.PageRequest) (core.Page[core.Loan], error) {
	return s.loans.FindByISBNOrCustomer(ctx, filter.ISBN, filter.Customer, page)
}

// LoansByBook returns one page of loans for a single book.
func (s Service) LoansByBook(ctx context.Context, bookID uuid.UUID, page core.PageRequest) (core.Page[core.Loan], error) {
	return s.loans.FindByBook(ctx, bookID, page)
}

// Overdue returns the outstanding loans lent on or before the cutoff day.
func (s Service) Overdue(ctx context.Context, cutoff time.Time) ([]core.Loan, error) {
	return s.loans.FindOverdue(ctx, cutoff)
}

// All returns every loan.
func (s Service) All(ctx context.Context) ([]core.Loan, error) {
	return s.loans.ListAll(ctx)
}
