package testutil

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/labinf/libraryapi/core"
)

// InMemoryBookStore is a map-backed book store for tests.
type InMemoryBookStore struct {
	mu    sync.Mutex
	books map[uuid.UUID]core.Book
	order []uuid.UUID
}

// NewInMemoryBookStore creates an empty book store.
func NewInMemoryBookStore() *InMemoryBookStore {
	return &InMemoryBookStore{books: make(map[uuid.UUID]core.Book)}
}

// Insert adds a book, rejecting duplicate ISBNs.
func (s *InMemoryBookStore) Insert(_ context.Context, book core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.books {
		if existing.ISBN == book.ISBN {
			return core.ErrDuplicateISBN
		}
	}

	s.books[book.ID] = book
	s.order = append(s.order, book.ID)

	return nil
}

// Update replaces the title and author of an existing book.
func (s *InMemoryBookStore) Update(_ context.Context, book core.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.books[book.ID]
	if !ok {
		return core.ErrBookNotFound
	}

	existing.Title = book.Title
	existing.Author = book.Author
	s.books[book.ID] = existing

	return nil
}

// Delete removes a book.
func (s *InMemoryBookStore) Delete(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.books[id]; !ok {
		return core.ErrBookNotFound
	}

	delete(s.books, id)

	return nil
}

// FindByID loads one book.
func (s *InMemoryBookStore) FindByID(_ context.Context, id uuid.UUID) (core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	book, ok := s.books[id]
	if !ok {
		return core.Book{}, core.ErrBookNotFound
	}

	return book, nil
}

// FindByISBN loads one book by ISBN.
func (s *InMemoryBookStore) FindByISBN(_ context.Context, isbn string) (core.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, book := range s.books {
		if book.ISBN == isbn {
			return book, nil
		}
	}

	return core.Book{}, core.ErrBookNotFound
}

// ExistsByISBN reports whether a book with the ISBN is registered.
func (s *InMemoryBookStore) ExistsByISBN(_ context.Context, isbn string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, book := range s.books {
		if book.ISBN == isbn {
			return true, nil
		}
	}

	return false, nil
}

// Find returns one page of books matching the filter, ordered by ISBN.
func (s *InMemoryBookStore) Find(_ context.Context, filter core.BookFilter, page core.PageRequest) (core.Page[core.Book], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	page = page.Normalized()

	matches := make([]core.Book, 0)
	for _, book := range s.books {
		if bookMatches(book, filter) {
			matches = append(matches, book)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].ISBN < matches[j].ISBN })

	return core.NewPage(paginate(matches, page), int64(len(matches)), page), nil
}

func bookMatches(book core.Book, filter core.BookFilter) bool {
	if filter.ISBN != "" && !containsFold(book.ISBN, filter.ISBN) {
		return false
	}
	if filter.Title != "" && !containsFold(book.Title, filter.Title) {
		return false
	}
	if filter.Author != "" && !containsFold(book.Author, filter.Author) {
		return false
	}

	return true
}

func containsFold(haystack string, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// InMemoryLoanStore is a map-backed loan store for tests. It enforces the
// availability rule under its mutex, so the check-and-insert is atomic the
// same way the conditional INSERT is in the real store.
type InMemoryLoanStore struct {
	mu    sync.Mutex
	books *InMemoryBookStore
	loans map[uuid.UUID]core.Loan
	order []uuid.UUID
}

// NewInMemoryLoanStore creates an empty loan store resolving ISBNs through
// the given book store.
func NewInMemoryLoanStore(books *InMemoryBookStore) *InMemoryLoanStore {
	return &InMemoryLoanStore{
		books: books,
		loans: make(map[uuid.UUID]core.Loan),
	}
}

// Insert adds a loan unless the book already has an outstanding one.
func (s *InMemoryLoanStore) Insert(_ context.Context, loan core.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.loans {
		if existing.BookID == loan.BookID && existing.IsOutstanding() {
			return core.ErrBookAlreadyLoaned
		}
	}

	s.loans[loan.ID] = loan
	s.order = append(s.order, loan.ID)

	return nil
}

// Update replaces the mutable fields of an existing loan.
func (s *InMemoryLoanStore) Update(_ context.Context, loan core.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.loans[loan.ID]
	if !ok {
		return core.ErrLoanNotFound
	}

	existing.Customer = loan.Customer
	existing.CustomerEmail = loan.CustomerEmail
	existing.Status = loan.Status
	s.loans[loan.ID] = existing

	return nil
}

// FindByID loads one loan.
func (s *InMemoryLoanStore) FindByID(_ context.Context, id uuid.UUID) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	loan, ok := s.loans[id]
	if !ok {
		return core.Loan{}, core.ErrLoanNotFound
	}

	return loan, nil
}

// FindByISBNOrCustomer returns loans whose book ISBN equals isbn OR whose
// customer equals customer, in insertion order.
func (s *InMemoryLoanStore) FindByISBNOrCustomer(ctx context.Context, isbn string, customer string, page core.PageRequest) (core.Page[core.Loan], error) {
	page = page.Normalized()

	s.mu.Lock()
	ordered := s.orderedLoans()
	s.mu.Unlock()

	matches := make([]core.Loan, 0)
	for _, loan := range ordered {
		matched := loan.Customer == customer && customer != ""

		if !matched && isbn != "" {
			book, err := s.books.FindByID(ctx, loan.BookID)
			if err == nil && book.ISBN == isbn {
				matched = true
			}
		}

		if matched {
			matches = append(matches, loan)
		}
	}

	return core.NewPage(paginate(matches, page), int64(len(matches)), page), nil
}

// FindByBook returns loans of one book in insertion order.
func (s *InMemoryLoanStore) FindByBook(_ context.Context, bookID uuid.UUID, page core.PageRequest) (core.Page[core.Loan], error) {
	page = page.Normalized()

	s.mu.Lock()
	defer s.mu.Unlock()

	matches := make([]core.Loan, 0)
	for _, loan := range s.orderedLoans() {
		if loan.BookID == bookID {
			matches = append(matches, loan)
		}
	}

	return core.NewPage(paginate(matches, page), int64(len(matches)), page), nil
}

// FindOverdue returns outstanding loans lent on or before the cutoff.
func (s *InMemoryLoanStore) FindOverdue(_ context.Context, cutoff time.Time) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return core.SelectOverdue(s.orderedLoans(), cutoff), nil
}

// ListAll returns every loan in insertion order.
func (s *InMemoryLoanStore) ListAll(_ context.Context) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.orderedLoans(), nil
}

func (s *InMemoryLoanStore) orderedLoans() []core.Loan {
	ordered := make([]core.Loan, 0, len(s.order))
	for _, id := range s.order {
		if loan, ok := s.loans[id]; ok {
			ordered = append(ordered, loan)
		}
	}

	return ordered
}

func paginate[T any](elements []T, page core.PageRequest) []T {
	start := page.Offset()
	if start >= len(elements) {
		return []T{}
	}

	end := start + page.Size
	if end > len(elements) {
		end = len(elements)
	}

	return elements[start:end]
}
