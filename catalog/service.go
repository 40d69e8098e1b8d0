// Package catalog owns the book side of the library: registering books,
// edits, removal, and filtered search. The lending package resolves ISBNs
// through it when creating loans.
package catalog

import (
	"context"

	"github.com/google/uuid"

	"github.com/labinf/libraryapi/core"
)

// BookStore defines the storage operations the catalog service needs.
type BookStore interface {
	Insert(ctx context.Context, book core.Book) error
	Update(ctx context.Context, book core.Book) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (core.Book, error)
	FindByISBN(ctx context.Context, isbn string) (core.Book, error)
	Find(ctx context.Context, filter core.BookFilter, page core.PageRequest) (core.Page[core.Book], error)
}

// Service implements the catalog use cases on top of a BookStore.
type Service struct {
	books BookStore
}

// NewService creates a catalog Service.
func NewService(books BookStore) Service {
	return Service{books: books}
}

// Register adds a new book to the catalog and returns it with its assigned
// id. Fails with core.ErrDuplicateISBN when the ISBN is already registered;
// the store enforces that check atomically with the insert.
func (s Service) Register(ctx context.Context, isbn string, title string, author string) (core.Book, error) {
	book := core.Book{
		ID:     uuid.New(),
		ISBN:   isbn,
		Title:  title,
		Author: author,
	}

	if err := s.books.Insert(ctx, book); err != nil {
		return core.Book{}, err
	}

	return book, nil
}

// GetByID loads one book, failing with core.ErrBookNotFound.
func (s Service) GetByID(ctx context.Context, id uuid.UUID) (core.Book, error) {
	return s.books.FindByID(ctx, id)
}

// GetByISBN loads one book by ISBN, failing with core.ErrBookNotFound.
func (s Service) GetByISBN(ctx context.Context, isbn string) (core.Book, error) {
	return s.books.FindByISBN(ctx, isbn)
}

// Update changes the title and author of an existing book. ISBN and id are
// immutable. Returns the updated book.
func (s Service) Update(ctx context.Context, id uuid.UUID, title string, author string) (core.Book, error) {
	book, err := s.books.FindByID(ctx, id)
	if err != nil {
		return core.Book{}, err
	}

	book.Title = title
	book.Author = author

	if err := s.books.Update(ctx, book); err != nil {
		return core.Book{}, err
	}

	return book, nil
}

// Remove deletes a book from the catalog. Whether a book with loan history
// can go is the store's call: the foreign key from loans rejects it there.
func (s Service) Remove(ctx context.Context, id uuid.UUID) error {
	return s.books.Delete(ctx, id)
}

// Find returns one page of books matching the filter.
func (s Service) Find(ctx context.Context, filter core.BookFilter, page core.PageRequest) (core.Page[core.Book], error) {
	return s.books.Find(ctx, filter, page)
}
