// Package httpapi exposes the catalog and lending services over HTTP.
// It translates wire requests into service calls, validates input before it
// reaches the services, and renders domain errors as {"errors": [...]}
// bodies with the appropriate status codes.
package httpapi

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/labinf/libraryapi/core"
)

// BookService defines the catalog operations the HTTP layer exposes.
type BookService interface {
	Register(ctx context.Context, isbn string, title string, author string) (core.Book, error)
	GetByID(ctx context.Context, id uuid.UUID) (core.Book, error)
	Update(ctx context.Context, id uuid.UUID, title string, author string) (core.Book, error)
	Remove(ctx context.Context, id uuid.UUID) error
	Find(ctx context.Context, filter core.BookFilter, page core.PageRequest) (core.Page[core.Book], error)
}

// LoanService defines the lending operations the HTTP layer exposes.
type LoanService interface {
	Create(ctx context.Context, customer string, customerEmail string, isbn string) (core.Loan, error)
	MarkReturned(ctx context.Context, loanID uuid.UUID) (core.Loan, error)
	GetByID(ctx context.Context, id uuid.UUID) (core.Loan, error)
	Find(ctx context.Context, filter core.LoanFilter, page core.PageRequest) (core.Page[core.Loan], error)
	LoansByBook(ctx context.Context, bookID uuid.UUID, page core.PageRequest) (core.Page[core.Loan], error)
}

// Logger for request failures worth recording.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Server translates HTTP requests into service calls.
type Server struct {
	books  BookService
	loans  LoanService
	logger Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger.
func WithLogger(logger Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a Server for the given services.
func NewServer(books BookService, loans LoanService, options ...ServerOption) *Server {
	server := &Server{
		books: books,
		loans: loans,
	}

	for _, option := range options {
		option(server)
	}

	return server
}

// Router builds the route table under the /api prefix.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/books", s.createBook).Methods(http.MethodPost)
	api.HandleFunc("/books", s.findBooks).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}", s.getBook).Methods(http.MethodGet)
	api.HandleFunc("/books/{id}", s.updateBook).Methods(http.MethodPut)
	api.HandleFunc("/books/{id}", s.deleteBook).Methods(http.MethodDelete)
	api.HandleFunc("/books/{id}/loans", s.loansByBook).Methods(http.MethodGet)

	api.HandleFunc("/loans", s.createLoan).Methods(http.MethodPost)
	api.HandleFunc("/loans", s.findLoans).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", s.getLoan).Methods(http.MethodGet)
	api.HandleFunc("/loans/{id}", s.patchLoan).Methods(http.MethodPatch)

	return router
}

// pathID parses the {id} path variable as a UUID.
func pathID(r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

func (s *Server) logError(msg string, err error) {
	if s.logger != nil {
		s.logger.Error(msg, "error", err.Error())
	}
}
