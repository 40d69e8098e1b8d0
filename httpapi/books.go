package httpapi

import (
	"errors"
	"net/http"

	"github.com/labinf/libraryapi/core"
)

func (s *Server) createBook(w http.ResponseWriter, r *http.Request) {
	var request bookRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if messages := request.validate(true); len(messages) > 0 {
		writeErrors(w, http.StatusBadRequest, messages...)
		return
	}

	book, err := s.books.Register(r.Context(), request.ISBN, request.Title, request.Author)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateISBN) {
			writeErrors(w, http.StatusBadRequest, err.Error())
			return
		}

		s.logError("registering book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, bookResponseFrom(book))
}

func (s *Server) getBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrBookNotFound.Error())
		return
	}

	book, err := s.books.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrBookNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("loading book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, bookResponseFrom(book))
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrBookNotFound.Error())
		return
	}

	var request bookRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if messages := request.validate(false); len(messages) > 0 {
		writeErrors(w, http.StatusBadRequest, messages...)
		return
	}

	book, err := s.books.Update(r.Context(), id, request.Title, request.Author)
	if err != nil {
		if errors.Is(err, core.ErrBookNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("updating book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, bookResponseFrom(book))
}

func (s *Server) deleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrBookNotFound.Error())
		return
	}

	if err := s.books.Remove(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrBookNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("deleting book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) findBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.BookFilter{
		ISBN:   query.Get("isbn"),
		Title:  query.Get("title"),
		Author: query.Get("author"),
	}

	page, err := s.books.Find(r.Context(), filter, pageRequest(r))
	if err != nil {
		s.logError("searching books failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, pageResponseFrom(page, bookResponseFrom))
}

func (s *Server) loansByBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrBookNotFound.Error())
		return
	}

	// Resolve the book first so an unknown id is a 404, not an empty page.
	if _, err := s.books.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, core.ErrBookNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("loading book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	page, err := s.loans.LoansByBook(r.Context(), id, pageRequest(r))
	if err != nil {
		s.logError("loading loans for book failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, pageResponseFrom(page, loanResponseFrom))
}
