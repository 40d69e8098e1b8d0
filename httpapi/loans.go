package httpapi

import (
	"errors"
	"net/http"

	"github.com/labinf/libraryapi/core"
)

func (s *Server) createLoan(w http.ResponseWriter, r *http.Request) {
	var request loanRequest
	if !decodeBody(w, r, &request) {
		return
	}

	if messages := request.validate(); len(messages) > 0 {
		writeErrors(w, http.StatusBadRequest, messages...)
		return
	}

	loan, err := s.loans.Create(r.Context(), request.Customer, request.CustomerEmail, request.ISBN)
	if err != nil {
		// Both an unresolved ISBN and an availability conflict are client
		// errors on this endpoint.
		if errors.Is(err, core.ErrBookNotFound) || errors.Is(err, core.ErrBookAlreadyLoaned) {
			writeErrors(w, http.StatusBadRequest, err.Error())
			return
		}

		s.logError("creating loan failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusCreated, createdResponse{ID: loan.ID.String()})
}

func (s *Server) patchLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrLoanNotFound.Error())
		return
	}

	var request returnedRequest
	if !decodeBody(w, r, &request) {
		return
	}

	// Returned is terminal; the only transition this endpoint performs is
	// outstanding -> returned.
	if request.Returned == nil || !*request.Returned {
		writeErrors(w, http.StatusBadRequest, "returned must be true")
		return
	}

	loan, err := s.loans.MarkReturned(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrLoanNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("marking loan returned failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loanResponseFrom(loan))
}

func (s *Server) getLoan(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeErrors(w, http.StatusNotFound, core.ErrLoanNotFound.Error())
		return
	}

	loan, err := s.loans.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, core.ErrLoanNotFound) {
			writeErrors(w, http.StatusNotFound, err.Error())
			return
		}

		s.logError("loading loan failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loanResponseFrom(loan))
}

func (s *Server) findLoans(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := core.LoanFilter{
		ISBN:     query.Get("isbn"),
		Customer: query.Get("customer"),
	}

	page, err := s.loans.Find(r.Context(), filter, pageRequest(r))
	if err != nil {
		s.logError("searching loans failed", err)
		writeErrors(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, pageResponseFrom(page, loanResponseFrom))
}
