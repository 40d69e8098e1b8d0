package httpapi

import (
	"time"

	"github.com/labinf/libraryapi/core"
)

type bookRequest struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func (r bookRequest) validate(requireISBN bool) []string {
	messages := make([]string, 0)

	if requireISBN && r.ISBN == "" {
		messages = append(messages, "isbn is required")
	}
	if r.Title == "" {
		messages = append(messages, "title is required")
	}
	if r.Author == "" {
		messages = append(messages, "author is required")
	}

	return messages
}

type bookResponse struct {
	ID     string `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

func bookResponseFrom(book core.Book) bookResponse {
	return bookResponse{
		ID:     book.ID.String(),
		ISBN:   book.ISBN,
		Title:  book.Title,
		Author: book.Author,
	}
}

type loanRequest struct {
	ISBN          string `json:"isbn"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customerEmail"`
}

func (r loanRequest) validate() []string {
	messages := make([]string, 0)

	if r.ISBN == "" {
		messages = append(messages, "isbn is required")
	}
	if r.Customer == "" {
		messages = append(messages, "customer is required")
	}
	if r.CustomerEmail == "" {
		messages = append(messages, "customerEmail is required")
	}

	return messages
}

// returnedRequest is the PATCH body. Returned is a pointer so an absent
// field is distinguishable from an explicit false.
type returnedRequest struct {
	Returned *bool `json:"returned"`
}

type createdResponse struct {
	ID string `json:"id"`
}

type loanResponse struct {
	ID            string `json:"id"`
	BookID        string `json:"bookId"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customerEmail"`
	LoanDate      string `json:"loanDate"`
	Returned      bool   `json:"returned"`
}

func loanResponseFrom(loan core.Loan) loanResponse {
	return loanResponse{
		ID:            loan.ID.String(),
		BookID:        loan.BookID.String(),
		Customer:      loan.Customer,
		CustomerEmail: loan.CustomerEmail,
		LoanDate:      loan.LoanDate.Format(time.DateOnly),
		Returned:      loan.Status == core.StatusReturned,
	}
}

// pageable mirrors the page addressing the client sent.
type pageable struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

// pageResponse is the wire shape of a result page: content, the total
// element count for client-side page computation, and the page address.
type pageResponse[T any] struct {
	Content       []T      `json:"content"`
	TotalElements int64    `json:"totalElements"`
	Pageable      pageable `json:"pageable"`
}

func pageResponseFrom[T any, U any](page core.Page[T], mapElement func(T) U) pageResponse[U] {
	content := make([]U, 0, len(page.Content))
	for _, element := range page.Content {
		content = append(content, mapElement(element))
	}

	return pageResponse[U]{
		Content:       content,
		TotalElements: page.TotalElements,
		Pageable: pageable{
			PageNumber: page.PageNumber,
			PageSize:   page.PageSize,
		},
	}
}
