package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/labinf/libraryapi/catalog"
	"github.com/labinf/libraryapi/httpapi"
	"github.com/labinf/libraryapi/lending"
	"github.com/labinf/libraryapi/testutil"
)

// testAPI wires the real services to in-memory stores behind a test server.
type testAPI struct {
	t      *testing.T
	server *httptest.Server
	clock  *testutil.ClockStub
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	books := testutil.NewInMemoryBookStore()
	loans := testutil.NewInMemoryLoanStore(books)
	clock := testutil.NewClockStub(time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC))

	server := httpapi.NewServer(
		catalog.NewService(books),
		lending.NewService(books, loans, clock),
	)

	ts := httptest.NewServer(server.Router())
	t.Cleanup(ts.Close)

	return &testAPI{t: t, server: ts, clock: clock}
}

func (a *testAPI) do(method string, path string, body any) *http.Response {
	a.t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequest(method, a.server.URL+path, reader)
	require.NoError(a.t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := a.server.Client().Do(request)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = response.Body.Close() })

	return response
}

func (a *testAPI) doRaw(method string, path string, body string) *http.Response {
	a.t.Helper()

	request, err := http.NewRequest(method, a.server.URL+path, bytes.NewBufferString(body))
	require.NoError(a.t, err)
	request.Header.Set("Content-Type", "application/json")

	response, err := a.server.Client().Do(request)
	require.NoError(a.t, err)
	a.t.Cleanup(func() { _ = response.Body.Close() })

	return response
}

func decodeInto[T any](t *testing.T, response *http.Response) T {
	t.Helper()

	var decoded T
	require.NoError(t, json.NewDecoder(response.Body).Decode(&decoded))

	return decoded
}

type errorBody struct {
	Errors []string `json:"errors"`
}

type bookBody struct {
	ID     string `json:"id"`
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

type loanBody struct {
	ID            string `json:"id"`
	BookID        string `json:"bookId"`
	Customer      string `json:"customer"`
	CustomerEmail string `json:"customerEmail"`
	LoanDate      string `json:"loanDate"`
	Returned      bool   `json:"returned"`
}

type createdBody struct {
	ID string `json:"id"`
}

type pageableBody struct {
	PageNumber int `json:"pageNumber"`
	PageSize   int `json:"pageSize"`
}

type loanPageBody struct {
	Content       []loanBody   `json:"content"`
	TotalElements int64        `json:"totalElements"`
	Pageable      pageableBody `json:"pageable"`
}

type bookPageBody struct {
	Content       []bookBody   `json:"content"`
	TotalElements int64        `json:"totalElements"`
	Pageable      pageableBody `json:"pageable"`
}

func (a *testAPI) registerBook(isbn string, title string, author string) bookBody {
	a.t.Helper()

	response := a.do(http.MethodPost, "/api/books",
		map[string]string{"isbn": isbn, "title": title, "author": author})
	require.Equal(a.t, http.StatusCreated, response.StatusCode)

	return decodeInto[bookBody](a.t, response)
}

func (a *testAPI) createLoan(isbn string, customer string, email string) createdBody {
	a.t.Helper()

	response := a.do(http.MethodPost, "/api/loans",
		map[string]string{"isbn": isbn, "customer": customer, "customerEmail": email})
	require.Equal(a.t, http.StatusCreated, response.StatusCode)

	return decodeInto[createdBody](a.t, response)
}
