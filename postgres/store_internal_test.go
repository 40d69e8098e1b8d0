package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labinf/libraryapi/core"
	"github.com/labinf/libraryapi/postgres/internal/adapters"
)

// fakeDB records the SQL the stores generate and feeds back canned results,
// so statement building and rows-affected handling are testable without a
// database.
type fakeDB struct {
	queries      []string
	execs        []string
	queryResults [][][]any
	queryErr     error
	execAffected int64
	execErr      error
}

func (f *fakeDB) Query(_ context.Context, query string) (adapters.DBRows, error) {
	f.queries = append(f.queries, query)

	if f.queryErr != nil {
		return nil, f.queryErr
	}

	var data [][]any
	if len(f.queryResults) > 0 {
		data = f.queryResults[0]
		f.queryResults = f.queryResults[1:]
	}

	return &fakeRows{data: data}, nil
}

func (f *fakeDB) Exec(_ context.Context, query string) (adapters.DBResult, error) {
	f.execs = append(f.execs, query)

	if f.execErr != nil {
		return nil, f.execErr
	}

	return fakeResult{rowsAffected: f.execAffected}, nil
}

type fakeRows struct {
	data [][]any
	idx  int
}

func (r *fakeRows) Next() bool {
	if r.idx >= len(r.data) {
		return false
	}
	r.idx++

	return true
}

func (r *fakeRows) Scan(dest ...any) error {
	row := r.data[r.idx-1]

	for i, d := range dest {
		switch target := d.(type) {
		case *string:
			*target = row[i].(string)
		case *int64:
			*target = row[i].(int64)
		case *time.Time:
			*target = row[i].(time.Time)
		default:
			return fmt.Errorf("unsupported scan target %T", d)
		}
	}

	return nil
}

func (r *fakeRows) Close() error {
	return nil
}

type fakeResult struct {
	rowsAffected int64
}

func (r fakeResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

func Test_BookStore_Insert_GuardsAgainstDuplicateISBN(t *testing.T) {
	db := &fakeDB{execAffected: 1}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book := core.Book{
		ID:     uuid.New(),
		ISBN:   "978-0134190440",
		Title:  "The Go Programming Language",
		Author: "Donovan, Kernighan",
	}

	require.NoError(t, bs.Insert(context.Background(), book))

	require.Len(t, db.execs, 1)
	sqlQuery := db.execs[0]
	assert.Contains(t, sqlQuery, `WITH duplicates AS`)
	assert.Contains(t, sqlQuery, `'978-0134190440'`)
	assert.Contains(t, sqlQuery, `"isbn_count" = 0`)
	assert.Contains(t, sqlQuery, `INSERT INTO "books"`)
}

func Test_BookStore_Insert_ZeroRowsAffected_IsDuplicate(t *testing.T) {
	db := &fakeDB{execAffected: 0}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book := core.Book{ID: uuid.New(), ISBN: "978-0134190440", Title: "T", Author: "A"}

	assert.ErrorIs(t, bs.Insert(context.Background(), book), core.ErrDuplicateISBN)
}

func Test_BookStore_Update_ZeroRowsAffected_IsNotFound(t *testing.T) {
	db := &fakeDB{execAffected: 0}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book := core.Book{ID: uuid.New(), ISBN: "978-0134190440", Title: "T", Author: "A"}

	assert.ErrorIs(t, bs.Update(context.Background(), book), core.ErrBookNotFound)
}

func Test_BookStore_Update_NeverTouchesISBN(t *testing.T) {
	db := &fakeDB{execAffected: 1}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book := core.Book{ID: uuid.New(), ISBN: "978-0134190440", Title: "T", Author: "A"}
	require.NoError(t, bs.Update(context.Background(), book))

	require.Len(t, db.execs, 1)
	assert.NotContains(t, db.execs[0], `"isbn"`)
}

func Test_BookStore_FindByID_ScansRow(t *testing.T) {
	id := uuid.New()
	db := &fakeDB{queryResults: [][][]any{
		{{id.String(), "978-0134190440", "The Go Programming Language", "Donovan, Kernighan"}},
	}}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book, err := bs.FindByID(context.Background(), id)
	require.NoError(t, err)

	assert.Equal(t, id, book.ID)
	assert.Equal(t, "978-0134190440", book.ISBN)
	assert.Equal(t, "The Go Programming Language", book.Title)
	assert.Equal(t, "Donovan, Kernighan", book.Author)
}

func Test_BookStore_FindByID_NoRow_IsNotFound(t *testing.T) {
	db := &fakeDB{}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	_, err = bs.FindByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, core.ErrBookNotFound)
}

func Test_BookStore_Find_CombinesFiltersWithAnd(t *testing.T) {
	db := &fakeDB{queryResults: [][][]any{
		{{int64(0)}},
		{},
	}}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	_, err = bs.Find(context.Background(),
		core.BookFilter{Title: "go", Author: "donovan"},
		core.PageRequest{Number: 1, Size: 10})
	require.NoError(t, err)

	require.Len(t, db.queries, 2)
	selectQuery := db.queries[1]
	assert.Contains(t, selectQuery, `"title" ILIKE '%go%'`)
	assert.Contains(t, selectQuery, ` AND `)
	assert.Contains(t, selectQuery, `"author" ILIKE '%donovan%'`)
	assert.Contains(t, selectQuery, `LIMIT 10`)
	assert.Contains(t, selectQuery, `OFFSET 10`)
}

func Test_LoanStore_Insert_GuardsAvailabilityInTheStatement(t *testing.T) {
	db := &fakeDB{execAffected: 1}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	loan := core.Loan{
		ID:            uuid.New(),
		BookID:        uuid.New(),
		Customer:      "Anna",
		CustomerEmail: "anna@example.org",
		LoanDate:      time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC),
		Status:        core.StatusOutstanding,
	}

	require.NoError(t, ls.Insert(context.Background(), loan))

	require.Len(t, db.execs, 1)
	sqlQuery := db.execs[0]
	assert.Contains(t, sqlQuery, `WITH availability AS`)
	assert.Contains(t, sqlQuery, `"book_id" = '`+loan.BookID.String()+`'`)
	assert.Contains(t, sqlQuery, `"status" = 'OUTSTANDING'`)
	assert.Contains(t, sqlQuery, `"outstanding_count" = 0`)
	assert.Contains(t, sqlQuery, `INSERT INTO "loans"`)
	assert.Contains(t, sqlQuery, `'2025-06-10'`)
}

func Test_LoanStore_Insert_ZeroRowsAffected_IsAvailabilityConflict(t *testing.T) {
	db := &fakeDB{execAffected: 0}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	loan := core.Loan{ID: uuid.New(), BookID: uuid.New(), Status: core.StatusOutstanding}

	assert.ErrorIs(t, ls.Insert(context.Background(), loan), core.ErrBookAlreadyLoaned)
}

func Test_LoanStore_Insert_UniqueViolation_IsAvailabilityConflict(t *testing.T) {
	// Two racing inserts can both pass the CTE count under READ COMMITTED;
	// the partial unique index then rejects the loser with SQLSTATE 23505.
	tests := []struct {
		name   string
		driver error
	}{
		{
			name: "pgx_driver",
			driver: &pgconn.PgError{
				Code:           "23505",
				ConstraintName: "loans_one_outstanding_per_book",
			},
		},
		{
			name: "libpq_driver",
			driver: &pq.Error{
				Code:       pq.ErrorCode("23505"),
				Constraint: "loans_one_outstanding_per_book",
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := &fakeDB{execErr: tc.driver}
			ls, err := newLoanStore(db)
			require.NoError(t, err)

			loan := core.Loan{ID: uuid.New(), BookID: uuid.New(), Status: core.StatusOutstanding}

			insertErr := ls.Insert(context.Background(), loan)
			assert.ErrorIs(t, insertErr, core.ErrBookAlreadyLoaned)
			assert.NotErrorIs(t, insertErr, ErrExecFailed)
		})
	}
}

func Test_LoanStore_Insert_OtherUniqueViolation_StaysAStorageError(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "loans_pkey"}}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	loan := core.Loan{ID: uuid.New(), BookID: uuid.New(), Status: core.StatusOutstanding}

	insertErr := ls.Insert(context.Background(), loan)
	assert.ErrorIs(t, insertErr, ErrExecFailed)
	assert.NotErrorIs(t, insertErr, core.ErrBookAlreadyLoaned)
}

func Test_BookStore_Insert_UniqueViolation_IsDuplicateISBN(t *testing.T) {
	db := &fakeDB{execErr: &pgconn.PgError{Code: "23505", ConstraintName: "books_isbn_key"}}
	bs, err := newBookStore(db)
	require.NoError(t, err)

	book := core.Book{ID: uuid.New(), ISBN: "978-0134190440", Title: "T", Author: "A"}

	assert.ErrorIs(t, bs.Insert(context.Background(), book), core.ErrDuplicateISBN)
}

func Test_LoanStore_Update_ZeroRowsAffected_IsNotFound(t *testing.T) {
	db := &fakeDB{execAffected: 0}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	loan := core.Loan{ID: uuid.New(), Status: core.StatusReturned}

	assert.ErrorIs(t, ls.Update(context.Background(), loan), core.ErrLoanNotFound)
}

func Test_LoanStore_FindByISBNOrCustomer_BuildsAUnionCondition(t *testing.T) {
	db := &fakeDB{queryResults: [][][]any{
		{{int64(0)}},
		{},
	}}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	_, err = ls.FindByISBNOrCustomer(context.Background(), "978-0134190440", "Bob", core.PageRequest{})
	require.NoError(t, err)

	require.Len(t, db.queries, 2)
	selectQuery := db.queries[1]
	assert.Contains(t, selectQuery, `"books"."isbn" = '978-0134190440'`)
	assert.Contains(t, selectQuery, ` OR `)
	assert.Contains(t, selectQuery, `"loans"."customer" = 'Bob'`)
	assert.Contains(t, selectQuery, `JOIN "books"`)
}

func Test_LoanStore_FindOverdue_SelectsAgedOutstandingLoans(t *testing.T) {
	loanID := uuid.New()
	bookID := uuid.New()
	loanDate := time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)

	db := &fakeDB{queryResults: [][][]any{
		{{loanID.String(), bookID.String(), "Anna", "anna@example.org", loanDate, "OUTSTANDING"}},
	}}
	ls, err := newLoanStore(db)
	require.NoError(t, err)

	cutoff := time.Date(2025, 6, 7, 0, 0, 0, 0, time.UTC)

	loans, err := ls.FindOverdue(context.Background(), cutoff)
	require.NoError(t, err)

	require.Len(t, db.queries, 1)
	assert.Contains(t, db.queries[0], `"status" = 'OUTSTANDING'`)
	assert.Contains(t, db.queries[0], `"loan_date" <= '2025-06-07'`)

	require.Len(t, loans, 1)
	assert.Equal(t, loanID, loans[0].ID)
	assert.Equal(t, bookID, loans[0].BookID)
	assert.Equal(t, core.StatusOutstanding, loans[0].Status)
	assert.Equal(t, loanDate, loans[0].LoanDate)
}

func Test_LoanStore_WithBooksTableName_FollowsRenamedBookStore(t *testing.T) {
	db := &fakeDB{queryResults: [][][]any{
		{{int64(0)}},
		{},
	}}
	ls, err := newLoanStore(db,
		WithTableName("archive_loans"),
		WithBooksTableName("catalog_books"))
	require.NoError(t, err)

	_, err = ls.FindByISBNOrCustomer(context.Background(), "978-0134190440", "Bob", core.PageRequest{})
	require.NoError(t, err)

	require.Len(t, db.queries, 2)
	selectQuery := db.queries[1]
	assert.Contains(t, selectQuery, `JOIN "catalog_books"`)
	assert.Contains(t, selectQuery, `"catalog_books"."isbn" = '978-0134190440'`)
	assert.Contains(t, selectQuery, `"archive_loans"."customer" = 'Bob'`)

	_, err = newLoanStore(&fakeDB{}, WithBooksTableName(""))
	assert.ErrorIs(t, err, ErrEmptyTableName)
}

func Test_Schema_BacksTheInsertGuards(t *testing.T) {
	// The constraint names the inserts map to conflict errors must stay in
	// lockstep with the schema definition.
	assert.Contains(t, Schema, "CREATE UNIQUE INDEX IF NOT EXISTS "+constraintOneOutstandingPerBook)
	assert.Contains(t, Schema, "WHERE status = 'OUTSTANDING'")
	assert.Contains(t, Schema, "isbn   text NOT NULL UNIQUE")
	assert.Contains(t, Schema, "REFERENCES books (id)")
}

func Test_StoreConstructors_RejectNilConnections(t *testing.T) {
	_, err := NewBookStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewLoanStoreFromPGXPool(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewBookStoreFromSQLDB(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)

	_, err = NewLoanStoreFromSQLX(nil)
	assert.ErrorIs(t, err, ErrNilDatabaseConnection)
}

func Test_StoreOptions(t *testing.T) {
	_, err := newBookStore(&fakeDB{}, WithTableName(""))
	assert.ErrorIs(t, err, ErrEmptyTableName)

	bs, err := newBookStore(&fakeDB{execAffected: 1}, WithTableName("catalog_books"))
	require.NoError(t, err)

	book := core.Book{ID: uuid.New(), ISBN: "978-0134190440", Title: "T", Author: "A"}
	require.NoError(t, bs.Insert(context.Background(), book))

	db := bs.db.(*fakeDB)
	require.Len(t, db.execs, 1)
	assert.Contains(t, db.execs[0], `INSERT INTO "catalog_books"`)
}
