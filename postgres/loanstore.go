package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/labinf/libraryapi/core"
	"github.com/labinf/libraryapi/postgres/internal/adapters"
)

const (
	defaultLoansTableName = "loans"

	colLoanID        = "id"
	colLoanBookID    = "book_id"
	colCustomer      = "customer"
	colCustomerEmail = "customer_email"
	colLoanDate      = "loan_date"
	colStatus        = "status"

	cteAvailability       = "availability"
	aliasOutstandingCount = "outstanding_count"

	// Partial unique index in Schema backing the availability rule.
	constraintOneOutstandingPerBook = "loans_one_outstanding_per_book"

	logMsgLoanInserted        = "loan inserted"
	logMsgAvailabilityRefused = "availability conflict detected"
	logAttrLoanID             = "loan_id"
)

// LoanStore persists loans in a PostgreSQL table.
type LoanStore struct {
	store
	booksTableName string
}

// NewLoanStoreFromPGXPool creates a LoanStore using a pgx pool.
func NewLoanStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewPGXAdapter(db), options...)
}

// NewLoanStoreFromSQLDB creates a LoanStore using a sql.DB.
func NewLoanStoreFromSQLDB(db *sql.DB, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLAdapter(db), options...)
}

// NewLoanStoreFromSQLX creates a LoanStore using a sqlx.DB.
func NewLoanStoreFromSQLX(db *sqlx.DB, options ...Option) (LoanStore, error) {
	if db == nil {
		return LoanStore{}, ErrNilDatabaseConnection
	}

	return newLoanStore(adapters.NewSQLXAdapter(db), options...)
}

func newLoanStore(db adapters.DBAdapter, options ...Option) (LoanStore, error) {
	cfg := storeConfig{tableName: defaultLoansTableName}

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return LoanStore{}, err
		}
	}

	booksTableName := cfg.booksTableName
	if booksTableName == "" {
		booksTableName = defaultBooksTableName
	}

	return LoanStore{
		store:          store{db: db, cfg: cfg},
		booksTableName: booksTableName,
	}, nil
}

// Insert persists a new loan, enforcing the availability rule in the same
// statement: a CTE counts outstanding loans for the book, and the INSERT
// selects its values only while that count is zero. A sequential conflict
// therefore affects zero rows and fails with core.ErrBookAlreadyLoaned.
//
// Under READ COMMITTED two simultaneous statements can both snapshot a zero
// count before either commits; the partial unique index then rejects the
// loser with a unique violation, which maps to the same conflict error.
func (ls LoanStore) Insert(ctx context.Context, loan core.Loan) error {
	sqlQuery, buildErr := ls.buildInsertQuery(loan)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, duration, execErr := ls.executeExec(ctx, sqlQuery)
	if execErr != nil {
		if constraint, ok := uniqueViolation(execErr); ok && constraint == constraintOneOutstandingPerBook {
			ls.logOperation(logMsgAvailabilityRefused, logAttrBookID, loan.BookID.String())
			return core.ErrBookAlreadyLoaned
		}

		return execErr
	}

	if rowsAffected == 0 {
		ls.logOperation(logMsgAvailabilityRefused, logAttrBookID, loan.BookID.String())
		return core.ErrBookAlreadyLoaned
	}

	ls.logOperation(logMsgLoanInserted,
		logAttrLoanID, loan.ID.String(),
		logAttrBookID, loan.BookID.String(),
		logAttrDurationMS, durationToMilliseconds(duration))

	return nil
}

func (ls LoanStore) buildInsertQuery(loan core.Loan) (sqlQueryString, error) {
	cteStmt := builder().
		From(ls.cfg.tableName).
		Select(goqu.COUNT(goqu.Star()).As(aliasOutstandingCount)).
		Where(goqu.And(
			goqu.C(colLoanBookID).Eq(loan.BookID.String()),
			goqu.C(colStatus).Eq(string(core.StatusOutstanding)),
		))

	selectStmt := builder().
		From(cteAvailability).
		Select(
			goqu.V(loan.ID.String()),
			goqu.V(loan.BookID.String()),
			goqu.V(loan.Customer),
			goqu.V(loan.CustomerEmail),
			goqu.V(loan.LoanDate.Format(time.DateOnly)),
			goqu.V(string(loan.Status)),
		).
		Where(goqu.C(aliasOutstandingCount).Eq(0))

	insertStmt := builder().
		Insert(ls.cfg.tableName).
		Cols(colLoanID, colLoanBookID, colCustomer, colCustomerEmail, colLoanDate, colStatus).
		FromQuery(selectStmt).
		With(cteAvailability, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		ls.logBuildError(toSQLErr)
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// Update persists the mutable fields of an existing loan: customer,
// customer email, and status. Book and loan date never change. Fails with
// core.ErrLoanNotFound for unknown ids.
func (ls LoanStore) Update(ctx context.Context, loan core.Loan) error {
	updateStmt := builder().
		Update(ls.cfg.tableName).
		Set(goqu.Record{
			colCustomer:      loan.Customer,
			colCustomerEmail: loan.CustomerEmail,
			colStatus:        string(loan.Status),
		}).
		Where(goqu.C(colLoanID).Eq(loan.ID.String()))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		ls.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, _, execErr := ls.executeExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return core.ErrLoanNotFound
	}

	return nil
}

// FindByID loads one loan by id, failing with core.ErrLoanNotFound.
func (ls LoanStore) FindByID(ctx context.Context, id uuid.UUID) (core.Loan, error) {
	selectStmt := ls.selectLoans().
		Where(goqu.C(colLoanID).Eq(id.String())).
		Limit(1)

	sqlQuery, err := ls.buildLoanQuery(selectStmt)
	if err != nil {
		return core.Loan{}, err
	}

	return ls.firstOrNotFound(ctx, sqlQuery)
}

// ExistsOutstandingForBook reports whether the book currently has an
// outstanding loan. Insert enforces the rule atomically on its own; this
// query exists for callers that only need the availability answer.
func (ls LoanStore) ExistsOutstandingForBook(ctx context.Context, bookID uuid.UUID) (bool, error) {
	countStmt := builder().
		From(ls.cfg.tableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.And(
			goqu.C(colLoanBookID).Eq(bookID.String()),
			goqu.C(colStatus).Eq(string(core.StatusOutstanding)),
		))

	sqlQuery, _, toSQLErr := countStmt.ToSQL()
	if toSQLErr != nil {
		ls.logBuildError(toSQLErr)
		return false, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	total, err := ls.countRows(ctx, sqlQuery)
	if err != nil {
		return false, err
	}

	return total > 0, nil
}

// FindByISBNOrCustomer returns one page of loans whose book ISBN equals
// isbn OR whose customer equals customer. The OR is deliberate and part of
// the search contract: a loan matches when either field matches.
func (ls LoanStore) FindByISBNOrCustomer(ctx context.Context, isbn string, customer string, page core.PageRequest) (core.Page[core.Loan], error) {
	page = page.Normalized()
	var empty core.Page[core.Loan]

	condition := goqu.Or(
		goqu.I(ls.booksTableName+"."+colISBN).Eq(isbn),
		goqu.I(ls.cfg.tableName+"."+colCustomer).Eq(customer),
	)

	joinCondition := goqu.On(
		goqu.I(ls.cfg.tableName + "." + colLoanBookID).Eq(goqu.I(ls.booksTableName + "." + colBookID)),
	)

	countStmt := builder().
		From(ls.cfg.tableName).
		Join(goqu.T(ls.booksTableName), joinCondition).
		Select(goqu.COUNT(goqu.Star())).
		Where(condition)

	countQuery, _, countSQLErr := countStmt.ToSQL()
	if countSQLErr != nil {
		ls.logBuildError(countSQLErr)
		return empty, errors.Join(ErrBuildingQueryFailed, countSQLErr)
	}

	total, countErr := ls.countRows(ctx, countQuery)
	if countErr != nil {
		return empty, countErr
	}

	selectStmt := builder().
		From(ls.cfg.tableName).
		Join(goqu.T(ls.booksTableName), joinCondition).
		Select(ls.loanColumns()...).
		Where(condition).
		Order(goqu.I(ls.cfg.tableName+"."+colLoanDate).Asc(), goqu.I(ls.cfg.tableName+"."+colLoanID).Asc()).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset()))

	sqlQuery, queryErr := ls.buildLoanQuery(selectStmt)
	if queryErr != nil {
		return empty, queryErr
	}

	results, fetchErr := ls.fetchLoans(ctx, sqlQuery)
	if fetchErr != nil {
		return empty, fetchErr
	}

	return core.NewPage(results, total, page), nil
}

// FindByBook returns one page of loans for a single book.
func (ls LoanStore) FindByBook(ctx context.Context, bookID uuid.UUID, page core.PageRequest) (core.Page[core.Loan], error) {
	page = page.Normalized()
	var empty core.Page[core.Loan]

	condition := goqu.C(colLoanBookID).Eq(bookID.String())

	countStmt := builder().
		From(ls.cfg.tableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(condition)

	countQuery, _, countSQLErr := countStmt.ToSQL()
	if countSQLErr != nil {
		ls.logBuildError(countSQLErr)
		return empty, errors.Join(ErrBuildingQueryFailed, countSQLErr)
	}

	total, countErr := ls.countRows(ctx, countQuery)
	if countErr != nil {
		return empty, countErr
	}

	selectStmt := ls.selectLoans().
		Where(condition).
		Order(goqu.I(colLoanDate).Asc(), goqu.I(colLoanID).Asc()).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset()))

	sqlQuery, queryErr := ls.buildLoanQuery(selectStmt)
	if queryErr != nil {
		return empty, queryErr
	}

	results, fetchErr := ls.fetchLoans(ctx, sqlQuery)
	if fetchErr != nil {
		return empty, fetchErr
	}

	return core.NewPage(results, total, page), nil
}

// FindOverdue returns every outstanding loan whose loan date is at or
// before the cutoff day. Used by the overdue sweep; no pagination.
func (ls LoanStore) FindOverdue(ctx context.Context, cutoff time.Time) ([]core.Loan, error) {
	selectStmt := ls.selectLoans().
		Where(goqu.And(
			goqu.C(colStatus).Eq(string(core.StatusOutstanding)),
			goqu.C(colLoanDate).Lte(cutoff.Format(time.DateOnly)),
		)).
		Order(goqu.I(colLoanDate).Asc(), goqu.I(colLoanID).Asc())

	sqlQuery, err := ls.buildLoanQuery(selectStmt)
	if err != nil {
		return nil, err
	}

	return ls.fetchLoans(ctx, sqlQuery)
}

// ListAll returns every loan, oldest first. No pagination.
func (ls LoanStore) ListAll(ctx context.Context) ([]core.Loan, error) {
	selectStmt := ls.selectLoans().
		Order(goqu.I(colLoanDate).Asc(), goqu.I(colLoanID).Asc())

	sqlQuery, err := ls.buildLoanQuery(selectStmt)
	if err != nil {
		return nil, err
	}

	return ls.fetchLoans(ctx, sqlQuery)
}

func (ls LoanStore) loanColumns() []any {
	prefix := ls.cfg.tableName + "."

	return []any{
		goqu.I(prefix + colLoanID),
		goqu.I(prefix + colLoanBookID),
		goqu.I(prefix + colCustomer),
		goqu.I(prefix + colCustomerEmail),
		goqu.I(prefix + colLoanDate),
		goqu.I(prefix + colStatus),
	}
}

func (ls LoanStore) selectLoans() *goqu.SelectDataset {
	return builder().
		From(ls.cfg.tableName).
		Select(ls.loanColumns()...)
}

func (ls LoanStore) buildLoanQuery(selectStmt *goqu.SelectDataset) (sqlQueryString, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ls.logBuildError(toSQLErr)
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

func (ls LoanStore) fetchLoans(ctx context.Context, sqlQuery sqlQueryString) ([]core.Loan, error) {
	rows, _, queryErr := ls.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer ls.closeRows(rows)

	loans := make([]core.Loan, 0)

	for rows.Next() {
		var idText, bookIDText, statusText string
		var loan core.Loan

		scanErr := rows.Scan(&idText, &bookIDText, &loan.Customer, &loan.CustomerEmail, &loan.LoanDate, &statusText)
		if scanErr != nil {
			if ls.cfg.logger != nil {
				ls.cfg.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		id, idErr := uuid.Parse(idText)
		if idErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, idErr)
		}

		bookID, bookIDErr := uuid.Parse(bookIDText)
		if bookIDErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, bookIDErr)
		}

		loan.ID = id
		loan.BookID = bookID
		loan.LoanDate = core.ToLoanDate(loan.LoanDate)
		loan.Status = core.LoanStatus(statusText)
		loans = append(loans, loan)
	}

	return loans, nil
}

func (ls LoanStore) firstOrNotFound(ctx context.Context, sqlQuery sqlQueryString) (core.Loan, error) {
	loans, err := ls.fetchLoans(ctx, sqlQuery)
	if err != nil {
		return core.Loan{}, err
	}

	if len(loans) == 0 {
		return core.Loan{}, core.ErrLoanNotFound
	}

	return loans[0], nil
}
