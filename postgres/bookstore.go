package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/labinf/libraryapi/core"
	"github.com/labinf/libraryapi/postgres/internal/adapters"
)

const (
	defaultBooksTableName = "books"

	colBookID = "id"
	colISBN   = "isbn"
	colTitle  = "title"
	colAuthor = "author"

	cteDuplicates  = "duplicates"
	aliasISBNCount = "isbn_count"

	// Unique constraint on books.isbn, as named by Schema.
	constraintBooksISBNKey = "books_isbn_key"

	logMsgBookInserted  = "book inserted"
	logMsgDuplicateISBN = "duplicate isbn rejected"
	logAttrISBN         = "isbn"
	logAttrBookID       = "book_id"
)

// BookStore persists the catalog in a PostgreSQL table.
type BookStore struct {
	store
}

// NewBookStoreFromPGXPool creates a BookStore using a pgx pool.
func NewBookStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (BookStore, error) {
	if db == nil {
		return BookStore{}, ErrNilDatabaseConnection
	}

	return newBookStore(adapters.NewPGXAdapter(db), options...)
}

// NewBookStoreFromSQLDB creates a BookStore using a sql.DB.
func NewBookStoreFromSQLDB(db *sql.DB, options ...Option) (BookStore, error) {
	if db == nil {
		return BookStore{}, ErrNilDatabaseConnection
	}

	return newBookStore(adapters.NewSQLAdapter(db), options...)
}

// NewBookStoreFromSQLX creates a BookStore using a sqlx.DB.
func NewBookStoreFromSQLX(db *sqlx.DB, options ...Option) (BookStore, error) {
	if db == nil {
		return BookStore{}, ErrNilDatabaseConnection
	}

	return newBookStore(adapters.NewSQLXAdapter(db), options...)
}

func newBookStore(db adapters.DBAdapter, options ...Option) (BookStore, error) {
	cfg := storeConfig{tableName: defaultBooksTableName}

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return BookStore{}, err
		}
	}

	return BookStore{store: store{db: db, cfg: cfg}}, nil
}

// Insert persists a new book. The insert is guarded by a CTE counting books
// with the same ISBN, so a duplicate ISBN affects zero rows and fails with
// core.ErrDuplicateISBN without a prior round trip. Two simultaneous inserts
// of the same ISBN can both pass the count check; the unique constraint on
// the isbn column rejects the loser, which maps to the same error.
func (bs BookStore) Insert(ctx context.Context, book core.Book) error {
	sqlQuery, buildErr := bs.buildInsertQuery(book)
	if buildErr != nil {
		return buildErr
	}

	rowsAffected, duration, execErr := bs.executeExec(ctx, sqlQuery)
	if execErr != nil {
		if constraint, ok := uniqueViolation(execErr); ok && constraint == constraintBooksISBNKey {
			bs.logOperation(logMsgDuplicateISBN, logAttrISBN, book.ISBN)
			return core.ErrDuplicateISBN
		}

		return execErr
	}

	if rowsAffected == 0 {
		bs.logOperation(logMsgDuplicateISBN, logAttrISBN, book.ISBN)
		return core.ErrDuplicateISBN
	}

	bs.logOperation(logMsgBookInserted,
		logAttrBookID, book.ID.String(),
		logAttrDurationMS, durationToMilliseconds(duration))

	return nil
}

func (bs BookStore) buildInsertQuery(book core.Book) (sqlQueryString, error) {
	cteStmt := builder().
		From(bs.cfg.tableName).
		Select(goqu.COUNT(goqu.Star()).As(aliasISBNCount)).
		Where(goqu.C(colISBN).Eq(book.ISBN))

	selectStmt := builder().
		From(cteDuplicates).
		Select(goqu.V(book.ID.String()), goqu.V(book.ISBN), goqu.V(book.Title), goqu.V(book.Author)).
		Where(goqu.C(aliasISBNCount).Eq(0))

	insertStmt := builder().
		Insert(bs.cfg.tableName).
		Cols(colBookID, colISBN, colTitle, colAuthor).
		FromQuery(selectStmt).
		With(cteDuplicates, cteStmt)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return "", errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	return sqlQuery, nil
}

// Update changes the title and author of an existing book. The ISBN is
// immutable once assigned. Fails with core.ErrBookNotFound for unknown ids.
func (bs BookStore) Update(ctx context.Context, book core.Book) error {
	updateStmt := builder().
		Update(bs.cfg.tableName).
		Set(goqu.Record{colTitle: book.Title, colAuthor: book.Author}).
		Where(goqu.C(colBookID).Eq(book.ID.String()))

	sqlQuery, _, toSQLErr := updateStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, _, execErr := bs.executeExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return core.ErrBookNotFound
	}

	return nil
}

// Delete removes a book from the catalog. Loans referencing it are kept;
// the foreign key rejects deleting a book that still has loan history.
func (bs BookStore) Delete(ctx context.Context, id uuid.UUID) error {
	deleteStmt := builder().
		Delete(bs.cfg.tableName).
		Where(goqu.C(colBookID).Eq(id.String()))

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	rowsAffected, _, execErr := bs.executeExec(ctx, sqlQuery)
	if execErr != nil {
		return execErr
	}

	if rowsAffected == 0 {
		return core.ErrBookNotFound
	}

	return nil
}

// FindByID loads one book by id, failing with core.ErrBookNotFound.
func (bs BookStore) FindByID(ctx context.Context, id uuid.UUID) (core.Book, error) {
	return bs.findOne(ctx, goqu.C(colBookID).Eq(id.String()))
}

// FindByISBN loads one book by ISBN, failing with core.ErrBookNotFound.
func (bs BookStore) FindByISBN(ctx context.Context, isbn string) (core.Book, error) {
	return bs.findOne(ctx, goqu.C(colISBN).Eq(isbn))
}

func (bs BookStore) findOne(ctx context.Context, condition goqu.Expression) (core.Book, error) {
	selectStmt := builder().
		From(bs.cfg.tableName).
		Select(colBookID, colISBN, colTitle, colAuthor).
		Where(condition).
		Limit(1)

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return core.Book{}, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	books, err := bs.queryBooks(ctx, sqlQuery)
	if err != nil {
		return core.Book{}, err
	}

	if len(books) == 0 {
		return core.Book{}, core.ErrBookNotFound
	}

	return books[0], nil
}

// ExistsByISBN reports whether a book with the given ISBN is registered.
func (bs BookStore) ExistsByISBN(ctx context.Context, isbn string) (bool, error) {
	countStmt := builder().
		From(bs.cfg.tableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.C(colISBN).Eq(isbn))

	sqlQuery, _, toSQLErr := countStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return false, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	total, err := bs.countRows(ctx, sqlQuery)
	if err != nil {
		return false, err
	}

	return total > 0, nil
}

// Find returns one page of books matching the filter, together with the
// total match count. Set filter fields are combined with AND and matched as
// case-insensitive contains, mirroring the catalog search contract.
func (bs BookStore) Find(ctx context.Context, filter core.BookFilter, page core.PageRequest) (core.Page[core.Book], error) {
	page = page.Normalized()
	var empty core.Page[core.Book]

	condition := bs.filterCondition(filter)

	countStmt := builder().
		From(bs.cfg.tableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(condition)

	countQuery, _, countSQLErr := countStmt.ToSQL()
	if countSQLErr != nil {
		bs.logBuildError(countSQLErr)
		return empty, errors.Join(ErrBuildingQueryFailed, countSQLErr)
	}

	total, countErr := bs.countRows(ctx, countQuery)
	if countErr != nil {
		return empty, countErr
	}

	selectStmt := builder().
		From(bs.cfg.tableName).
		Select(colBookID, colISBN, colTitle, colAuthor).
		Where(condition).
		Order(goqu.I(colISBN).Asc()).
		Limit(uint(page.Size)).
		Offset(uint(page.Offset()))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		bs.logBuildError(toSQLErr)
		return empty, errors.Join(ErrBuildingQueryFailed, toSQLErr)
	}

	books, queryErr := bs.queryBooks(ctx, sqlQuery)
	if queryErr != nil {
		return empty, queryErr
	}

	return core.NewPage(books, total, page), nil
}

func (bs BookStore) filterCondition(filter core.BookFilter) goqu.Expression {
	expressions := make([]goqu.Expression, 0)

	if filter.ISBN != "" {
		expressions = append(expressions, goqu.C(colISBN).ILike("%"+filter.ISBN+"%"))
	}

	if filter.Title != "" {
		expressions = append(expressions, goqu.C(colTitle).ILike("%"+filter.Title+"%"))
	}

	if filter.Author != "" {
		expressions = append(expressions, goqu.C(colAuthor).ILike("%"+filter.Author+"%"))
	}

	return goqu.And(expressions...)
}

func (bs BookStore) queryBooks(ctx context.Context, sqlQuery sqlQueryString) ([]core.Book, error) {
	rows, _, queryErr := bs.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return nil, queryErr
	}
	defer bs.closeRows(rows)

	books := make([]core.Book, 0)

	for rows.Next() {
		var idText string
		var book core.Book

		if scanErr := rows.Scan(&idText, &book.ISBN, &book.Title, &book.Author); scanErr != nil {
			if bs.cfg.logger != nil {
				bs.cfg.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return nil, errors.Join(ErrScanningDBRowFailed, scanErr)
		}

		id, parseErr := uuid.Parse(idText)
		if parseErr != nil {
			return nil, errors.Join(ErrScanningDBRowFailed, parseErr)
		}

		book.ID = id
		books = append(books, book)
	}

	return books, nil
}
