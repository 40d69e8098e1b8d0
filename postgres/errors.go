package postgres

import "errors"

var (
	// ErrNilDatabaseConnection is returned by the store constructors when
	// the supplied database handle is nil.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableName is returned when an option supplies an empty table name.
	ErrEmptyTableName = errors.New("empty table name supplied")

	// ErrBuildingQueryFailed wraps goqu SQL generation failures.
	ErrBuildingQueryFailed = errors.New("building query failed")

	// ErrQueryingFailed wraps driver failures while executing a select.
	ErrQueryingFailed = errors.New("querying failed")

	// ErrExecFailed wraps driver failures while executing a statement.
	ErrExecFailed = errors.New("statement execution failed")

	// ErrScanningDBRowFailed wraps row scan failures.
	ErrScanningDBRowFailed = errors.New("scanning database row failed")
)
