package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"github.com/labinf/libraryapi/postgres/internal/adapters"
)

const dialectPostgres = "postgres"

const sqlstateUniqueViolation = "23505"

type sqlQueryString = string

// store carries the database adapter plus configuration shared by the
// book and loan stores, and the execution helpers with logging.
type store struct {
	db  adapters.DBAdapter
	cfg storeConfig
}

func builder() goqu.DialectWrapper {
	return goqu.Dialect(dialectPostgres)
}

// executeQuery runs a select and returns rows with timing information.
func (s store) executeQuery(ctx context.Context, sqlQuery sqlQueryString) (adapters.DBRows, time.Duration, error) {
	start := time.Now()
	rows, queryErr := s.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, duration)

	if queryErr != nil {
		if s.cfg.logger != nil {
			s.cfg.logger.Error(logMsgQueryFailed, logAttrError, queryErr.Error(), logAttrQuery, sqlQuery)
		}

		return nil, duration, errors.Join(ErrQueryingFailed, queryErr)
	}

	return rows, duration, nil
}

// executeExec runs a statement and returns the affected row count with timing.
func (s store) executeExec(ctx context.Context, sqlQuery sqlQueryString) (int64, time.Duration, error) {
	start := time.Now()
	result, execErr := s.db.Exec(ctx, sqlQuery)
	duration := time.Since(start)
	s.logQueryWithDuration(sqlQuery, duration)

	if execErr != nil {
		if s.cfg.logger != nil {
			s.cfg.logger.Error(logMsgExecFailed, logAttrError, execErr.Error(), logAttrQuery, sqlQuery)
		}

		return 0, duration, errors.Join(ErrExecFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		if s.cfg.logger != nil {
			s.cfg.logger.Error(logMsgExecFailed, logAttrError, rowsAffectedErr.Error())
		}

		return 0, duration, errors.Join(ErrExecFailed, rowsAffectedErr)
	}

	return rowsAffected, duration, nil
}

// closeRows safely closes database rows and logs any errors.
func (s store) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if s.cfg.logger != nil {
			s.cfg.logger.Warn(logMsgCloseRows, logAttrError, closeErr.Error())
		}
	}
}

// countRows runs a count query and scans the single result value.
func (s store) countRows(ctx context.Context, sqlQuery sqlQueryString) (int64, error) {
	rows, _, queryErr := s.executeQuery(ctx, sqlQuery)
	if queryErr != nil {
		return 0, queryErr
	}
	defer s.closeRows(rows)

	var total int64
	if rows.Next() {
		if scanErr := rows.Scan(&total); scanErr != nil {
			if s.cfg.logger != nil {
				s.cfg.logger.Error(logMsgScanRowFailed, logAttrError, scanErr.Error())
			}

			return 0, errors.Join(ErrScanningDBRowFailed, scanErr)
		}
	}

	return total, nil
}

// uniqueViolation reports whether err carries a unique-constraint violation
// and names the violated constraint. Covers both the pgx and lib/pq drivers.
func uniqueViolation(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlstateUniqueViolation {
		return pgErr.ConstraintName, true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == sqlstateUniqueViolation {
		return pqErr.Constraint, true
	}

	return "", false
}

// logQueryWithDuration logs SQL with execution time at debug level.
func (s store) logQueryWithDuration(sqlQuery sqlQueryString, duration time.Duration) {
	if s.cfg.logger != nil {
		s.cfg.logger.Debug(logMsgSQLExecuted+s.cfg.tableName,
			logAttrDurationMS, durationToMilliseconds(duration),
			logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level.
func (s store) logOperation(action string, args ...any) {
	if s.cfg.logger != nil {
		s.cfg.logger.Info(logMsgOperation+action, args...)
	}
}

// logBuildError logs SQL generation failures at error level.
func (s store) logBuildError(err error) {
	if s.cfg.logger != nil {
		s.cfg.logger.Error(logMsgBuildSQLFailed, logAttrError, err.Error(), logAttrTable, s.cfg.tableName)
	}
}
