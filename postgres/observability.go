package postgres

import (
	"math"
	"time"
)

// Logger interface for SQL query logging, operational messages, warnings,
// and error reporting. *slog.Logger satisfies it directly.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

const (
	logMsgSQLExecuted    = "executed sql for: "
	logMsgOperation      = "store operation: "
	logAttrError         = "error"
	logAttrQuery         = "query"
	logAttrDurationMS    = "duration_ms"
	logAttrRowsAffected  = "rows_affected"
	logAttrTable         = "table"
	logMsgCloseRows      = "failed to close database rows"
	logMsgQueryFailed    = "database query execution failed"
	logMsgExecFailed     = "database statement execution failed"
	logMsgScanRowFailed  = "failed to scan database row"
	logMsgBuildSQLFailed = "failed to build sql query"
)

// durationToMilliseconds converts a duration to float64 milliseconds with
// 3 decimal places.
func durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
