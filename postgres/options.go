package postgres

// storeConfig holds the settings shared by both stores.
type storeConfig struct {
	tableName      string
	booksTableName string
	logger         Logger
}

// Option defines a functional option for configuring a store.
type Option func(*storeConfig) error

// WithTableName overrides the default table name of the store.
func WithTableName(tableName string) Option {
	return func(c *storeConfig) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		c.tableName = tableName

		return nil
	}
}

// WithBooksTableName overrides the books table name the loan store joins
// against. A loan store paired with a renamed book store needs both options.
func WithBooksTableName(tableName string) Option {
	return func(c *storeConfig) error {
		if tableName == "" {
			return ErrEmptyTableName
		}

		c.booksTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the store.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: row counts and durations (production-safe)
// Warn level: non-critical issues like cleanup failures
// Error level: failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(c *storeConfig) error {
		c.logger = logger
		return nil
	}
}
