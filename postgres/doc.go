// Package postgres provides the PostgreSQL-backed book and loan stores.
//
// Both stores build their SQL with goqu and run it through a database
// adapter, supporting pgx pools, sqlx, and plain database/sql handles.
//
// The loan store enforces the availability rule atomically: creating a loan
// is a single conditional INSERT guarded by a CTE counting outstanding loans
// for the book, so two concurrent creates for the same book cannot both
// succeed. Zero rows affected means the book is already loaned. A partial
// unique index on loans(book_id) for outstanding rows backs the same rule at
// the schema level.
//
// Usage:
//
//	pool, _ := pgxpool.New(ctx, dsn)
//	loans, _ := postgres.NewLoanStoreFromPGXPool(pool, postgres.WithLogger(logger))
//	books, _ := postgres.NewBookStoreFromPGXPool(pool)
package postgres
