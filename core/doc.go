// Package core contains the domain model of the library lending service:
// books, loans, their lifecycle states, the shared pagination contracts,
// and the pure business rules that do not touch I/O.
//
// The availability rule (a book may have at most one outstanding loan) is
// owned by this package conceptually, but its atomic enforcement lives in
// the storage layer, which performs the check-and-insert as one statement.
//
// In Domain-Driven Design or Hexagonal Architecture terminology, this would
// be called the 'domain' layer.
package core
