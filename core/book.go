package core

import (
	"github.com/google/uuid"
)

// Book represents one lendable unit in the catalog.
// Each record is exactly one physical copy; ISBN is unique across all books.
type Book struct {
	ID     uuid.UUID
	ISBN   string
	Title  string
	Author string
}

// BookFilter narrows a catalog search. Zero-valued fields are ignored;
// set fields are combined with AND, matched as case-insensitive contains.
type BookFilter struct {
	ISBN   string
	Title  string
	Author string
}

// IsEmpty reports whether no filter field is set.
func (f BookFilter) IsEmpty() bool {
	return f.ISBN == "" && f.Title == "" && f.Author == ""
}
