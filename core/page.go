package core

const (
	// DefaultPageSize is applied when a caller does not specify a size.
	DefaultPageSize = 20
	// MaxPageSize caps the size a caller may request.
	MaxPageSize = 100
)

// PageRequest addresses one page of a result set. Number is zero-based.
type PageRequest struct {
	Number int
	Size   int
}

// Normalized returns a copy with Number clamped to >= 0 and Size forced
// into the [1, MaxPageSize] range, defaulting to DefaultPageSize.
func (p PageRequest) Normalized() PageRequest {
	if p.Number < 0 {
		p.Number = 0
	}
	if p.Size <= 0 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset returns the number of elements to skip for this page.
func (p PageRequest) Offset() int {
	return p.Number * p.Size
}

// Page carries one page of results together with the total element count,
// so clients can compute the page count themselves.
type Page[T any] struct {
	Content       []T
	TotalElements int64
	PageNumber    int
	PageSize      int
}

// NewPage builds a Page for the given request.
func NewPage[T any](content []T, total int64, request PageRequest) Page[T] {
	return Page[T]{
		Content:       content,
		TotalElements: total,
		PageNumber:    request.Number,
		PageSize:      request.Size,
	}
}
