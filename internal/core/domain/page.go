package domain

import "math"

// Page is one 1-indexed slice of an ordered collection.
type Page[T any] struct {
	Items       []T   `json:"data"`
	CurrentPage int   `json:"current_page"`
	PageSize    int   `json:"page_size"`
	TotalItems  int64 `json:"total_items"`
	TotalPages  int   `json:"total_pages"`
}

// NewPage assembles a page and derives TotalPages = ceil(total / size).
func NewPage[T any](items []T, page, size int, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	totalPages := 0
	if size > 0 {
		n := total / int64(size)
		if total%int64(size) != 0 {
			n++
		}
		totalPages = int(n)
	}
	return Page[T]{
		Items:       items,
		CurrentPage: page,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  totalPages,
	}
}

// Offset returns the zero-based row offset of a 1-indexed page. ok is false when
// the offset does not fit in an int; such a page lies past every collection.
func Offset(page, size int) (offset int, ok bool) {
	if page < 1 || size < 1 {
		return 0, false
	}
	if page-1 > math.MaxInt/size {
		return 0, false
	}
	return (page - 1) * size, true
}
