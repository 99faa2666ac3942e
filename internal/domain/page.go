package domain

// SortOrder orders a listing by one field.
type SortOrder struct {
	Field string
	Desc  bool
}

// MeetingSortFields lists the fields a meeting listing may be sorted by.
var MeetingSortFields = map[string]bool{
	"createdAt": true,
	"updatedAt": true,
	"startTime": true,
	"title":     true,
	"status":    true,
}

// DefaultPageSize is used when a listing does not specify a page size.
const DefaultPageSize = 20

// MaxPageSize caps the page size a caller may request.
const MaxPageSize = 100

// PageRequest selects a zero-based page of a listing.
type PageRequest struct {
	Page int
	Size int
	Sort []SortOrder
}

// Offset returns the number of rows to skip.
func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// Page is one page of a listing.
type Page[T any] struct {
	Items         []T
	Page          int
	Size          int
	TotalElements int64
}

// TotalPages returns the number of pages needed for TotalElements.
func (p *Page[T]) TotalPages() int {
	if p.Size <= 0 {
		return 0
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}
