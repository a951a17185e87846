package query

import "strconv"

// Page addresses one slice of an ordered result set. Number is 1-based.
type Page struct {
	Number int
	Size   int
}

// ParsePage reads a page number; anything unparsable or below 1 becomes page 1.
func ParsePage(raw string, size int) Page {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		n = 1
	}
	if size < 1 {
		size = 1
	}
	return Page{Number: n, Size: size}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	if p.Number < 1 {
		return 0
	}
	return (p.Number - 1) * p.Size
}

// Paginated is one page of items plus totals. Pages past the end have no items.
type Paginated[T any] struct {
	Items      []T   `json:"items"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// NewPaginated assembles a page result.
func NewPaginated[T any](items []T, p Page, total int64) Paginated[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if p.Size > 0 {
		pages = int((total + int64(p.Size) - 1) / int64(p.Size))
	}
	return Paginated[T]{
		Items:      items,
		Page:       p.Number,
		PageSize:   p.Size,
		Total:      total,
		TotalPages: pages,
		HasNext:    p.Number < pages,
	}
}

// Map converts the items of a page while keeping its totals.
func Map[T, U any](in Paginated[T], fn func(T) U) Paginated[U] {
	out := make([]U, len(in.Items))
	for i, item := range in.Items {
		out[i] = fn(item)
	}
	return Paginated[U]{
		Items:      out,
		Page:       in.Page,
		PageSize:   in.PageSize,
		Total:      in.Total,
		TotalPages: in.TotalPages,
		HasNext:    in.HasNext,
	}
}
