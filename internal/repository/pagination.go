package repository

// Product listings page newest first. Pages are numbered from 1.
const (
	DefaultPage     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type PageRequest struct {
	Page     int
	PageSize int
}

// PageResult is one page of a listing. Total counts every product matching
// the filter, not just the ones on this page.
type PageResult[T any] struct {
	Items      []T
	Page       int
	PageSize   int
	Total      int64
	TotalPages int
}

// normalized fills in defaults and clamps the page size to MaxPageSize.
func (p PageRequest) normalized() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	switch {
	case p.PageSize < 1:
		p.PageSize = DefaultPageSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	return p
}

func (p PageRequest) offset() int {
	return (p.Page - 1) * p.PageSize
}

// newPageResult wraps the items fetched for a normalized request. A page past
// the end is empty but still reports the real total.
func newPageResult[T any](items []T, req PageRequest, total int64) PageResult[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		size := int64(req.PageSize)
		pages = int((total + size - 1) / size)
	}
	return PageResult[T]{
		Items:      items,
		Page:       req.Page,
		PageSize:   req.PageSize,
		Total:      total,
		TotalPages: pages,
	}
}
