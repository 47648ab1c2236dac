package pagination

import "math"

const (
	// DefaultPageSize is the standard page size when one is not provided.
	DefaultPageSize = 10
	// MaxPageSize caps how many rows any page query can request.
	MaxPageSize = 100
)

// PageInfo is the page request carried in search bodies.
type PageInfo struct {
	PageNum  int `json:"pageNum"`
	PageSize int `json:"pageSize"`
}

// PageResult echoes the page request together with the totals.
type PageResult struct {
	PageNum    int   `json:"pageNum"`
	PageSize   int   `json:"pageSize"`
	TotalItems int64 `json:"totalItems"`
	TotalPages int   `json:"totalPages"`
}

// Page is the response shape for paged searches.
type Page[T any] struct {
	PageData []T        `json:"pageData"`
	PageInfo PageResult `json:"pageInfo"`
}

// Normalize enforces page >= 1 and the default/maximum page size.
func (p PageInfo) Normalize() PageInfo {
	if p.PageNum < 1 {
		p.PageNum = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

// Offset returns the row offset of the normalized page.
func (p PageInfo) Offset() int {
	n := p.Normalize()
	return (n.PageNum - 1) * n.PageSize
}

// Limit returns the normalized page size.
func (p PageInfo) Limit() int {
	return p.Normalize().PageSize
}

// Result builds the response page info for total matching rows.
func (p PageInfo) Result(total int64) PageResult {
	n := p.Normalize()
	pages := 0
	if total > 0 {
		pages = int(math.Ceil(float64(total) / float64(n.PageSize)))
	}
	return PageResult{
		PageNum:    n.PageNum,
		PageSize:   n.PageSize,
		TotalItems: total,
		TotalPages: pages,
	}
}

// NewPage assembles a page, never returning a nil data slice.
func NewPage[T any](items []T, req PageInfo, total int64) Page[T] {
	if items == nil {
		items = []T{}
	}
	return Page[T]{PageData: items, PageInfo: req.Result(total)}
}
