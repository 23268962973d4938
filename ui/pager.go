package ui

// DefaultPageSize matches the five-row pages every entity table uses.
const DefaultPageSize = 5

// Pager slices an ordered list into fixed-size pages. Pages are 1-based.
// When the backing list shrinks below the current page, the page is clamped
// back into range; all tables share this behavior.
type Pager struct {
	pageSize int
	page     int
	total    int
}

// NewPager starts on page 1. A non-positive pageSize falls back to the
// default.
func NewPager(pageSize int) *Pager {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Pager{pageSize: pageSize, page: 1}
}

// SetTotal records the list length and clamps the current page.
func (p *Pager) SetTotal(n int) {
	if n < 0 {
		n = 0
	}
	p.total = n
	if tp := p.TotalPages(); p.page > tp && tp > 0 {
		p.page = tp
	}
	if p.page < 1 {
		p.page = 1
	}
}

// PageSize returns the fixed page size.
func (p *Pager) PageSize() int { return p.pageSize }

// Page returns the current 1-based page.
func (p *Pager) Page() int { return p.page }

// TotalPages is ceil(total / pageSize); zero for an empty list.
func (p *Pager) TotalPages() int {
	return (p.total + p.pageSize - 1) / p.pageSize
}

// Next advances one page, reporting whether it moved. It never passes the
// last page.
func (p *Pager) Next() bool {
	if p.page < p.TotalPages() {
		p.page++
		return true
	}
	return false
}

// Prev steps back one page, reporting whether it moved.
func (p *Pager) Prev() bool {
	if p.page > 1 {
		p.page--
		return true
	}
	return false
}

// Reset returns to page 1.
func (p *Pager) Reset() { p.page = 1 }

// Bounds returns the [start, end) slice indices of the current page.
func (p *Pager) Bounds() (int, int) {
	start := (p.page - 1) * p.pageSize
	if start > p.total {
		start = p.total
	}
	end := start + p.pageSize
	if end > p.total {
		end = p.total
	}
	return start, end
}
