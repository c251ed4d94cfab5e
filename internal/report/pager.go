// Package report turns prediction results into the figures, tables and
// exports the dashboard shows.
package report

// PageSize is the number of results shown per table page.
const PageSize = 10

// Pager tracks the visible page of a result table. Pages are 1-based and
// there is always at least one page, even for an empty table.
type Pager struct {
	total int
	page  int
}

// NewPager returns a pager positioned on the first page.
func NewPager(total int) Pager {
	if total < 0 {
		total = 0
	}
	return Pager{total: total, page: 1}
}

// Total is the number of rows being paged.
func (p Pager) Total() int {
	return p.total
}

// PageCount is ceil(total/PageSize), never less than one.
func (p Pager) PageCount() int {
	if p.total == 0 {
		return 1
	}
	return (p.total + PageSize - 1) / PageSize
}

// Page is the current page.
func (p Pager) Page() int {
	if p.page < 1 {
		return 1
	}
	return p.page
}

// SetPage moves to page n, clamped to the valid range.
func (p Pager) SetPage(n int) Pager {
	switch count := p.PageCount(); {
	case n < 1:
		n = 1
	case n > count:
		n = count
	}
	p.page = n
	return p
}

// Next moves forward one page, staying put on the last page.
func (p Pager) Next() Pager {
	return p.SetPage(p.Page() + 1)
}

// Prev moves back one page, staying put on the first page.
func (p Pager) Prev() Pager {
	return p.SetPage(p.Page() - 1)
}

// HasNext reports whether the next-page control is enabled.
func (p Pager) HasNext() bool {
	return p.Page() < p.PageCount()
}

// HasPrev reports whether the previous-page control is enabled.
func (p Pager) HasPrev() bool {
	return p.Page() > 1
}

// Bounds returns the half-open row range of the current page.
func (p Pager) Bounds() (start, end int) {
	start = (p.Page() - 1) * PageSize
	end = start + PageSize
	if end > p.total {
		end = p.total
	}
	if start > end {
		start = end
	}
	return start, end
}

// Slice returns the rows of items on the current page.
func Slice[T any](p Pager, items []T) []T {
	start, end := p.Bounds()
	if end > len(items) {
		end = len(items)
	}
	if start > end {
		start = end
	}
	return items[start:end]
}
