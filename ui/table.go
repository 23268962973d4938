package ui

import (
	"fmt"
	"io"
	"strings"
)

// Column describes one fixed-width table column for rows of type T.
type Column[T any] struct {
	Header string
	Width  int
	Value  func(T) string
}

// Table renders one page of an ordered record list at a time. Row actions
// and their gating live with the caller; the table only draws.
type Table[T any] struct {
	Columns []Column[T]
	Pager   *Pager
}

// NewTable builds a table with the default page size.
func NewTable[T any](cols []Column[T]) *Table[T] {
	return &Table[T]{Columns: cols, Pager: NewPager(DefaultPageSize)}
}

// Render writes the current page. empty is printed instead of rows when the
// list has none; the page footer appears only when the list spans more than
// one page.
func (t *Table[T]) Render(w io.Writer, rows []T, empty string) {
	t.Pager.SetTotal(len(rows))

	total := 0
	for _, col := range t.Columns {
		fmt.Fprintf(w, "%-*s ", col.Width, col.Header)
		total += col.Width + 1
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, strings.Repeat("-", total))

	if len(rows) == 0 {
		fmt.Fprintln(w, empty)
		return
	}

	start, end := t.Pager.Bounds()
	for _, row := range rows[start:end] {
		for _, col := range t.Columns {
			fmt.Fprintf(w, "%-*s ", col.Width, Truncate(col.Value(row), col.Width))
		}
		fmt.Fprintln(w)
	}

	if t.Pager.TotalPages() > 1 {
		fmt.Fprintf(w, "\nPage %d of %d  (n = next, p = previous)\n", t.Pager.Page(), t.Pager.TotalPages())
	}
}

// Truncate shortens s to at most max characters, marking the cut with "...".
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
