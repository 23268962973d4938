package ui

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

type row struct {
	id   int
	name string
}

func testTable() *Table[row] {
	return NewTable([]Column[row]{
		{Header: "ID", Width: 5, Value: func(r row) string { return fmt.Sprintf("%d", r.id) }},
		{Header: "Name", Width: 10, Value: func(r row) string { return r.name }},
	})
}

func makeRows(n int) []row {
	rows := make([]row, n)
	for i := range rows {
		rows[i] = row{id: i + 1, name: fmt.Sprintf("row%d", i+1)}
	}
	return rows
}

func TestTableRenderEmpty(t *testing.T) {
	var buf bytes.Buffer
	testTable().Render(&buf, nil, "No rows registered")
	out := buf.String()
	if !strings.Contains(out, "No rows registered") {
		t.Errorf("empty message missing:\n%s", out)
	}
	if strings.Contains(out, "Page") {
		t.Errorf("footer should not appear for an empty list:\n%s", out)
	}
}

func TestTableRenderSinglePage(t *testing.T) {
	var buf bytes.Buffer
	testTable().Render(&buf, makeRows(3), "empty")
	out := buf.String()
	for _, want := range []string{"ID", "Name", "row1", "row3"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Page") {
		t.Errorf("footer should not appear when everything fits one page:\n%s", out)
	}
}

func TestTableRenderPaginates(t *testing.T) {
	table := testTable()
	var buf bytes.Buffer
	table.Render(&buf, makeRows(12), "empty")
	out := buf.String()

	if !strings.Contains(out, "Page 1 of 3") {
		t.Errorf("footer missing:\n%s", out)
	}
	if !strings.Contains(out, "row5") || strings.Contains(out, "row6") {
		t.Errorf("page 1 should show rows 1-5 only:\n%s", out)
	}

	table.Pager.Next()
	buf.Reset()
	table.Render(&buf, makeRows(12), "empty")
	out = buf.String()
	if !strings.Contains(out, "row6") || !strings.Contains(out, "row10") {
		t.Errorf("page 2 should show rows 6-10:\n%s", out)
	}
	if strings.Contains(out, "row5 ") || strings.Contains(out, "row11") {
		t.Errorf("page 2 leaked rows from other pages:\n%s", out)
	}
}

func TestTableTruncatesWideValues(t *testing.T) {
	var buf bytes.Buffer
	testTable().Render(&buf, []row{{id: 1, name: "a very long name"}}, "empty")
	if !strings.Contains(buf.String(), "a very ...") {
		t.Errorf("wide value not truncated:\n%s", buf.String())
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly-10", 10, "exactly-10"},
		{"this is too long", 10, "this is..."},
		{"abcdef", 3, "abc"},
	}
	for _, c := range cases {
		if got := Truncate(c.in, c.max); got != c.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", c.in, c.max, got, c.want)
		}
	}
}
