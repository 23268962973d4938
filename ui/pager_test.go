package ui

import "testing"

func TestPagerTotalPages(t *testing.T) {
	cases := []struct {
		total int
		want  int
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{5, 1},
		{6, 2},
		{12, 3},
		{25, 5},
	}
	for _, c := range cases {
		p := NewPager(5)
		p.SetTotal(c.total)
		if got := p.TotalPages(); got != c.want {
			t.Errorf("total %d: got %d pages, want %d", c.total, got, c.want)
		}
	}
}

func TestPagerBounds(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(12)

	start, end := p.Bounds()
	if start != 0 || end != 5 {
		t.Fatalf("page 1 bounds = [%d, %d), want [0, 5)", start, end)
	}

	if !p.Next() {
		t.Fatal("Next on page 1 of 3 should move")
	}
	start, end = p.Bounds()
	if start != 5 || end != 10 {
		t.Fatalf("page 2 bounds = [%d, %d), want [5, 10)", start, end)
	}

	p.Next()
	start, end = p.Bounds()
	if start != 10 || end != 12 {
		t.Fatalf("last page bounds = [%d, %d), want [10, 12)", start, end)
	}
}

func TestPagerNextPrevLimits(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(7)

	if p.Prev() {
		t.Error("Prev on page 1 should not move")
	}
	if !p.Next() {
		t.Error("Next to page 2 should move")
	}
	if p.Next() {
		t.Error("Next past the last page should not move")
	}
	if !p.Prev() {
		t.Error("Prev back to page 1 should move")
	}
	if p.Page() != 1 {
		t.Errorf("got page %d, want 1", p.Page())
	}
}

func TestPagerClampsWhenListShrinks(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(12)
	p.Next()
	p.Next()
	if p.Page() != 3 {
		t.Fatalf("got page %d, want 3", p.Page())
	}

	// A deletion drops the list to one page; the pager must follow.
	p.SetTotal(4)
	if p.Page() != 1 {
		t.Errorf("after shrink got page %d, want 1", p.Page())
	}

	p.SetTotal(0)
	if p.Page() != 1 {
		t.Errorf("empty list got page %d, want 1", p.Page())
	}
	start, end := p.Bounds()
	if start != 0 || end != 0 {
		t.Errorf("empty bounds = [%d, %d), want [0, 0)", start, end)
	}
}

func TestPagerReset(t *testing.T) {
	p := NewPager(5)
	p.SetTotal(20)
	p.Next()
	p.Next()
	p.Reset()
	if p.Page() != 1 {
		t.Errorf("got page %d after Reset, want 1", p.Page())
	}
}

func TestNewPagerBadSize(t *testing.T) {
	p := NewPager(0)
	if p.PageSize() != DefaultPageSize {
		t.Errorf("got page size %d, want %d", p.PageSize(), DefaultPageSize)
	}
}
