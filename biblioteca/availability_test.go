package biblioteca

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestAttachAvailability(t *testing.T) {
	requests := 0
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Path != "/prestamos/" || r.URL.Query().Get("estado") != EstadoActivo {
			t.Errorf("unexpected request: %s", r.URL.String())
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 1, "libro_id": 10},
			{"id": 2, "libro_id": 10},
			{"id": 3, "libro_id": 10},
			{"id": 4, "libro_id": 20},
		})
	})

	books := []*Book{
		{ID: 10, CantidadDisponible: 3},
		{ID: 20, CantidadDisponible: 5},
		{ID: 30, CantidadDisponible: 2},
	}
	if err := c.AttachAvailability(context.Background(), books); err != nil {
		t.Fatalf("AttachAvailability failed: %v", err)
	}

	// One active-loans query covers the whole catalog.
	if requests != 1 {
		t.Errorf("made %d requests, want 1", requests)
	}
	cases := []struct {
		book   *Book
		active int
		real   int
	}{
		{books[0], 3, 0},
		{books[1], 1, 4},
		{books[2], 0, 2},
	}
	for _, c := range cases {
		if c.book.PrestamosActivos != c.active || c.book.DisponibilidadReal != c.real {
			t.Errorf("book %d: active=%d real=%d, want active=%d real=%d",
				c.book.ID, c.book.PrestamosActivos, c.book.DisponibilidadReal, c.active, c.real)
		}
	}
}

func TestCheckCopies(t *testing.T) {
	// Three copies on loan: reducing to 2 must fail, 3 is the floor.
	if err := CheckCopies(2, 3); err == nil {
		t.Error("copies below active loans must be rejected")
	}
	if err := CheckCopies(3, 3); err != nil {
		t.Errorf("copies equal to active loans should pass: %v", err)
	}
	if err := CheckCopies(10, 3); err != nil {
		t.Errorf("raising copies should pass: %v", err)
	}
	if err := CheckCopies(0, 0); err != nil {
		t.Errorf("zero copies with no loans should pass: %v", err)
	}
}

func TestAvailabilityLabel(t *testing.T) {
	cases := []struct {
		real, total int
		want        string
	}{
		{0, 5, "unavailable"},
		{-2, 5, "unavailable"},
		{1, 5, "low stock"},
		{2, 10, "low stock"},
		{3, 10, "available"},
		{5, 5, "available"},
	}
	for _, c := range cases {
		if got := AvailabilityLabel(c.real, c.total); got != c.want {
			t.Errorf("AvailabilityLabel(%d, %d) = %q, want %q", c.real, c.total, got, c.want)
		}
	}
}

func TestReturnDates(t *testing.T) {
	now := time.Date(2026, 3, 15, 17, 45, 0, 0, time.UTC)

	min := MinReturnDate(now)
	if want := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC); !min.Equal(want) {
		t.Errorf("MinReturnDate = %v, want %v", min, want)
	}

	def := DefaultReturnDate(now)
	if want := time.Date(2026, 3, 22, 0, 0, 0, 0, time.UTC); !def.Equal(want) {
		t.Errorf("DefaultReturnDate = %v, want %v", def, want)
	}

	if def.Before(min) {
		t.Error("default return date must not be before the minimum")
	}
}

func TestReturnDatesCrossMonth(t *testing.T) {
	now := time.Date(2026, 1, 31, 23, 0, 0, 0, time.UTC)
	if min := MinReturnDate(now); min.Month() != time.February || min.Day() != 1 {
		t.Errorf("MinReturnDate across month = %v", min)
	}
}
