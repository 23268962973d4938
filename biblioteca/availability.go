package biblioteca

import (
	"context"
	"fmt"
	"time"
)

// AttachAvailability computes real availability for every book from a
// single active-loans query: real = cantidad_disponible - active loans on
// that book. One request regardless of catalog size.
func (c *Client) AttachAvailability(ctx context.Context, books []*Book) error {
	loans, err := c.ListLoans(ctx, EstadoActivo)
	if err != nil {
		return err
	}
	active := make(map[int64]int, len(loans))
	for _, l := range loans {
		active[l.LibroID]++
	}
	for _, b := range books {
		b.PrestamosActivos = active[b.ID]
		b.DisponibilidadReal = b.CantidadDisponible - active[b.ID]
	}
	return nil
}

// ListBooksWithAvailability fetches the catalog and annotates it in one
// extra request.
func (c *Client) ListBooksWithAvailability(ctx context.Context) ([]*Book, error) {
	books, err := c.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.AttachAvailability(ctx, books); err != nil {
		return nil, err
	}
	return books, nil
}

// CheckCopies rejects an updated copy count that would drop below the
// number of currently active loans.
func CheckCopies(copies, activeLoans int) error {
	if copies < activeLoans {
		return fmt.Errorf("cannot reduce copies to %d: %d active loans exist", copies, activeLoans)
	}
	return nil
}

// AvailabilityLabel mirrors the chip the original dashboard showed: none,
// low stock (< 30% of total), or available.
func AvailabilityLabel(real, total int) string {
	switch {
	case real <= 0:
		return "unavailable"
	case total > 0 && real*10 < total*3:
		return "low stock"
	default:
		return "available"
	}
}

// MinReturnDate is the earliest selectable expected-return date: tomorrow,
// at midnight local time.
func MinReturnDate(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, 1).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}

// DefaultReturnDate is the form default: seven days ahead.
func DefaultReturnDate(now time.Time) time.Time {
	y, m, d := now.AddDate(0, 0, 7).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
