package ui

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// The service-side address check is stricter; this only keeps obvious typos
// from reaching the wire: local@domain.tld, no whitespace, no extra @.
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// DigitsOnly strips every non-digit character, the transform ISBN and
// identification fields apply as the user types.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NonEmpty rejects values that are blank after trimming.
func NonEmpty(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

// ExactDigits accepts only values of exactly n digit characters.
func ExactDigits(n int, field string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", field)
		}
		if len(s) != n {
			return fmt.Errorf("%s must have %d digits (got %d)", field, n, len(s))
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return fmt.Errorf("%s must contain digits only", field)
			}
		}
		return nil
	}
}

// Email validates the local@domain.tld shape.
func Email(field string) func(string) error {
	return func(s string) error {
		if !emailRe.MatchString(s) {
			return fmt.Errorf("%s is not a valid email address", field)
		}
		return nil
	}
}

// NonNegativeInt accepts integer text >= 0.
func NonNegativeInt(field string) func(string) error {
	return func(s string) error {
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", field)
		}
		if n < 0 {
			return fmt.Errorf("%s cannot be negative", field)
		}
		return nil
	}
}

// YearRange bounds an optional publication year.
func YearRange(min, max int, field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("%s must be a number", field)
		}
		if n < min || n > max {
			return fmt.Errorf("%s must be between %d and %d", field, min, max)
		}
		return nil
	}
}
