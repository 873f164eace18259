package models

import (
	"regexp"
	"strconv"
	"time"
)

// Record is implemented by every record shown on a management screen.
type Record interface {
	// Key returns the identifier used for mutations and per-row state.
	Key() string
}

var (
	_ Record = Movie{}
	_ Record = User{}
	_ Record = Payment{}
	_ Record = ContactMessage{}
)

var nonDigits = regexp.MustCompile(`\D`)

// ParseTimestamp parses the ISO-8601 timestamps the backend emits, returning the zero time for empty or malformed input.
func ParseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// NumericPart extracts the digits of an identifier such as "USR-0042" as an integer.
// ok is false when the identifier carries no digits.
func NumericPart(id string) (n int64, ok bool) {
	digits := nonDigits.ReplaceAllString(id, "")
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// PurchasedMovie is a movie reference attached to users and payments.
type PurchasedMovie struct {
	MovieID string `json:"movieId"`
	Title   string `json:"title"`
}
