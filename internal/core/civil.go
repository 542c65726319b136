// Package core holds the register-day domain: civil dates, statuses,
// entries and money parsing shared by the client and the backend.
package core

import (
	"errors"
	"time"
)

// DateLayout is the wire format for civil dates. All dates in the system are
// zero-padded YYYY-MM-DD strings in local civil time, never UTC-shifted:
// converting through UTC moves the date near local midnight.
const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// TodayIn formats the civil date of the given instant in its own location.
func TodayIn(now time.Time) string {
	return now.Format(DateLayout)
}

// Today returns today's civil date in the local time zone.
func Today() string {
	return TodayIn(time.Now())
}

// IsTodayIn reports whether date equals the civil date of now.
func IsTodayIn(date string, now time.Time) bool {
	return date == TodayIn(now)
}

// IsToday reports whether date is today's local civil date.
func IsToday(date string) bool {
	return IsTodayIn(date, time.Now())
}

// IsFutureIn reports whether date is strictly after the civil date of now.
// Plain string comparison is valid because both sides are zero-padded
// YYYY-MM-DD.
func IsFutureIn(date string, now time.Time) bool {
	return date > TodayIn(now)
}

// IsFuture reports whether date is strictly after today's local civil date.
func IsFuture(date string) bool {
	return IsFutureIn(date, time.Now())
}

// ParseDate validates a YYYY-MM-DD string and returns it normalized.
func ParseDate(date string) (string, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return "", ErrInvalidDate
	}
	return t.Format(DateLayout), nil
}

// FormatVisual renders a civil date as DD/MM/YYYY for display.
func FormatVisual(date string) string {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return date
	}
	return t.Format("02/01/2006")
}
