package database

import (
	"time"
)

const (
	dateLayout     = "2006-01-02"
	datetimeLayout = "2006-01-02 15:04:05"
)

// GetToday returns today's date as YYYY-MM-DD.
func GetToday() string {
	return time.Now().Format(dateLayout)
}

// FormatDisplayDate formats t the way dates appear on the site,
// e.g. "February 06, 2026".
func FormatDisplayDate(t time.Time) string {
	return t.Format("January 02, 2006")
}

// ParseStoredTime parses a date or datetime column value. SQLite's
// datetime('now') is UTC.
func ParseStoredTime(s string) (time.Time, bool) {
	for _, layout := range []string{datetimeLayout, dateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatStoredDate formats a stored date for display, returning the input
// unchanged if it cannot be parsed.
func FormatStoredDate(s string) string {
	t, ok := ParseStoredTime(s)
	if !ok {
		return s
	}
	return FormatDisplayDate(t)
}

// NoteDate returns the date a note is filed under: its feed date when
// known, otherwise the time it was collected.
func NoteDate(n Note) (time.Time, bool) {
	if n.CreatedAt != nil {
		if t, ok := ParseStoredTime(*n.CreatedAt); ok {
			return t, true
		}
	}
	if n.CollectedAt != nil {
		return ParseStoredTime(*n.CollectedAt)
	}
	return time.Time{}, false
}
