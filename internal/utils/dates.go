package utils

import (
    "fmt"
    "strings"
    "time"
)

// DateLayout is the wire format of stay dates.
const DateLayout = "2006-01-02"

// ParseDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns
// midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
    s = strings.TrimSpace(s)
    if t, err := time.Parse(DateLayout, s); err == nil {
        return t, nil
    }
    t, err := time.Parse(time.RFC3339, s)
    if err != nil {
        return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
    }
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// FormatDate renders a stay date for JSON responses.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }
