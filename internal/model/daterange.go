package model

import (
    "errors"
    "time"
)

// ErrInvalidDateRange is returned when a check-in date is not strictly
// before its check-out date.
var ErrInvalidDateRange = errors.New("check-in date must be before check-out date")

// DateRange is a half-open interval of calendar days: the check-in day is
// included and the check-out day is not, so a room freed on a given day
// can be checked into again on that same day.
type DateRange struct {
    CheckIn  time.Time
    CheckOut time.Time
}

// NewDateRange truncates both bounds to calendar days (UTC) and rejects
// empty or inverted ranges.
func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
    r := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
    if !r.CheckIn.Before(r.CheckOut) {
        return DateRange{}, ErrInvalidDateRange
    }
    return r, nil
}

// Overlaps reports whether r and o share at least one night:
// [a,b) and [c,d) overlap iff a < d and c < b.
func (r DateRange) Overlaps(o DateRange) bool {
    return r.CheckIn.Before(o.CheckOut) && o.CheckIn.Before(r.CheckOut)
}

// Nights returns the number of nights covered by the range.
func (r DateRange) Nights() int {
    return int(r.CheckOut.Sub(r.CheckIn).Hours() / 24)
}

// Day returns midnight UTC of the calendar day t falls on in its own
// location.
func Day(t time.Time) time.Time {
    y, m, d := t.Date()
    return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
