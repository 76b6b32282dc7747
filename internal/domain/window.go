package domain

import (
	"strings"
	"time"
)

// DateLayout is the calendar date format used for storage and query
// parameters.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, Validationf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

// ParseOptionalDate returns nil for an empty string.
func ParseOptionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Day truncates t to its UTC calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateWindow is an inclusive calendar range. A nil bound is unbounded on
// that side.
type DateWindow struct {
	From *time.Time
	To   *time.Time
}

// NewDateWindow parses optional YYYY-MM-DD bounds and validates the range.
func NewDateWindow(from, to string) (DateWindow, error) {
	f, err := ParseOptionalDate(from)
	if err != nil {
		return DateWindow{}, err
	}
	t, err := ParseOptionalDate(to)
	if err != nil {
		return DateWindow{}, err
	}
	w := DateWindow{From: f, To: t}
	return w, w.Validate()
}

func (w DateWindow) Validate() error {
	if w.From != nil && w.To != nil && w.From.After(*w.To) {
		return InvalidRangef("date_from %s is after date_to %s",
			w.From.Format(DateLayout), w.To.Format(DateLayout))
	}
	return nil
}

// Contains reports whether day d is inside the window.
func (w DateWindow) Contains(d time.Time) bool {
	d = Day(d)
	if w.From != nil && d.Before(Day(*w.From)) {
		return false
	}
	if w.To != nil && d.After(Day(*w.To)) {
		return false
	}
	return true
}

// Overlaps reports whether [start, end] shares at least one day with the window.
func (w DateWindow) Overlaps(start, end time.Time) bool {
	if w.To != nil && Day(start).After(Day(*w.To)) {
		return false
	}
	if w.From != nil && Day(end).Before(Day(*w.From)) {
		return false
	}
	return true
}

// Clip narrows [start, end] to the window bounds.
func (w DateWindow) Clip(start, end time.Time) (time.Time, time.Time) {
	start, end = Day(start), Day(end)
	if w.From != nil && start.Before(Day(*w.From)) {
		start = Day(*w.From)
	}
	if w.To != nil && end.After(Day(*w.To)) {
		end = Day(*w.To)
	}
	return start, end
}
