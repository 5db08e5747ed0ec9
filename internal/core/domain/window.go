package domain

import (
	"errors"
	"time"
)

// DateLayout is the day format used by tool arguments and the upstream API.
const DateLayout = "2006-01-02"

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// DayWindow builds the window covering the inclusive day range from..to.
func DayWindow(from, to time.Time) Window {
	start := truncateDay(from)
	return Window{Start: start, End: truncateDay(to).AddDate(0, 0, 1)}
}

// LastDays returns the window covering the n days ending with the day of now.
func LastDays(now time.Time, n int) Window {
	end := truncateDay(now).AddDate(0, 0, 1)
	return Window{Start: end.AddDate(0, 0, -n), End: end}
}

// Validate checks that the window is non-empty.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.New("window bounds are required")
	}
	if !w.Start.Before(w.End) {
		return errors.New("window start must be before end")
	}
	return nil
}

// Contains reports whether t lies inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Overlaps reports whether the two windows share any instant.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// FirstDay is the first calendar day inside the window.
func (w Window) FirstDay() string {
	return w.Start.Format(DateLayout)
}

// LastDay is the last calendar day inside the window. Upstream day ranges
// are inclusive, so the exclusive end is moved back by one day.
func (w Window) LastDay() string {
	return w.End.AddDate(0, 0, -1).Format(DateLayout)
}

func (w Window) String() string {
	return "[" + w.Start.Format(time.RFC3339) + ", " + w.End.Format(time.RFC3339) + ")"
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
