package schedule

import "time"

// Lookahead is extended by one month once the current month is nearly over,
// so bookable slots never run out right before month-end.
const extendFromDay = 25

// Window is the inclusive date range that must have slots materialized.
type Window struct {
	Start time.Time
	End   time.Time
}

// Compute returns the materialization window for the given day.
// Start is the 1st of today's month; End is the last day of next month,
// or of the month after next when today's day-of-month is 25 or later.
func Compute(today time.Time) Window {
	start := firstOfMonth(today)
	months := 1
	if today.Day() >= extendFromDay {
		months = 2
	}
	end := lastOfMonth(start.AddDate(0, months, 0))
	return Window{Start: start, End: end}
}

// Contains reports whether the given date falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = truncateToDay(d)
	return !d.Before(w.Start) && !d.After(w.End)
}

// Days returns every date in the window in ascending order.
func (w Window) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func firstOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func lastOfMonth(t time.Time) time.Time {
	return firstOfMonth(t).AddDate(0, 1, -1)
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
