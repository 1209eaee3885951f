package schedule

import "time"

// Appointment start times, HH:MM, ordered. Process-wide constants.
var (
	WeekdayTimes = []string{"15:15", "16:15", "17:00", "17:45", "18:30"}
	WeekendTimes = []string{"08:30", "09:30", "10:30", "11:15", "12:00"}
)

// TimesFor returns the appointment times offered on the given date.
func TimesFor(d time.Time) []string {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return WeekendTimes
	default:
		return WeekdayTimes
	}
}
