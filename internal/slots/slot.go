package slots

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Slot statuses. The stored flag is reconciled against contact presence at
// read time: a slot carrying contact data is always reported as booked.
const (
	StatusFree   = "free"
	StatusBooked = "booked"
)

var (
	// ErrNotFound indicates an unknown slot id.
	ErrNotFound = errors.New("slots: slot not found")
	// ErrSlotTaken indicates the slot was not free at the transition point.
	ErrSlotTaken = errors.New("slots: slot already booked")
	// ErrNotBooked indicates a contact update on a slot without a booking.
	ErrNotBooked = errors.New("slots: slot not booked")
)

// Contact is the booking record attached to a booked slot.
type Contact struct {
	Name  string
	Phone string
	Email string
}

// Slot is one bookable (date, time) unit.
type Slot struct {
	ID           uuid.UUID
	Date         time.Time // date only, UTC midnight
	Time         string    // HH:MM
	Status       string
	Name         string
	Phone        string
	Email        string
	ReminderSent bool
}

// Booked reports whether the slot carries a booking, derived from contact
// presence rather than the stored status flag.
func (s Slot) Booked() bool {
	return s.Name != "" || s.Status == StatusBooked
}

// StartAt combines date and time into the appointment start instant.
func (s Slot) StartAt() time.Time {
	t, err := time.Parse("15:04", s.Time)
	if err != nil {
		return s.Date
	}
	return time.Date(s.Date.Year(), s.Date.Month(), s.Date.Day(), t.Hour(), t.Minute(), 0, 0, time.UTC)
}

// DateISO returns the calendar date in ISO form.
func (s Slot) DateISO() string {
	return s.Date.Format("2006-01-02")
}
