package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// Practice carries the practice details rendered into patient emails.
type Practice struct {
	Name         string
	Address      string
	Price        string
	ContactEmail string
}

// Service renders and sends patient-facing booking emails. A nil email
// sender disables delivery; rendering still works for tests.
type Service struct {
	email    EmailSender
	practice Practice
	logger   *logging.Logger
}

// NewService creates a notification service.
func NewService(email EmailSender, practice Practice, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if practice.Name == "" {
		practice.Name = "ChiroStrong"
	}
	return &Service{email: email, practice: practice, logger: logger}
}

// SendBookingConfirmation emails the patient right after a successful
// booking. Failures are logged and returned but the booking itself stands.
func (s *Service) SendBookingConfirmation(ctx context.Context, slot slots.Slot) error {
	if s.email == nil || slot.Email == "" {
		return nil
	}
	msg := EmailMessage{
		To:      slot.Email,
		ToName:  slot.Name,
		Subject: fmt.Sprintf("Your %s appointment is confirmed", s.practice.Name),
		Body:    s.confirmationBody(slot),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("confirmation email failed", "slot_id", slot.ID, "to", slot.Email, "error", err)
		return err
	}
	return nil
}

// SendReminder emails the patient ahead of their appointment.
func (s *Service) SendReminder(ctx context.Context, slot slots.Slot) error {
	if s.email == nil {
		return fmt.Errorf("notify: no email sender configured")
	}
	if slot.Email == "" {
		return fmt.Errorf("notify: slot %s has no contact email", slot.ID)
	}
	msg := EmailMessage{
		To:      slot.Email,
		ToName:  slot.Name,
		Subject: fmt.Sprintf("Reminder: your %s appointment", s.practice.Name),
		Body:    s.reminderBody(slot),
	}
	if err := s.email.Send(ctx, msg); err != nil {
		s.logger.Error("reminder email failed", "slot_id", slot.ID, "to", slot.Email, "error", err)
		return err
	}
	return nil
}

func (s *Service) confirmationBody(slot slots.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", slot.Name)
	fmt.Fprintf(&b, "Your appointment at %s is confirmed.\n\n", s.practice.Name)
	b.WriteString(s.appointmentDetails(slot))
	b.WriteString("\nSee you soon!\n")
	return b.String()
}

func (s *Service) reminderBody(slot slots.Slot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s,\n\n", slot.Name)
	fmt.Fprintf(&b, "This is a friendly reminder of your upcoming appointment at %s.\n\n", s.practice.Name)
	b.WriteString(s.appointmentDetails(slot))
	b.WriteString("\nIf you can't make it, please let us know")
	if s.practice.ContactEmail != "" {
		fmt.Fprintf(&b, " at %s", s.practice.ContactEmail)
	}
	b.WriteString(".\n")
	return b.String()
}

func (s *Service) appointmentDetails(slot slots.Slot) string {
	var b strings.Builder
	when := slot.Date.Format("Monday, January 2, 2006")
	fmt.Fprintf(&b, "When: %s at %s\n", when, slot.Time)
	if s.practice.Address != "" {
		fmt.Fprintf(&b, "Where: %s\n", s.practice.Address)
	}
	if s.practice.Price != "" {
		fmt.Fprintf(&b, "Price: %s\n", s.practice.Price)
	}
	return b.String()
}

// ReminderDue reports whether the slot's start falls inside the window
// [now, now+lead] and the reminder hasn't been sent yet.
func ReminderDue(slot slots.Slot, now time.Time, lead time.Duration) bool {
	if slot.ReminderSent || !slot.Booked() {
		return false
	}
	start := slot.StartAt()
	return !start.Before(now) && !start.After(now.Add(lead))
}
