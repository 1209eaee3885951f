package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chirostrong/booking-bot/internal/booking"
	"github.com/chirostrong/booking-bot/internal/observability/metrics"
	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// Button is one tappable option attached to an outbound chat message.
type Button struct {
	Title   string
	Payload string
}

// ChatSender sends outbound messages on the chat channel. Implementations
// cap buttons at 3 and quick replies at 13 by truncation.
type ChatSender interface {
	SendText(ctx context.Context, recipientID, text string) error
	SendButtons(ctx context.Context, recipientID, text string, buttons []Button) error
	SendQuickReplies(ctx context.Context, recipientID, text string, replies []Button) error
}

// BookingClient is the booking surface the engine drives.
type BookingClient interface {
	FreeSlots(ctx context.Context) ([]slots.Slot, error)
	Book(ctx context.Context, id uuid.UUID, c slots.Contact) error
	Cancel(ctx context.Context, id uuid.UUID) error
}

// Config carries the practice details rendered into outbound copy.
type Config struct {
	PracticeName    string
	PracticeAddress string
	PracticePrice   string
	ContactEmail    string
	SiteURL         string
}

// Engine walks one user at a time through month → week → day → time →
// contact-info selection and books the chosen slot. Listings are recomputed
// from live free-slot data at every step.
type Engine struct {
	bookings BookingClient
	sender   ChatSender
	states   StateStore
	cfg      Config
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
}

func NewEngine(bookings BookingClient, sender ChatSender, states StateStore, cfg Config, logger *logging.Logger) *Engine {
	if bookings == nil {
		panic("conversation: booking client required")
	}
	if sender == nil {
		panic("conversation: chat sender required")
	}
	if states == nil {
		states = NewMemoryStore()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.PracticeName == "" {
		cfg.PracticeName = "ChiroStrong"
	}
	return &Engine{bookings: bookings, sender: sender, states: states, cfg: cfg, logger: logger}
}

// WithMetrics attaches Prometheus counters to inbound events.
func (e *Engine) WithMetrics(m *metrics.BookingMetrics) *Engine {
	e.metrics = m
	return e
}

// HandlePayload processes a button tap or quick-reply selection.
func (e *Engine) HandlePayload(ctx context.Context, senderID, payload string) error {
	e.metrics.ObserveChatEvent("postback")
	st, err := e.states.Get(ctx, senderID)
	if err != nil {
		return err
	}

	switch {
	case payload == "GET_STARTED" || payload == "GET_STARTED_PAYLOAD":
		e.sendGreeting(ctx, senderID)
		return nil

	case payload == "BOOK_START":
		// Always resets, whatever step the user was stuck in.
		return e.startBooking(ctx, senderID)

	case payload == "BACK_MAIN":
		if err := e.states.Clear(ctx, senderID); err != nil {
			return err
		}
		e.sendGreeting(ctx, senderID)
		return nil

	case strings.HasPrefix(payload, "CANCEL_SLOT:"):
		return e.cancelBooking(ctx, senderID, strings.TrimPrefix(payload, "CANCEL_SLOT:"))

	case strings.HasPrefix(payload, "month:"):
		return e.showWeeks(ctx, senderID, st, strings.TrimPrefix(payload, "month:"))

	case strings.HasPrefix(payload, "week:"):
		return e.showDays(ctx, senderID, st, strings.TrimPrefix(payload, "week:"))

	case strings.HasPrefix(payload, "day:"):
		return e.showTimes(ctx, senderID, st, strings.TrimPrefix(payload, "day:"))

	case strings.HasPrefix(payload, "slot:"):
		return e.chooseSlot(ctx, senderID, st, strings.TrimPrefix(payload, "slot:"))
	}

	e.logger.Warn("unknown chat payload", "sender_id", senderID, "payload", payload)
	e.sendGreeting(ctx, senderID)
	return nil
}

// HandleText processes a free-text message.
func (e *Engine) HandleText(ctx context.Context, senderID, text string) error {
	e.metrics.ObserveChatEvent("text")
	st, err := e.states.Get(ctx, senderID)
	if err != nil {
		return err
	}
	text = strings.TrimSpace(text)

	switch st.Step {
	case StepCollectingName:
		st.Name = text
		st.Step = StepCollectingPhone
		if err := e.states.Put(ctx, senderID, st); err != nil {
			return err
		}
		e.sendText(ctx, senderID, "What's your phone number?")
		return nil

	case StepCollectingPhone:
		if !booking.ValidPhone(text) {
			e.sendText(ctx, senderID, "That doesn't look like a valid phone number (e.g. +36 30 123 4567). Please try again:")
			return nil
		}
		st.Phone = text
		st.Step = StepCollectingEmail
		if err := e.states.Put(ctx, senderID, st); err != nil {
			return err
		}
		e.sendText(ctx, senderID, "And your email address?")
		return nil

	case StepCollectingEmail:
		if !booking.ValidEmail(text) {
			e.sendText(ctx, senderID, "That doesn't look like a valid email address (e.g. anna@example.com). Please try again:")
			return nil
		}
		return e.completeBooking(ctx, senderID, st, text)
	}

	// No active collection step: match a small keyword set.
	lower := strings.ToLower(text)
	switch {
	case lower == "hi" || lower == "hello" || lower == "hey":
		e.sendGreeting(ctx, senderID)
	case strings.Contains(lower, "appointment") || strings.Contains(lower, "book"):
		return e.startBooking(ctx, senderID)
	default:
		e.sendGreeting(ctx, senderID)
	}
	return nil
}

func (e *Engine) startBooking(ctx context.Context, senderID string) error {
	free, err := e.bookings.FreeSlots(ctx)
	if err != nil {
		return err
	}
	months := monthChoices(free)
	if len(months) == 0 {
		if err := e.states.Clear(ctx, senderID); err != nil {
			return err
		}
		msg := "There are no free appointments right now."
		if e.cfg.SiteURL != "" {
			msg += " Check back later or visit " + e.cfg.SiteURL
		}
		e.sendText(ctx, senderID, msg)
		return nil
	}
	if err := e.states.Put(ctx, senderID, State{Step: StepChoosingMonth}); err != nil {
		return err
	}
	replies := choicesToButtons(months)
	replies = append(replies, Button{Title: "Back", Payload: "BACK_MAIN"})
	e.sendQuickReplies(ctx, senderID, "Which month would you like to book?", replies)
	return nil
}

func (e *Engine) showWeeks(ctx context.Context, senderID string, st State, month string) error {
	free, err := e.bookings.FreeSlots(ctx)
	if err != nil {
		return err
	}
	st.Month = month
	st.Step = StepChoosingWeek
	if err := e.states.Put(ctx, senderID, st); err != nil {
		return err
	}
	weeks := weekChoices(free, month)
	if len(weeks) == 0 {
		e.sendText(ctx, senderID, "No free appointments in that month.")
		return nil
	}
	replies := choicesToButtons(weeks)
	replies = append(replies, Button{Title: "Back", Payload: "BOOK_START"})
	e.sendQuickReplies(ctx, senderID, "Which week suits you?", replies)
	return nil
}

func (e *Engine) showDays(ctx context.Context, senderID string, st State, weekStart string) error {
	free, err := e.bookings.FreeSlots(ctx)
	if err != nil {
		return err
	}
	st.Week = weekStart
	st.Step = StepChoosingDay
	if err := e.states.Put(ctx, senderID, st); err != nil {
		return err
	}
	days := dayChoices(free, weekStart)
	if len(days) == 0 {
		e.sendText(ctx, senderID, "No free days in that week.")
		return nil
	}
	replies := choicesToButtons(days)
	replies = append(replies, Button{Title: "Back", Payload: "month:" + st.Month})
	e.sendQuickReplies(ctx, senderID, "Which day works for you?", replies)
	return nil
}

func (e *Engine) showTimes(ctx context.Context, senderID string, st State, day string) error {
	free, err := e.bookings.FreeSlots(ctx)
	if err != nil {
		return err
	}
	st.Day = day
	if d, err := time.Parse("2006-01-02", day); err == nil {
		st.Week = weekStartOf(d).Format("2006-01-02")
		if st.Month == "" {
			st.Month = day[:7]
		}
	}
	st.Step = StepChoosingSlot
	if err := e.states.Put(ctx, senderID, st); err != nil {
		return err
	}
	times := timeChoices(free, day)
	if len(times) == 0 {
		e.sendText(ctx, senderID, "No free times on that day.")
		return nil
	}
	replies := choicesToButtons(times)
	replies = append(replies, Button{Title: "Back", Payload: "week:" + st.Week})
	e.sendQuickReplies(ctx, senderID, "Pick a time:", replies)
	return nil
}

func (e *Engine) chooseSlot(ctx context.Context, senderID string, st State, rawID string) error {
	free, err := e.bookings.FreeSlots(ctx)
	if err != nil {
		return err
	}
	st.SlotID = rawID
	for _, s := range free {
		if s.ID.String() == rawID {
			st.SlotDate = s.DateISO()
			st.SlotTime = s.Time
			break
		}
	}
	st.Step = StepCollectingName
	if err := e.states.Put(ctx, senderID, st); err != nil {
		return err
	}
	e.sendText(ctx, senderID, "What's your name?")
	return nil
}

func (e *Engine) completeBooking(ctx context.Context, senderID string, st State, email string) error {
	slotID, err := uuid.Parse(st.SlotID)
	if err != nil {
		if err := e.states.Clear(ctx, senderID); err != nil {
			return err
		}
		e.sendText(ctx, senderID, "Something went wrong. Let's start over.")
		e.sendGreeting(ctx, senderID)
		return nil
	}

	contact := slots.Contact{Name: st.Name, Phone: st.Phone, Email: email}
	dayBack := st.Day
	slotDate, slotTime := st.SlotDate, st.SlotTime
	if err := e.states.Clear(ctx, senderID); err != nil {
		return err
	}

	err = e.bookings.Book(ctx, slotID, contact)
	if err == nil {
		e.sendText(ctx, senderID, e.confirmationMessage(slotDate, slotTime, contact))
		e.sendButtons(ctx, senderID, "If you change your mind:", []Button{
			{Title: "Cancel appointment", Payload: "CANCEL_SLOT:" + slotID.String()},
		})
		return nil
	}

	// The slot can be taken by another user between the listing and this
	// final attempt; re-enter the day's listing so they pick again.
	if errors.Is(err, slots.ErrSlotTaken) {
		e.sendText(ctx, senderID, "Sorry, that time was just booked by someone else. Please pick another one.")
		if dayBack != "" {
			return e.HandlePayload(ctx, senderID, "day:"+dayBack)
		}
		e.sendGreeting(ctx, senderID)
		return nil
	}

	e.logger.Error("booking failed", "sender_id", senderID, "slot_id", slotID, "error", err)
	e.sendText(ctx, senderID, "Something went wrong with your booking. Let's start over.")
	e.sendGreeting(ctx, senderID)
	return nil
}

func (e *Engine) cancelBooking(ctx context.Context, senderID, rawID string) error {
	slotID, err := uuid.Parse(rawID)
	if err != nil {
		e.sendText(ctx, senderID, "Something went wrong.")
		return nil
	}
	if err := e.states.Clear(ctx, senderID); err != nil {
		return err
	}
	if err := e.bookings.Cancel(ctx, slotID); err != nil {
		msg := "We couldn't cancel that appointment."
		if e.cfg.ContactEmail != "" {
			msg += " Please reach us at " + e.cfg.ContactEmail
		}
		e.sendText(ctx, senderID, msg)
		return nil
	}
	e.sendText(ctx, senderID, "Your appointment has been cancelled.")
	e.sendButtons(ctx, senderID, "Would you like to book a new one?", []Button{
		{Title: "Book an appointment", Payload: "BOOK_START"},
	})
	return nil
}

func (e *Engine) confirmationMessage(slotDate, slotTime string, c slots.Contact) string {
	var b strings.Builder
	b.WriteString("✅ Your booking is confirmed!\n\n")
	fmt.Fprintf(&b, "Appointment: %s – %s\n", slotDate, slotTime)
	fmt.Fprintf(&b, "Name: %s\nPhone: %s\nEmail: %s\n", c.Name, c.Phone, c.Email)
	if e.cfg.PracticeAddress != "" {
		fmt.Fprintf(&b, "\nWe look forward to seeing you at %s.\n", e.cfg.PracticeAddress)
	}
	if e.cfg.PracticePrice != "" {
		fmt.Fprintf(&b, "Service fee: %s\n", e.cfg.PracticePrice)
	}
	if e.cfg.ContactEmail != "" {
		fmt.Fprintf(&b, "\nQuestions? Email us at %s", e.cfg.ContactEmail)
	}
	return b.String()
}

func (e *Engine) sendGreeting(ctx context.Context, senderID string) {
	text := fmt.Sprintf("Hi! I'm the %s booking assistant. Tap below to book an appointment.", e.cfg.PracticeName)
	e.sendButtons(ctx, senderID, text, []Button{{Title: "Book an appointment", Payload: "BOOK_START"}})
}

// Chat transport failures are logged and swallowed; one attempt per message.
func (e *Engine) sendText(ctx context.Context, senderID, text string) {
	if err := e.sender.SendText(ctx, senderID, text); err != nil {
		e.logger.Error("chat send failed", "sender_id", senderID, "error", err)
	}
}

func (e *Engine) sendButtons(ctx context.Context, senderID, text string, buttons []Button) {
	if err := e.sender.SendButtons(ctx, senderID, text, buttons); err != nil {
		e.logger.Error("chat send failed", "sender_id", senderID, "error", err)
	}
}

func (e *Engine) sendQuickReplies(ctx context.Context, senderID, text string, replies []Button) {
	if err := e.sender.SendQuickReplies(ctx, senderID, text, replies); err != nil {
		e.logger.Error("chat send failed", "sender_id", senderID, "error", err)
	}
}

func choicesToButtons(choices []Choice) []Button {
	out := make([]Button, 0, len(choices)+1)
	for _, c := range choices {
		out = append(out, Button{Title: c.Label, Payload: c.Payload})
	}
	return out
}
