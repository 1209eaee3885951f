package conversation

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

type sentMessage struct {
	Kind    string // text, buttons, quick_replies
	Text    string
	Buttons []Button
}

type fakeSender struct {
	sent    []sentMessage
	failAll bool
}

func (f *fakeSender) SendText(_ context.Context, _, text string) error {
	if f.failAll {
		return fmt.Errorf("send failed")
	}
	f.sent = append(f.sent, sentMessage{Kind: "text", Text: text})
	return nil
}

func (f *fakeSender) SendButtons(_ context.Context, _, text string, buttons []Button) error {
	if f.failAll {
		return fmt.Errorf("send failed")
	}
	f.sent = append(f.sent, sentMessage{Kind: "buttons", Text: text, Buttons: buttons})
	return nil
}

func (f *fakeSender) SendQuickReplies(_ context.Context, _, text string, replies []Button) error {
	if f.failAll {
		return fmt.Errorf("send failed")
	}
	f.sent = append(f.sent, sentMessage{Kind: "quick_replies", Text: text, Buttons: replies})
	return nil
}

func (f *fakeSender) last() sentMessage {
	if len(f.sent) == 0 {
		return sentMessage{}
	}
	return f.sent[len(f.sent)-1]
}

type fakeBookings struct {
	free      map[uuid.UUID]slots.Slot
	booked    map[uuid.UUID]slots.Contact
	cancelled []uuid.UUID
	bookErr   error
}

func newFakeBookings() *fakeBookings {
	return &fakeBookings{
		free:   make(map[uuid.UUID]slots.Slot),
		booked: make(map[uuid.UUID]slots.Contact),
	}
}

func (f *fakeBookings) addFree(dateISO, hhmm string) uuid.UUID {
	d, _ := time.Parse("2006-01-02", dateISO)
	id := uuid.New()
	f.free[id] = slots.Slot{ID: id, Date: d, Time: hhmm, Status: slots.StatusFree}
	return id
}

func (f *fakeBookings) FreeSlots(_ context.Context) ([]slots.Slot, error) {
	out := make([]slots.Slot, 0, len(f.free))
	for _, s := range f.free {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeBookings) Book(_ context.Context, id uuid.UUID, c slots.Contact) error {
	if f.bookErr != nil {
		return f.bookErr
	}
	if _, ok := f.free[id]; !ok {
		return slots.ErrSlotTaken
	}
	delete(f.free, id)
	f.booked[id] = c
	return nil
}

func (f *fakeBookings) Cancel(_ context.Context, id uuid.UUID) error {
	f.cancelled = append(f.cancelled, id)
	delete(f.booked, id)
	return nil
}

func newTestEngine(bookings *fakeBookings, sender *fakeSender) (*Engine, *MemoryStore) {
	store := NewMemoryStore()
	cfg := Config{
		PracticeName:    "ChiroStrong",
		PracticeAddress: "1 Main Street",
		ContactEmail:    "hello@chirostrong.example",
	}
	return NewEngine(bookings, sender, store, cfg, logging.New("error")), store
}

const user = "user-1"

func payloadFor(t *testing.T, msg sentMessage, labelPrefix string) string {
	t.Helper()
	for _, b := range msg.Buttons {
		if strings.HasPrefix(b.Title, labelPrefix) {
			return b.Payload
		}
	}
	t.Fatalf("no button with label prefix %q in %+v", labelPrefix, msg)
	return ""
}

func TestFullBookingScenario(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	slotID := bookings.addFree("2025-06-10", "15:15")
	sender := &fakeSender{}
	engine, store := newTestEngine(bookings, sender)

	if err := engine.HandlePayload(ctx, user, "BOOK_START"); err != nil {
		t.Fatalf("BOOK_START: %v", err)
	}
	monthMsg := sender.last()
	if monthMsg.Kind != "quick_replies" {
		t.Fatalf("expected month quick replies, got %+v", monthMsg)
	}
	monthPayload := payloadFor(t, monthMsg, "June 2025")
	if monthPayload != "month:2025-06" {
		t.Fatalf("unexpected month payload %q", monthPayload)
	}

	if err := engine.HandlePayload(ctx, user, monthPayload); err != nil {
		t.Fatalf("month: %v", err)
	}
	weekPayload := payloadFor(t, sender.last(), "Jun 9")
	if weekPayload != "week:2025-06-09" {
		t.Fatalf("unexpected week payload %q", weekPayload)
	}

	if err := engine.HandlePayload(ctx, user, weekPayload); err != nil {
		t.Fatalf("week: %v", err)
	}
	dayPayload := payloadFor(t, sender.last(), "Tuesday, Jun 10")
	if dayPayload != "day:2025-06-10" {
		t.Fatalf("unexpected day payload %q", dayPayload)
	}

	if err := engine.HandlePayload(ctx, user, dayPayload); err != nil {
		t.Fatalf("day: %v", err)
	}
	slotPayload := payloadFor(t, sender.last(), "15:15")
	if slotPayload != "slot:"+slotID.String() {
		t.Fatalf("unexpected slot payload %q", slotPayload)
	}

	if err := engine.HandlePayload(ctx, user, slotPayload); err != nil {
		t.Fatalf("slot: %v", err)
	}
	if sender.last().Text != "What's your name?" {
		t.Fatalf("expected name prompt, got %q", sender.last().Text)
	}

	if err := engine.HandleText(ctx, user, "Anna"); err != nil {
		t.Fatalf("name: %v", err)
	}
	if err := engine.HandleText(ctx, user, "+36301112233"); err != nil {
		t.Fatalf("phone: %v", err)
	}
	if err := engine.HandleText(ctx, user, "anna@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}

	contact, ok := bookings.booked[slotID]
	if !ok {
		t.Fatal("expected the slot to be booked")
	}
	if contact.Name != "Anna" || contact.Phone != "+36301112233" || contact.Email != "anna@example.com" {
		t.Fatalf("unexpected contact %+v", contact)
	}

	st, _ := store.Get(ctx, user)
	if st.Step != StepIdle {
		t.Fatalf("expected state reset to idle, got %q", st.Step)
	}

	// Confirmation text plus a cancel button referencing the booked slot.
	var sawCancel bool
	for _, msg := range sender.sent {
		for _, b := range msg.Buttons {
			if b.Payload == "CANCEL_SLOT:"+slotID.String() {
				sawCancel = true
			}
		}
	}
	if !sawCancel {
		t.Fatal("expected a cancel button after confirmation")
	}
}

func TestInvalidPhoneReprompts(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	bookings.addFree("2025-06-10", "15:15")
	sender := &fakeSender{}
	engine, store := newTestEngine(bookings, sender)

	seed := State{Step: StepCollectingPhone, SlotID: uuid.NewString(), Name: "Anna"}
	if err := store.Put(ctx, user, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := engine.HandleText(ctx, user, "abc"); err != nil {
		t.Fatalf("invalid phone: %v", err)
	}
	if !strings.Contains(sender.last().Text, "try again") {
		t.Fatalf("expected re-prompt, got %q", sender.last().Text)
	}
	st, _ := store.Get(ctx, user)
	if st.Step != StepCollectingPhone {
		t.Fatalf("state must hold the step past a validation failure, got %q", st.Step)
	}

	if err := engine.HandleText(ctx, user, "+36301112233"); err != nil {
		t.Fatalf("valid phone: %v", err)
	}
	st, _ = store.Get(ctx, user)
	if st.Step != StepCollectingEmail || st.Phone != "+36301112233" {
		t.Fatalf("expected advance to email collection, got %+v", st)
	}
}

func TestInvalidEmailReprompts(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	sender := &fakeSender{}
	engine, store := newTestEngine(bookings, sender)

	seed := State{Step: StepCollectingEmail, SlotID: uuid.NewString(), Name: "Anna", Phone: "+36301112233"}
	if err := store.Put(ctx, user, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := engine.HandleText(ctx, user, "not-an-email"); err != nil {
		t.Fatalf("invalid email: %v", err)
	}
	st, _ := store.Get(ctx, user)
	if st.Step != StepCollectingEmail {
		t.Fatalf("expected state held at email collection, got %q", st.Step)
	}
}

func TestLostRaceReentersDayListing(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	takenID := uuid.New() // not in the free set: booked by someone else mid-flow
	bookings.addFree("2025-06-10", "16:15")
	sender := &fakeSender{}
	engine, store := newTestEngine(bookings, sender)

	seed := State{
		Step:   StepCollectingEmail,
		Day:    "2025-06-10",
		SlotID: takenID.String(),
		Name:   "Anna",
		Phone:  "+36301112233",
	}
	if err := store.Put(ctx, user, seed); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	if err := engine.HandleText(ctx, user, "anna@example.com"); err != nil {
		t.Fatalf("email: %v", err)
	}

	var sawApology bool
	for _, msg := range sender.sent {
		if strings.Contains(msg.Text, "just booked by someone else") {
			sawApology = true
		}
	}
	if !sawApology {
		t.Fatal("expected an already-booked apology")
	}
	// Re-entered the same day's listing with the surviving slot.
	last := sender.last()
	if last.Kind != "quick_replies" || last.Text != "Pick a time:" {
		t.Fatalf("expected re-entry at time selection, got %+v", last)
	}
	payloadFor(t, last, "16:15")
	st, _ := store.Get(ctx, user)
	if st.Step != StepChoosingSlot || st.Day != "2025-06-10" {
		t.Fatalf("expected choosing-slot state for the same day, got %+v", st)
	}
}

func TestBookStartResetsStuckFlow(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	bookings.addFree("2025-06-10", "15:15")
	sender := &fakeSender{}
	engine, store := newTestEngine(bookings, sender)

	if err := store.Put(ctx, user, State{Step: StepCollectingPhone, Name: "Anna"}); err != nil {
		t.Fatalf("seed state: %v", err)
	}
	if err := engine.HandlePayload(ctx, user, "BOOK_START"); err != nil {
		t.Fatalf("BOOK_START: %v", err)
	}
	st, _ := store.Get(ctx, user)
	if st.Step != StepChoosingMonth || st.Name != "" {
		t.Fatalf("expected a fresh month-choosing state, got %+v", st)
	}
}

func TestNoFreeSlots(t *testing.T) {
	ctx := context.Background()
	sender := &fakeSender{}
	engine, store := newTestEngine(newFakeBookings(), sender)

	if err := engine.HandlePayload(ctx, user, "BOOK_START"); err != nil {
		t.Fatalf("BOOK_START: %v", err)
	}
	if !strings.Contains(sender.last().Text, "no free appointments") {
		t.Fatalf("expected no-slots message, got %q", sender.last().Text)
	}
	st, _ := store.Get(ctx, user)
	if st.Step != StepIdle {
		t.Fatalf("expected idle state, got %q", st.Step)
	}
}

func TestCancelPayload(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	sender := &fakeSender{}
	engine, _ := newTestEngine(bookings, sender)
	slotID := uuid.New()

	if err := engine.HandlePayload(ctx, user, "CANCEL_SLOT:"+slotID.String()); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if len(bookings.cancelled) != 1 || bookings.cancelled[0] != slotID {
		t.Fatalf("expected cancel call, got %v", bookings.cancelled)
	}
	last := sender.last()
	if last.Kind != "buttons" {
		t.Fatalf("expected restart offer, got %+v", last)
	}
	payloadFor(t, last, "Book an appointment")
}

func TestKeywordsOutsideFlow(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	bookings.addFree("2025-06-10", "15:15")
	sender := &fakeSender{}
	engine, _ := newTestEngine(bookings, sender)

	if err := engine.HandleText(ctx, user, "hello"); err != nil {
		t.Fatalf("greeting: %v", err)
	}
	if sender.last().Kind != "buttons" {
		t.Fatalf("expected greeting buttons, got %+v", sender.last())
	}

	if err := engine.HandleText(ctx, user, "I'd like to book something"); err != nil {
		t.Fatalf("book keyword: %v", err)
	}
	if sender.last().Text != "Which month would you like to book?" {
		t.Fatalf("expected month listing, got %q", sender.last().Text)
	}

	if err := engine.HandleText(ctx, user, "completely unrelated"); err != nil {
		t.Fatalf("fallback: %v", err)
	}
	if sender.last().Kind != "buttons" {
		t.Fatalf("expected greeting fallback, got %+v", sender.last())
	}
}

func TestChatSendFailureIsSwallowed(t *testing.T) {
	ctx := context.Background()
	bookings := newFakeBookings()
	bookings.addFree("2025-06-10", "15:15")
	sender := &fakeSender{failAll: true}
	engine, _ := newTestEngine(bookings, sender)

	if err := engine.HandlePayload(ctx, user, "BOOK_START"); err != nil {
		t.Fatalf("send failures must not surface: %v", err)
	}
}
