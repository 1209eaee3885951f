package reminderworker

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/chirostrong/booking-bot/internal/observability/metrics"
	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

type reminderStore interface {
	ListNeedingReminder(ctx context.Context, now time.Time, lead time.Duration) ([]slots.Slot, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

type reminderSender interface {
	SendReminder(ctx context.Context, slot slots.Slot) error
}

// Scanner periodically finds booked appointments starting within the lead
// window and emails the patient once. A slot is marked only after a
// successful send, so a failed delivery is retried on the next pass.
type Scanner struct {
	store    reminderStore
	notifier reminderSender
	logger   *logging.Logger
	metrics  *metrics.BookingMetrics
	interval time.Duration
	lead     time.Duration
	now      func() time.Time
}

func NewScanner(store reminderStore, notifier reminderSender, logger *logging.Logger) *Scanner {
	if logger == nil {
		logger = logging.Default()
	}
	return &Scanner{
		store:    store,
		notifier: notifier,
		logger:   logger,
		interval: 15 * time.Minute,
		lead:     24 * time.Hour,
		now:      time.Now,
	}
}

func (s *Scanner) WithInterval(d time.Duration) *Scanner {
	if d > 0 {
		s.interval = d
	}
	return s
}

func (s *Scanner) WithLeadTime(d time.Duration) *Scanner {
	if d > 0 {
		s.lead = d
	}
	return s
}

func (s *Scanner) WithMetrics(m *metrics.BookingMetrics) *Scanner {
	s.metrics = m
	return s
}

func (s *Scanner) WithClock(now func() time.Time) *Scanner {
	if now != nil {
		s.now = now
	}
	return s
}

// Run blocks until ctx is cancelled, scanning immediately and then on
// every tick.
func (s *Scanner) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	s.drain(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.drain(ctx)
		}
	}
}

func (s *Scanner) drain(ctx context.Context) {
	if s.store == nil || s.notifier == nil {
		return
	}
	now := s.now().UTC()
	due, err := s.store.ListNeedingReminder(ctx, now, s.lead)
	if err != nil {
		s.logger.Error("reminder scan failed", "error", err)
		return
	}
	for _, slot := range due {
		if err := s.notifier.SendReminder(ctx, slot); err != nil {
			// One failed email must not block the rest of the batch.
			s.logger.Warn("reminder send failed", "slot_id", slot.ID, "error", err)
			s.metrics.ObserveReminder("failed")
			continue
		}
		if err := s.store.MarkReminderSent(ctx, slot.ID); err != nil {
			s.logger.Error("reminder mark failed", "slot_id", slot.ID, "error", err)
			continue
		}
		s.metrics.ObserveReminder("sent")
		s.logger.Info("reminder sent", "slot_id", slot.ID, "start", slot.StartAt())
	}
}
