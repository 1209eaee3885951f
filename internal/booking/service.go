package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/chirostrong/booking-bot/internal/observability/metrics"
	"github.com/chirostrong/booking-bot/internal/schedule"
	"github.com/chirostrong/booking-bot/internal/slots"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

var bookingTracer = otel.Tracer("chirostrong.internal.booking")

// Catalog is the slot catalog surface the service orchestrates.
type Catalog interface {
	Materialize(ctx context.Context, w schedule.Window) error
	List(ctx context.Context, w schedule.Window, today time.Time) ([]slots.Slot, error)
	Get(ctx context.Context, id uuid.UUID) (*slots.Slot, error)
	BookIfFree(ctx context.Context, id uuid.UUID, c slots.Contact) error
	UpdateContact(ctx context.Context, id uuid.UUID, c slots.Contact) error
	Cancel(ctx context.Context, id uuid.UUID) error
	Move(ctx context.Context, oldID, newID uuid.UUID, c slots.Contact) error
	ListBooked(ctx context.Context) ([]slots.Slot, error)
}

// Service validates and orchestrates bookings against the slot catalog.
type Service struct {
	catalog Catalog
	logger  *logging.Logger
	metrics *metrics.BookingMetrics
	now     func() time.Time
}

// NewService constructs a booking service.
func NewService(catalog Catalog, logger *logging.Logger) *Service {
	if catalog == nil {
		panic("booking: catalog required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		catalog: catalog,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// WithMetrics attaches Prometheus counters to booking outcomes.
func (s *Service) WithMetrics(m *metrics.BookingMetrics) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the wall clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	if now != nil {
		s.now = now
	}
	return s
}

// ListSlots materializes the current window and returns its slots from today
// onward. Materializing first keeps the catalog gap-free as the window rolls.
func (s *Service) ListSlots(ctx context.Context) ([]slots.Slot, error) {
	today := truncateToDay(s.now())
	w := schedule.Compute(today)
	if err := s.catalog.Materialize(ctx, w); err != nil {
		return nil, err
	}
	return s.catalog.List(ctx, w, today)
}

// FreeSlots returns the currently free subset of the window.
func (s *Service) FreeSlots(ctx context.Context) ([]slots.Slot, error) {
	all, err := s.ListSlots(ctx)
	if err != nil {
		return nil, err
	}
	free := make([]slots.Slot, 0, len(all))
	for _, slot := range all {
		if !slot.Booked() {
			free = append(free, slot)
		}
	}
	return free, nil
}

// ListBooked returns all booked slots.
func (s *Service) ListBooked(ctx context.Context) ([]slots.Slot, error) {
	return s.catalog.ListBooked(ctx)
}

// Get returns a single slot.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*slots.Slot, error) {
	return s.catalog.Get(ctx, id)
}

// Book validates contact data and attempts the free→booked transition.
func (s *Service) Book(ctx context.Context, id uuid.UUID, c slots.Contact) error {
	ctx, span := bookingTracer.Start(ctx, "booking.book")
	defer span.End()
	span.SetAttributes(attribute.String("chirostrong.slot_id", id.String()))

	if err := validateContact(c.Name, c.Phone, c.Email); err != nil {
		s.metrics.ObserveBooking("validation_failed")
		return err
	}
	if err := s.catalog.BookIfFree(ctx, id, c); err != nil {
		span.RecordError(err)
		if errors.Is(err, slots.ErrSlotTaken) {
			s.metrics.ObserveBooking("conflict")
		}
		return err
	}
	s.metrics.ObserveBooking("confirmed")
	s.logger.Info("booking confirmed", "slot_id", id, "name", c.Name)
	return nil
}

// Update overwrites a booking's contact data, moving it to newID when that
// differs from id. The move books the target before releasing the source.
func (s *Service) Update(ctx context.Context, id, newID uuid.UUID, c slots.Contact) error {
	ctx, span := bookingTracer.Start(ctx, "booking.update")
	defer span.End()

	if err := validateContact(c.Name, c.Phone, c.Email); err != nil {
		return err
	}
	if newID != uuid.Nil && newID != id {
		if err := s.catalog.Move(ctx, id, newID, c); err != nil {
			span.RecordError(err)
			return err
		}
		s.logger.Info("booking moved", "from_slot_id", id, "to_slot_id", newID)
		return nil
	}
	if err := s.catalog.UpdateContact(ctx, id, c); err != nil {
		span.RecordError(err)
		return err
	}
	s.logger.Info("booking updated", "slot_id", id)
	return nil
}

// Cancel releases a booking. Cancelling a free slot succeeds.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) error {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel")
	defer span.End()

	if err := s.catalog.Cancel(ctx, id); err != nil {
		span.RecordError(err)
		return err
	}
	s.metrics.ObserveCancellation()
	s.logger.Info("booking cancelled", "slot_id", id)
	return nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
