package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for booking and conversation flows.
type BookingMetrics struct {
	bookingsTotal      *prometheus.CounterVec
	cancellationsTotal prometheus.Counter
	remindersTotal     *prometheus.CounterVec
	chatEventsTotal    *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookingsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chirostrong",
			Subsystem: "booking",
			Name:      "attempts_total",
			Help:      "Booking attempts by outcome",
		}, []string{"outcome"}),
		cancellationsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "chirostrong",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Total booking cancellations",
		}),
		remindersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chirostrong",
			Subsystem: "reminder",
			Name:      "emails_total",
			Help:      "Reminder email attempts by status",
		}, []string{"status"}),
		chatEventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "chirostrong",
			Subsystem: "conversation",
			Name:      "events_total",
			Help:      "Inbound chat events by kind",
		}, []string{"kind"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookingsTotal, m.cancellationsTotal, m.remindersTotal, m.chatEventsTotal)
	return m
}

func (m *BookingMetrics) ObserveBooking(outcome string) {
	if m == nil {
		return
	}
	m.bookingsTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveCancellation() {
	if m == nil {
		return
	}
	m.cancellationsTotal.Inc()
}

func (m *BookingMetrics) ObserveReminder(status string) {
	if m == nil {
		return
	}
	m.remindersTotal.WithLabelValues(status).Inc()
}

func (m *BookingMetrics) ObserveChatEvent(kind string) {
	if m == nil {
		return
	}
	m.chatEventsTotal.WithLabelValues(kind).Inc()
}
