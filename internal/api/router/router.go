package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chirostrong/booking-bot/internal/http/handlers"
	httpmiddleware "github.com/chirostrong/booking-bot/internal/http/middleware"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

// MessengerWebhook is the channel surface mounted under /api/messenger.
type MessengerWebhook interface {
	HandleVerification(w http.ResponseWriter, r *http.Request)
	HandleWebhook(w http.ResponseWriter, r *http.Request)
}

// Config holds router configuration.
type Config struct {
	Logger             *logging.Logger
	Booking            *handlers.BookingHandler
	AdminBookings      *handlers.AdminBookingsHandler
	Messenger          MessengerWebhook
	MetricsHandler     http.Handler
	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// Requests/sec and burst for the public booking endpoint. Zero
	// disables rate limiting.
	BookRateLimit float64
	BookRateBurst int
}

// New creates a Chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints.
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.Booking.HealthCheck)
		public.Route("/api", func(api chi.Router) {
			api.Get("/slots", cfg.Booking.ListSlots)
			if cfg.BookRateLimit > 0 {
				api.With(httpmiddleware.RateLimit(cfg.BookRateLimit, cfg.BookRateBurst)).Post("/book", cfg.Booking.Book)
			} else {
				api.Post("/book", cfg.Booking.Book)
			}
			if cfg.Messenger != nil {
				api.Get("/messenger/webhook", cfg.Messenger.HandleVerification)
				api.Post("/messenger/webhook", cfg.Messenger.HandleWebhook)
			}
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin endpoints, JWT-protected. An empty secret keeps them closed.
	if cfg.AdminBookings != nil {
		r.Route("/api/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Get("/bookings", cfg.AdminBookings.List)
			admin.Patch("/bookings/{slotID}", cfg.AdminBookings.Update)
			admin.Delete("/bookings/{slotID}", cfg.AdminBookings.Delete)
		})
	}

	return r
}
