package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/chirostrong/booking-bot/internal/api/router"
	"github.com/chirostrong/booking-bot/internal/booking"
	"github.com/chirostrong/booking-bot/internal/channels/messenger"
	appconfig "github.com/chirostrong/booking-bot/internal/config"
	"github.com/chirostrong/booking-bot/internal/conversation"
	"github.com/chirostrong/booking-bot/internal/http/handlers"
	"github.com/chirostrong/booking-bot/internal/notify"
	"github.com/chirostrong/booking-bot/internal/observability/metrics"
	"github.com/chirostrong/booking-bot/internal/slots"
	reminderworker "github.com/chirostrong/booking-bot/internal/worker/reminder"
	"github.com/chirostrong/booking-bot/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting booking-bot API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	pool, err := pgxpool.New(rootCtx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("database pool init failed", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	bookingMetrics := metrics.NewBookingMetrics(registry)

	store := slots.NewStore(pool)
	service := booking.NewService(store, logger).WithMetrics(bookingMetrics)

	// Materialize the current window up front so the first listing is
	// served from a populated catalog.
	if _, err := service.ListSlots(rootCtx); err != nil {
		logger.Error("startup slot materialization failed", "error", err)
		os.Exit(1)
	}

	notifier := notify.NewService(buildEmailSender(rootCtx, cfg, logger), notify.Practice{
		Name:         cfg.PracticeName,
		Address:      cfg.PracticeAddress,
		Price:        cfg.PracticePrice,
		ContactEmail: cfg.ContactEmail,
	}, logger)

	var states conversation.StateStore
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		states = conversation.NewRedisStore(redis.NewClient(opts), cfg.StateTTL)
		logger.Info("conversation state in redis", "addr", cfg.RedisAddr)
	} else {
		states = conversation.NewMemoryStore()
	}

	adapter := messenger.NewAdapter(
		cfg.MessengerPageAccessToken,
		cfg.MessengerAppSecret,
		cfg.MessengerVerifyToken,
		logger,
	)
	engine := conversation.NewEngine(service, adapter, states, conversation.Config{
		PracticeName:    cfg.PracticeName,
		PracticeAddress: cfg.PracticeAddress,
		PracticePrice:   cfg.PracticePrice,
		ContactEmail:    cfg.ContactEmail,
		SiteURL:         cfg.PublicBaseURL,
	}, logger).WithMetrics(bookingMetrics)
	adapter.SetEngine(engine)

	scanner := reminderworker.NewScanner(store, notifier, logger).
		WithInterval(cfg.ReminderInterval).
		WithLeadTime(cfg.ReminderLeadTime).
		WithMetrics(bookingMetrics)
	go scanner.Run(rootCtx)

	r := router.New(&router.Config{
		Logger:             logger,
		Booking:            handlers.NewBookingHandler(service, notifier, logger),
		AdminBookings:      handlers.NewAdminBookingsHandler(service, logger),
		Messenger:          adapter,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		BookRateLimit:      2,
		BookRateBurst:      5,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}

// buildEmailSender picks the configured delivery provider. With nothing
// configured a logging stub keeps the reminder pipeline running in dev.
func buildEmailSender(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) notify.EmailSender {
	switch cfg.EmailProvider {
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("AWS config load failed, falling back to stub email sender", "error", err)
			return notify.NewStubEmailSender(logger)
		}
		sender := notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger)
		if sender != nil {
			return sender
		}
	}
	logger.Warn("no email provider configured, using stub sender")
	return notify.NewStubEmailSender(logger)
}
