package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/config"
	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/cache"
	"github.com/boddenberg/lead-console-go/internal/infra/mail"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/infra/postgres"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"
	"github.com/boddenberg/lead-console-go/internal/infra/supabase"
	"github.com/boddenberg/lead-console-go/internal/infra/whatsapp"
	"github.com/boddenberg/lead-console-go/internal/port"
	"github.com/boddenberg/lead-console-go/internal/service"

	"go.uber.org/zap"
)

// app holds what every subcommand shares.
type app struct {
	cfg        *config.Config
	logger     *zap.Logger
	metrics    *observability.Metrics
	httpClient *http.Client
	supabase   *supabase.Client

	closers []func()
}

func newApp() (*app, error) {
	// --- Load .env file (for local development) ---
	if err := config.LoadDotEnv(envFile); err != nil {
		return nil, fmt.Errorf("load %s: %w", envFile, err)
	}

	// --- Config ---
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.String("timezone", cfg.Timezone),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Bool("intake_auto_assign", cfg.IntakeAutoAssign),
		zap.Bool("queue_enabled", cfg.AMQPURL != ""),
	)

	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
	supabaseClient := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.ServiceKey(),
		resilience.NewCircuitBreaker("supabase"),
		resilience.Config{
			MaxRetries:     cfg.MaxRetries,
			InitialBackoff: cfg.InitialBackoff,
			MaxConcurrency: cfg.MaxConcurrency,
		},
		logger,
	)

	return &app{
		cfg:        cfg,
		logger:     logger,
		metrics:    observability.NewMetrics(),
		httpClient: httpClient,
		supabase:   supabaseClient,
	}, nil
}

// close runs the registered closers in reverse order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	_ = a.logger.Sync()
}

// notifier wires the WhatsApp gateway (or the logging stub) and, when SMTP
// is configured, the email channel.
func (a *app) notifier() (*service.Notifier, error) {
	var messenger port.Messenger = whatsapp.Noop{Logger: a.logger}
	if a.cfg.WhatsAppAPIURL != "" {
		messenger = whatsapp.NewClient(a.httpClient, a.cfg.WhatsAppAPIURL, a.cfg.WhatsAppAPIKey,
			resilience.NewCircuitBreaker("whatsapp"), a.logger)
	} else {
		a.logger.Warn("WHATSAPP_API_URL not set: notifications are logged only")
	}

	var email service.EmailSender
	if a.cfg.SMTPHost != "" {
		dialer := mail.NewSMTPDialer(a.cfg.SMTPHost, a.cfg.SMTPPort, a.cfg.SMTPUser, a.cfg.SMTPPass)
		tmpl := a.cfg.File.Notifications
		sender, err := mail.NewSender(dialer, a.cfg.SMTPSender, tmpl.EmailSubject, tmpl.EmailTemplate, a.logger)
		if err != nil {
			return nil, err
		}
		email = sender
	}

	return service.NewNotifier(messenger, email, a.cfg.File.Notifications.WhatsAppTemplate, a.metrics, a.logger)
}

// totalsWriter prefers a direct database transaction and falls back to
// PostgREST.
func (a *app) totalsWriter(ctx context.Context) (port.AdminTotalsWriter, error) {
	if a.cfg.DatabaseURL == "" {
		return a.supabase, nil
	}
	db, err := postgres.Open(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { db.Close() })
	a.logger.Info("reconciliation writes through direct postgres connection")
	return postgres.NewTotalsWriter(db), nil
}

func (a *app) productCache() *cache.InMemory[*domain.Product] {
	c := cache.New[*domain.Product](a.cfg.CacheTTL)
	a.closers = append(a.closers, c.Close)
	return c
}
