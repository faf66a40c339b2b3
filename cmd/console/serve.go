package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/boddenberg/lead-console-go/internal/handler"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/infra/queue"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"
	"github.com/boddenberg/lead-console-go/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// notifyTimeout bounds one in-process notification fan-out.
const notifyTimeout = 30 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()
		return serve(cmd.Context(), a)
	},
}

func serve(ctx context.Context, a *app) error {
	cfg, logger, metrics := a.cfg, a.logger, a.metrics

	// --- Tracing ---
	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "lead-console")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}
	defer shutdownTracer(context.Background())

	// --- Notifications ---
	var dispatcher service.Dispatcher
	if cfg.AMQPURL != "" {
		rmq, err := queue.Dial(cfg.AMQPURL, cfg.AMQPQueue)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() { rmq.Close() })
		dispatcher = service.NewQueueDispatcher(queue.NewPublisher(rmq.Ch), metrics, logger)
		logger.Info("lead notifications go through rabbitmq", zap.String("queue", cfg.AMQPQueue))
	} else {
		notifier, err := a.notifier()
		if err != nil {
			return err
		}
		dispatcher = service.NewAsyncDispatcher(notifier, resilience.NewBulkhead(cfg.MaxConcurrency), notifyTimeout, metrics, logger)
	}

	writer, err := a.totalsWriter(ctx)
	if err != nil {
		return err
	}

	// --- Services ---
	sb := a.supabase
	products := a.productCache()

	router := handler.NewRouter(handler.Services{
		Intake: service.NewIntakeService(sb, sb, sb, products, dispatcher, metrics, logger,
			service.WithAutoAssign(cfg.IntakeAutoAssign)),
		Leads:           service.NewLeadService(sb, sb, metrics, logger),
		HandleCustomers: service.NewHandleCustomerService(sb, metrics, logger),
		Analytics:       service.NewAnalyticsService(sb, sb, sb, cfg.Location(), metrics, logger),
		Settings:        service.NewSettingsService(sb, sb, sb, sb, products, cfg.File.ReservedSlugs, metrics, logger),
		Auth:            service.NewAuthService(sb, sb, cfg.JWTSecret, cfg.JWTAccessTTL, logger),
		Reconciler:      service.NewReconciler(sb, sb, writer, metrics, logger),
		Supabase:        sb,
		IntakeLimit:     handler.RateLimit{Limit: cfg.IntakeRateLimit, Window: cfg.IntakeRateWindow},
		CORSOrigins:     cfg.CORSAllowedOrigins,
		TrustProxy:      cfg.TrustProxy,
	}, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
