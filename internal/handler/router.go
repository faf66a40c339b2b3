package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Pinger reports whether a backing dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services bundles everything the router dispatches to. A nil Auth
// leaves only the public and operational routes mounted.
type Services struct {
	Intake          *service.IntakeService
	Leads           *service.LeadService
	HandleCustomers *service.HandleCustomerService
	Analytics       *service.AnalyticsService
	Settings        *service.SettingsService
	Auth            *service.AuthService
	Reconciler      *service.Reconciler

	Supabase    Pinger
	IntakeLimit RateLimit
	CORSOrigins []string

	// TrustProxy honours X-Forwarded-For and X-Real-IP. Leave it off
	// unless a proxy that overwrites those headers fronts the service.
	TrustProxy bool
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	if svc.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(observability.ZapLoggerMiddleware(logger, metrics))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	if len(svc.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   svc.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Supabase, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Authenticated console ---
	if svc.Auth != nil {
		r.Post("/login", loginHandler(svc.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			r.Post("/logout", logoutHandler(svc.Auth, logger))
			r.Get("/me", meHandler(svc.Auth, logger))

			r.With(RequireCapability(domain.CapViewDashboard, logger)).
				Get("/dashboard", dashboardHandler(svc.Analytics, logger))

			r.Route("/leads", func(r chi.Router) {
				r.Use(RequireCapability(domain.CapManageLeads, logger))
				r.Get("/", listLeadsHandler(svc.Leads, logger))
				r.Get("/{leadId}", getLeadHandler(svc.Leads, logger))
				r.Patch("/{leadId}", updateLeadHandler(svc.Leads, logger))
			})

			r.Route("/handle-customers", func(r chi.Router) {
				r.Use(RequireCapability(domain.CapHandleCustomers, logger))
				r.Get("/", listHandleCustomersHandler(svc.HandleCustomers, logger))
				r.Patch("/{id}", updateHandleCustomerHandler(svc.HandleCustomers, logger))
				r.Post("/{id}/contacted", markContactedHandler(svc.HandleCustomers, logger))
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Use(RequireCapability(domain.CapViewAnalytics, logger))
				r.Get("/", analyticsHandler(svc.Analytics, logger))
				r.Get("/targets", targetProgressHandler(svc.Analytics, logger))
			})

			r.Route("/settings", func(r chi.Router) {
				r.Use(RequireCapability(domain.CapManageSettings, logger))

				r.Get("/products", listProductsHandler(svc.Settings, logger))
				r.Post("/products", createProductHandler(svc.Settings, logger))
				r.Patch("/products/{id}", updateProductHandler(svc.Settings, logger))
				r.Delete("/products/{id}", deleteProductHandler(svc.Settings, logger))
				r.Get("/products/{id}/sub-products", listSubProductsHandler(svc.Settings, logger))
				r.Post("/products/{id}/sub-products", createSubProductHandler(svc.Settings, logger))
				r.Patch("/sub-products/{id}", updateSubProductHandler(svc.Settings, logger))
				r.Delete("/sub-products/{id}", deleteSubProductHandler(svc.Settings, logger))

				r.Get("/admins", listAdminsHandler(svc.Settings, logger))
				r.Post("/admins", createAdminHandler(svc.Settings, logger))
				r.Patch("/admins/{id}", updateAdminHandler(svc.Settings, logger))
				r.Post("/admins/{id}/toggle", toggleAdminHandler(svc.Settings, logger))

				r.Get("/targets", listTargetsHandler(svc.Settings, logger))
				r.Post("/targets", createTargetHandler(svc.Settings, logger))
				r.Patch("/targets/{id}", updateTargetHandler(svc.Settings, logger))
				r.Delete("/targets/{id}", deleteTargetHandler(svc.Settings, logger))

				r.Post("/reconcile", reconcileHandler(svc.Reconciler, logger))
			})
		})
	}

	// --- Public intake form ---
	// Static routes above take precedence over the slug parameter.
	if svc.Intake != nil {
		r.Get("/{productSlug}", intakeFormHandler(svc.Intake, logger))
		r.With(RateLimitMiddleware(svc.IntakeLimit, logger)).
			Post("/{productSlug}", intakeSubmitHandler(svc.Intake, logger))
	}

	return r
}

// ============================================================
// Operational
// ============================================================

func healthzHandler(supabase Pinger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)
		services := []domain.ServiceHealth{
			{Name: "console-api", Status: "healthy", LastChecked: now},
		}

		if supabase != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
			defer cancel()

			start := time.Now()
			err := supabase.Ping(ctx)
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("healthz: supabase ping failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "supabase", Status: status, LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status != "healthy" {
				overall = s.Status
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
