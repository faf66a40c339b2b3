package handler

import (
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"github.com/go-chi/httprate"
	"go.uber.org/zap"
)

// RateLimit configures the per-client budget on public form submissions.
// A zero Limit disables it.
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// RateLimitMiddleware answers 429 once a client exceeds its budget.
// Clients are keyed on RemoteAddr, which middleware.RealIP only rewrites
// when the router is told it sits behind a trusted proxy.
func RateLimitMiddleware(rl RateLimit, logger *zap.Logger) func(http.Handler) http.Handler {
	if rl.Limit <= 0 || rl.Window <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(rl.Limit, rl.Window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.Warn("rate limit exceeded", zap.String("remote_addr", r.RemoteAddr), zap.String("path", r.URL.Path))
			handleServiceError(w, &domain.ErrRateLimited{}, logger)
		}),
	)
}
