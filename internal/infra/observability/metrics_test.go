package observability_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/boddenberg/lead-console-go/internal/infra/observability"

	"go.uber.org/zap"
)

func TestMetrics_Counters(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrLeadCreated("TikTok")
	m.IncrLeadCreated("TikTok")
	m.IncrNotification("whatsapp", "failed")
	m.IncrDegradedRead("leads")

	if got := m.LeadsCreated("TikTok"); got != 2 {
		t.Errorf("expected 2 TikTok leads, got %v", got)
	}
	if got := m.Notifications("whatsapp", "failed"); got != 1 {
		t.Errorf("expected 1 failed notification, got %v", got)
	}
	if got := m.DegradedReads("leads"); got != 1 {
		t.Errorf("expected 1 degraded read, got %v", got)
	}
}

func TestNewMetrics_Repeatable(t *testing.T) {
	_ = observability.NewMetrics()
	_ = observability.NewMetrics()
}

func TestZapLoggerMiddleware_PassesThrough(t *testing.T) {
	m := observability.NewMetrics()
	h := observability.ZapLoggerMiddleware(zap.NewNop(), m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/leads", nil))

	if rec.Code != http.StatusTeapot {
		t.Errorf("expected 418, got %d", rec.Code)
	}
}
