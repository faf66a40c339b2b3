// Package whatsapp sends session messages through a WATI-compatible gateway.
package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("whatsapp")

// Client implements port.Messenger against the gateway's
// /api/v1/sendSessionMessage endpoint.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cb         *gobreaker.CircuitBreaker
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, baseURL, apiKey string, cb *gobreaker.CircuitBreaker, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		cb:         cb,
		logger:     logger,
	}
}

type sessionMessage struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// Send delivers text to number once. Messages are not idempotent, so a
// failed send is not retried.
func (c *Client) Send(ctx context.Context, number, text string) error {
	ctx, span := tracer.Start(ctx, "WhatsApp.Send")
	defer span.End()

	phone := NormalizeNumber(number)
	span.SetAttributes(attribute.String("whatsapp.phone", phone))

	body, err := json.Marshal(sessionMessage{Phone: phone, Message: text})
	if err != nil {
		return err
	}

	err = resilience.Execute(ctx, c.cb, resilience.Config{}, false, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/sendSessionMessage", bytes.NewReader(body))
		if err != nil {
			return resilience.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			serr := fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, respBody)
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return resilience.Permanent(serr)
			}
			return serr
		}
		return nil
	})
	if err != nil {
		c.logger.Warn("whatsapp: send failed", zap.String("phone", phone), zap.Error(err))
		return &domain.ErrExternalService{Service: "whatsapp", Err: err}
	}

	c.logger.Debug("whatsapp: message sent", zap.String("phone", phone))
	return nil
}

// NormalizeNumber strips formatting and rewrites a local Indonesian
// number (leading 0) into the 62 country prefix the gateway expects.
func NormalizeNumber(number string) string {
	var b strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		return "62" + digits[1:]
	}
	return digits
}

// Noop logs messages instead of sending them. It is used when no gateway
// is configured.
type Noop struct {
	Logger *zap.Logger
}

func (n Noop) Send(_ context.Context, number, text string) error {
	n.Logger.Info("whatsapp: gateway not configured, message dropped",
		zap.String("phone", NormalizeNumber(number)),
		zap.Int("length", len(text)),
	)
	return nil
}
