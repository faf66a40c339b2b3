// Package supabase provides a client for Supabase (PostgREST + GoTrue).
// It is the only persistence and identity backend of the console.
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("supabase")

// Client wraps HTTP calls to the Supabase REST and Auth APIs.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	apiKey         string
	serviceRoleKey string
	cb             *gobreaker.CircuitBreaker
	cfg            resilience.Config
	logger         *zap.Logger
}

// NewClient creates a Supabase client. serviceRoleKey authorizes table
// access; apiKey is the project's public key.
func NewClient(httpClient *http.Client, baseURL, apiKey, serviceRoleKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	if serviceRoleKey == "" {
		serviceRoleKey = apiKey
	}
	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(baseURL, "/"),
		apiKey:         apiKey,
		serviceRoleKey: serviceRoleKey,
		cb:             cb,
		cfg:            cfg,
		logger:         logger,
	}
}

// statusError is a non-2xx answer from Supabase.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("supabase returned status %d: %s", e.Status, e.Body)
}

// postgrestError is the JSON error body PostgREST returns.
type postgrestError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// send performs one request. 4xx answers are wrapped as permanent so the
// retry loop and the breaker leave them alone.
func (c *Client) send(ctx context.Context, method, rawURL, bearer string, payload any, prefer string) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, resilience.Permanent(err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return nil, resilience.Permanent(err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("supabase: request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: non-2xx response",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(respBody)),
		)
		serr := &statusError{Status: resp.StatusCode, Body: string(respBody)}
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return nil, resilience.Permanent(serr)
		}
		return nil, serr
	}

	c.logger.Debug("supabase: request OK",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
	)
	return respBody, nil
}

func (c *Client) restURL(path string) string {
	return fmt.Sprintf("%s/rest/v1/%s", c.baseURL, path)
}

func (c *Client) authURL(path string) string {
	return fmt.Sprintf("%s/auth/v1/%s", c.baseURL, path)
}

// query runs an idempotent GET against PostgREST and decodes the JSON
// array into out. Transient failures are retried.
func (c *Client) query(ctx context.Context, resource, path string, out any) error {
	err := resilience.Execute(ctx, c.cb, c.cfg, true, func() error {
		body, err := c.send(ctx, http.MethodGet, c.restURL(path), c.serviceRoleKey, nil, "")
		if err != nil {
			return err
		}
		if len(body) == 0 {
			body = []byte("[]")
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", resource, err))
		}
		return nil
	})
	if err != nil {
		return c.wrap(resource, err)
	}
	return nil
}

// mutate runs a single non-idempotent write. It is never retried.
func (c *Client) mutate(ctx context.Context, resource, method, path string, payload any, out any) error {
	prefer := "return=minimal"
	if out != nil {
		prefer = "return=representation"
	}
	err := resilience.Execute(ctx, c.cb, c.cfg, false, func() error {
		body, err := c.send(ctx, method, c.restURL(path), c.serviceRoleKey, payload, prefer)
		if err != nil {
			return err
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return resilience.Permanent(fmt.Errorf("decode %s: %w", resource, err))
		}
		return nil
	})
	if err != nil {
		return c.wrap(resource, err)
	}
	return nil
}

// wrap converts transport and status failures into domain errors.
func (c *Client) wrap(resource string, err error) error {
	var open *domain.ErrCircuitOpen
	if errors.As(err, &open) {
		return err
	}
	var serr *statusError
	if errors.As(err, &serr) {
		var pg postgrestError
		if json.Unmarshal([]byte(serr.Body), &pg) == nil && pg.Code == "23505" {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s already exists", resource)}
		}
		if serr.Status == http.StatusConflict {
			return &domain.ErrConflict{Message: fmt.Sprintf("%s conflicts with an existing row", resource)}
		}
	}
	return &domain.ErrExternalService{Service: "supabase/" + resource, Err: err}
}

// eq builds a PostgREST equality filter value.
func eq(v string) string {
	return "eq." + url.QueryEscape(v)
}

// Ping checks that PostgREST answers.
func (c *Client) Ping(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Supabase.Ping")
	defer span.End()

	var rows []struct {
		ID string `json:"id"`
	}
	return c.query(ctx, "products", "products?select=id&limit=1", &rows)
}
