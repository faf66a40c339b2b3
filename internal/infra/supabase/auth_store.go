package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/resilience"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// GoTrue: implements port.IdentityProvider
// ============================================================

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueSession struct {
	AccessToken string     `json:"access_token"`
	User        gotrueUser `json:"user"`
}

// SignInWithPassword exchanges email and password for a GoTrue session.
// Any 4xx answer is reported as invalid credentials.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*domain.AuthSession, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignInWithPassword")
	defer span.End()

	payload := map[string]string{"email": email, "password": password}
	var session gotrueSession
	err := resilience.Execute(ctx, c.cb, c.cfg, false, func() error {
		body, err := c.send(ctx, http.MethodPost, c.authURL("token?grant_type=password"), c.apiKey, payload, "")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &session); err != nil {
			return resilience.Permanent(fmt.Errorf("decode session: %w", err))
		}
		return nil
	})
	if err != nil {
		if clientError(err) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, c.wrap("auth", err)
	}

	span.SetAttributes(attribute.String("auth.user_id", session.User.ID))
	return &domain.AuthSession{
		UserID:      session.User.ID,
		Email:       session.User.Email,
		AccessToken: session.AccessToken,
	}, nil
}

// SignUp registers a new identity. GoTrue answers either with the user
// object or with a session wrapping it, depending on email confirmation.
func (c *Client) SignUp(ctx context.Context, email, password string) (*domain.AuthUser, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	payload := map[string]string{"email": email, "password": password}
	var resp struct {
		gotrueUser
		User *gotrueUser `json:"user"`
	}
	err := resilience.Execute(ctx, c.cb, c.cfg, false, func() error {
		body, err := c.send(ctx, http.MethodPost, c.authURL("signup"), c.apiKey, payload, "")
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &resp); err != nil {
			return resilience.Permanent(fmt.Errorf("decode signup: %w", err))
		}
		return nil
	})
	if err != nil {
		var serr *statusError
		if errors.As(err, &serr) && (serr.Status == http.StatusUnprocessableEntity || serr.Status == http.StatusBadRequest) {
			return nil, &domain.ErrConflict{Message: "email already registered"}
		}
		return nil, c.wrap("auth", err)
	}

	u := resp.gotrueUser
	if resp.User != nil && resp.User.ID != "" {
		u = *resp.User
	}
	if u.ID == "" {
		return nil, &domain.ErrExternalService{Service: "supabase/auth", Err: errors.New("signup returned no user id")}
	}
	return &domain.AuthUser{ID: u.ID, Email: u.Email}, nil
}

// SignOut revokes the GoTrue session behind accessToken.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	ctx, span := tracer.Start(ctx, "Supabase.SignOut")
	defer span.End()

	err := resilience.Execute(ctx, c.cb, c.cfg, false, func() error {
		_, err := c.send(ctx, http.MethodPost, c.authURL("logout"), accessToken, nil, "")
		return err
	})
	if err != nil {
		// An already expired session is as good as a revoked one.
		if clientError(err) {
			return nil
		}
		return c.wrap("auth", err)
	}
	return nil
}

func clientError(err error) bool {
	var serr *statusError
	return errors.As(err, &serr) && serr.Status >= 400 && serr.Status < 500
}
