// Package service holds the console's use cases. Each service checks the
// caller's capabilities itself, so every entry point goes through the same
// rule set in domain.Role.Can.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService signs staff in through the identity provider and issues
// console access tokens.
type AuthService struct {
	identity  port.IdentityProvider
	admins    port.AdminStore
	jwtSecret []byte
	accessTTL time.Duration
	logger    *zap.Logger
}

func NewAuthService(identity port.IdentityProvider, admins port.AdminStore, jwtSecret string, accessTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		identity:  identity,
		admins:    admins,
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		logger:    logger,
	}
}

// ============================================================
// Login: POST /login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.LoginResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, &domain.ErrValidation{Field: "email", Message: "Email dan password wajib diisi"}
	}

	session, err := s.identity.SignInWithPassword(ctx, email, req.Password)
	if err != nil {
		if err == domain.ErrInvalidCredentials {
			s.logger.Warn("login: invalid credentials", zap.String("email", email))
		}
		return nil, err
	}
	span.SetAttributes(attribute.String("admin.id", session.UserID))

	admin, err := s.admins.GetAdmin(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		s.logger.Warn("login: identity has no admin record", zap.String("user_id", session.UserID))
		return nil, &domain.ErrForbidden{Action: "Akun tidak terdaftar sebagai admin"}
	}
	if !admin.IsActive {
		s.logger.Warn("login: admin inactive", zap.String("admin_id", admin.ID))
		return nil, &domain.ErrForbidden{Action: "Akun tidak aktif"}
	}

	token, err := s.signAccessToken(admin, session.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	s.logger.Info("admin logged in", zap.String("admin_id", admin.ID), zap.String("role", string(admin.Role)))
	return &domain.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
		Admin:       admin,
	}, nil
}

// ============================================================
// Logout: POST /logout
// ============================================================

// Logout revokes the identity session behind the console token. The
// console token itself simply expires.
func (s *AuthService) Logout(ctx context.Context, claims *JWTClaims) error {
	ctx, span := authTracer.Start(ctx, "AuthService.Logout")
	defer span.End()

	if claims.GT == "" {
		return nil
	}
	if err := s.identity.SignOut(ctx, claims.GT); err != nil {
		s.logger.Warn("logout: identity sign-out failed", zap.String("admin_id", claims.Sub), zap.Error(err))
		return nil
	}
	s.logger.Info("admin logged out", zap.String("admin_id", claims.Sub))
	return nil
}

// ============================================================
// Me: GET /me
// ============================================================

func (s *AuthService) Me(ctx context.Context, p domain.Principal) (*domain.Admin, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Me")
	defer span.End()

	admin, err := s.admins.GetAdmin(ctx, p.AdminID)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return nil, &domain.ErrUnauthorized{Message: "Sesi tidak valid"}
	}
	return admin, nil
}
