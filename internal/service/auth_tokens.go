package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// ============================================================
// ValidateToken: used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens. GT carries the
// identity provider's access token so logout can revoke it.
type JWTClaims struct {
	Sub  string      `json:"sub"`
	Role domain.Role `json:"role"`
	Type string      `json:"type"`
	GT   string      `json:"gt,omitempty"`
	jwt.RegisteredClaims
}

// Principal is the caller the claims describe.
func (c *JWTClaims) Principal() domain.Principal {
	return domain.Principal{AdminID: c.Sub, Role: c.Role}
}

func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Token tidak valid atau kedaluwarsa"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Token tidak valid"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Jenis token tidak valid"}
	}
	if !claims.Role.Valid() {
		return nil, &domain.ErrUnauthorized{Message: "Role tidak dikenal"}
	}
	return claims, nil
}

// Authenticate validates the token and reloads the admin behind it. The
// returned claims carry the stored role, so a demotion or deactivation
// takes effect on the next request instead of at token expiry.
func (s *AuthService) Authenticate(ctx context.Context, tokenString string) (*JWTClaims, error) {
	claims, err := s.ValidateAccessToken(tokenString)
	if err != nil {
		return nil, err
	}

	admin, err := s.admins.GetAdmin(ctx, claims.Sub)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil || !admin.IsActive {
		return nil, &domain.ErrUnauthorized{Message: "Sesi tidak valid"}
	}
	if admin.Role != claims.Role {
		s.logger.Info("auth: role changed since login",
			zap.String("admin_id", admin.ID),
			zap.String("token_role", string(claims.Role)),
			zap.String("stored_role", string(admin.Role)),
		)
		claims.Role = admin.Role
	}
	return claims, nil
}

// ============================================================
// Internal JWT helpers
// ============================================================

func (s *AuthService) signAccessToken(admin *domain.Admin, identityToken string) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		Sub:  admin.ID,
		Role: admin.Role,
		Type: "access",
		GT:   identityToken,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    "lead-console",
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
