package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/service"

	"go.uber.org/zap"
)

func TestLogin_IssuesTokenWithRole(t *testing.T) {
	store := newMemStore()
	admin := store.addAdmin("sari", domain.RoleHandleCustomer, true)
	identity := &mockIdentity{session: &domain.AuthSession{UserID: admin.ID, Email: admin.Email, AccessToken: "gotrue-token"}}
	svc := service.NewAuthService(identity, store, "test-secret", time.Hour, zap.NewNop())

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{Email: admin.Email, Password: "secret"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.ExpiresIn != 3600 || resp.Admin.ID != admin.ID {
		t.Errorf("unexpected response %+v", resp)
	}

	claims, err := svc.ValidateAccessToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	p := claims.Principal()
	if p.AdminID != admin.ID || p.Role != domain.RoleHandleCustomer {
		t.Errorf("unexpected principal %+v", p)
	}

	if err := svc.Logout(context.Background(), claims); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(identity.signedOut) != 1 || identity.signedOut[0] != "gotrue-token" {
		t.Errorf("expected identity session to be revoked, got %v", identity.signedOut)
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc := service.NewAuthService(&mockIdentity{signInErr: domain.ErrInvalidCredentials}, newMemStore(), "s", time.Hour, zap.NewNop())

	_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@b.c", Password: "wrong"})
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) || unauthorized.Message != "Email atau password salah" {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestLogin_InactiveOrUnknownAdminIsForbidden(t *testing.T) {
	store := newMemStore()
	inactive := store.addAdmin("old", domain.RoleAdmin, false)

	for _, userID := range []string{inactive.ID, "no-admin-row"} {
		identity := &mockIdentity{session: &domain.AuthSession{UserID: userID, AccessToken: "x"}}
		svc := service.NewAuthService(identity, store, "s", time.Hour, zap.NewNop())

		_, err := svc.Login(context.Background(), &domain.LoginRequest{Email: "a@b.c", Password: "pw"})
		var forbidden *domain.ErrForbidden
		if !errors.As(err, &forbidden) {
			t.Errorf("user %s: expected ErrForbidden, got %v", userID, err)
		}
	}
}

func TestValidateAccessToken_RejectsForeignSecret(t *testing.T) {
	store := newMemStore()
	admin := store.addAdmin("sari", domain.RoleAdmin, true)
	identity := &mockIdentity{session: &domain.AuthSession{UserID: admin.ID}}

	issuer := service.NewAuthService(identity, store, "one", time.Hour, zap.NewNop())
	verifier := service.NewAuthService(identity, store, "two", time.Hour, zap.NewNop())

	resp, err := issuer.Login(context.Background(), &domain.LoginRequest{Email: admin.Email, Password: "pw"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := verifier.ValidateAccessToken(resp.AccessToken); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
	if _, err := verifier.ValidateAccessToken("not-a-jwt"); err == nil {
		t.Error("expected garbage token to be rejected")
	}
}

func TestAuthenticate_UsesStoredAdminRecord(t *testing.T) {
	store := newMemStore()
	admin := store.addAdmin("boss", domain.RoleSuperAdmin, true)
	identity := &mockIdentity{session: &domain.AuthSession{UserID: admin.ID, Email: admin.Email, AccessToken: "gotrue-token"}}
	svc := service.NewAuthService(identity, store, "test-secret", time.Hour, zap.NewNop())

	resp, err := svc.Login(context.Background(), &domain.LoginRequest{Email: admin.Email, Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	admin.Role = domain.RoleAdmin
	claims, err := svc.Authenticate(context.Background(), resp.AccessToken)
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if p := claims.Principal(); p.Role != domain.RoleAdmin || p.Require(domain.CapManageSettings) == nil {
		t.Errorf("expected demoted principal, got %+v", p)
	}

	admin.IsActive = false
	_, err = svc.Authenticate(context.Background(), resp.AccessToken)
	var unauthorized *domain.ErrUnauthorized
	if !errors.As(err, &unauthorized) {
		t.Fatalf("expected unauthorized for inactive admin, got %v", err)
	}
}
