package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const minPasswordLength = 6

// ============================================================
// Admins
// ============================================================

func (s *SettingsService) ListAdmins(ctx context.Context, p domain.Principal) ([]domain.Admin, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.ListAdmins")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "admins", err)
		return []domain.Admin{}, nil
	}
	return admins, nil
}

// CreateAdmin registers the identity first and then the admins row keyed
// by the identity's id.
func (s *SettingsService) CreateAdmin(ctx context.Context, p domain.Principal, req *domain.NewAdminRequest) (*domain.Admin, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.CreateAdmin")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Role == "" {
		req.Role = domain.RoleAdmin
	}
	switch {
	case req.Name == "":
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama wajib diisi"}
	case !validEmail(req.Email):
		return nil, &domain.ErrValidation{Field: "email", Message: "Email tidak valid"}
	case len(req.Password) < minPasswordLength:
		return nil, &domain.ErrValidation{Field: "password", Message: fmt.Sprintf("Password minimal %d karakter", minPasswordLength)}
	case !req.Role.Valid():
		return nil, &domain.ErrValidation{Field: "role", Message: "Role tidak dikenal"}
	}

	user, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, writeFailed("register admin identity", err)
	}
	span.SetAttributes(attribute.String("admin.id", user.ID))

	created, err := s.admins.CreateAdmin(ctx, &domain.Admin{
		ID:    user.ID,
		Name:  req.Name,
		Email: req.Email,
		Role:  req.Role,
	})
	if err != nil {
		s.logger.Error("identity registered but admin row failed", zap.String("user_id", user.ID), zap.Error(err))
		return nil, writeFailed("create admin", err)
	}
	s.logger.Info("admin created", zap.String("admin_id", created.ID), zap.String("role", string(created.Role)))
	return created, nil
}

func (s *SettingsService) UpdateAdmin(ctx context.Context, p domain.Principal, id string, in domain.AdminInput) (*domain.Admin, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.UpdateAdmin")
	defer span.End()
	span.SetAttributes(attribute.String("admin.id", id))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	if _, err := s.getAdmin(ctx, id); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama wajib diisi"}
	}
	if in.Role != nil && !in.Role.Valid() {
		return nil, &domain.ErrValidation{Field: "role", Message: "Role tidak dikenal"}
	}
	if id == p.AdminID && ((in.IsActive != nil && !*in.IsActive) || (in.Role != nil && *in.Role != domain.RoleSuperAdmin)) {
		return nil, &domain.ErrValidation{Field: "id", Message: "Tidak dapat menurunkan akses akun sendiri"}
	}

	if err := s.admins.UpdateAdmin(ctx, id, in); err != nil {
		return nil, writeFailed("update admin", err)
	}
	return s.getAdmin(ctx, id)
}

// ToggleAdmin flips the admin's active flag.
func (s *SettingsService) ToggleAdmin(ctx context.Context, p domain.Principal, id string) (*domain.Admin, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.ToggleAdmin")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	current, err := s.getAdmin(ctx, id)
	if err != nil {
		return nil, err
	}
	active := !current.IsActive
	return s.UpdateAdmin(ctx, p, id, domain.AdminInput{IsActive: &active})
}

func (s *SettingsService) getAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	admin, err := s.admins.GetAdmin(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get admin: %w", err)
	}
	if admin == nil {
		return nil, &domain.ErrNotFound{Resource: "admin", ID: id}
	}
	return admin, nil
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
