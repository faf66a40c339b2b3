package service

import (
	"context"
	"fmt"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Admin targets
// ============================================================

func (s *SettingsService) ListTargets(ctx context.Context, p domain.Principal, month, year int) ([]domain.AdminTarget, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.ListTargets")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	targets, err := s.targets.ListTargets(ctx, month, year)
	if err != nil {
		degraded(s.logger, s.metrics, "admin_targets", err)
		return []domain.AdminTarget{}, nil
	}
	return targets, nil
}

func (s *SettingsService) CreateTarget(ctx context.Context, p domain.Principal, in domain.TargetInput) (*domain.AdminTarget, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.CreateTarget")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	switch {
	case in.AdminID == nil || *in.AdminID == "":
		return nil, &domain.ErrValidation{Field: "admin_id", Message: "Admin wajib dipilih"}
	case in.Month == nil:
		return nil, &domain.ErrValidation{Field: "month", Message: "Bulan wajib diisi"}
	case in.Year == nil:
		return nil, &domain.ErrValidation{Field: "year", Message: "Tahun wajib diisi"}
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.getAdmin(ctx, *in.AdminID); err != nil {
		return nil, err
	}

	t := &domain.AdminTarget{AdminID: *in.AdminID, Month: *in.Month, Year: *in.Year}
	if in.MonthlyTarget != nil {
		t.MonthlyTarget = *in.MonthlyTarget
	}
	if in.DailyTarget != nil {
		t.DailyTarget = *in.DailyTarget
	}
	span.SetAttributes(attribute.String("admin.id", t.AdminID), attribute.Int("target.month", t.Month), attribute.Int("target.year", t.Year))

	created, err := s.targets.CreateTarget(ctx, t)
	if err != nil {
		return nil, writeFailed("create target", err)
	}
	return created, nil
}

func (s *SettingsService) UpdateTarget(ctx context.Context, p domain.Principal, id string, in domain.TargetInput) (*domain.AdminTarget, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.UpdateTarget")
	defer span.End()
	span.SetAttributes(attribute.String("target.id", id))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	if _, err := s.getTarget(ctx, id); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if in.AdminID != nil {
		if _, err := s.getAdmin(ctx, *in.AdminID); err != nil {
			return nil, err
		}
	}
	if err := s.targets.UpdateTarget(ctx, id, in); err != nil {
		return nil, writeFailed("update target", err)
	}
	return s.getTarget(ctx, id)
}

func (s *SettingsService) DeleteTarget(ctx context.Context, p domain.Principal, id string) error {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.DeleteTarget")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return err
	}
	if _, err := s.getTarget(ctx, id); err != nil {
		return err
	}
	if err := s.targets.DeleteTarget(ctx, id); err != nil {
		return writeFailed("delete target", err)
	}
	return nil
}

func (s *SettingsService) getTarget(ctx context.Context, id string) (*domain.AdminTarget, error) {
	t, err := s.targets.GetTarget(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get target: %w", err)
	}
	if t == nil {
		return nil, &domain.ErrNotFound{Resource: "admin_target", ID: id}
	}
	return t, nil
}
