package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
)

// ============================================================
// Admin targets: implements port.TargetStore
// ============================================================

func (c *Client) ListTargets(ctx context.Context, month, year int) ([]domain.AdminTarget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTargets")
	defer span.End()

	path := "admin_targets?select=*,admin:admins(*)&order=year.desc,month.desc"
	if month != 0 && year != 0 {
		path += fmt.Sprintf("&month=eq.%d&year=eq.%d", month, year)
	}
	var rows []domain.AdminTarget
	if err := c.query(ctx, "admin_targets", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetTarget(ctx context.Context, id string) (*domain.AdminTarget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTarget")
	defer span.End()

	var rows []domain.AdminTarget
	if err := c.query(ctx, "admin_targets", fmt.Sprintf("admin_targets?select=*&id=%s&limit=1", eq(id)), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateTarget(ctx context.Context, t *domain.AdminTarget) (*domain.AdminTarget, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTarget")
	defer span.End()

	payload := map[string]any{
		"admin_id":       t.AdminID,
		"month":          t.Month,
		"year":           t.Year,
		"monthly_target": t.MonthlyTarget,
		"daily_target":   t.DailyTarget,
	}
	var rows []domain.AdminTarget
	if err := c.mutate(ctx, "admin_target", http.MethodPost, "admin_targets", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert admin target returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateTarget(ctx context.Context, id string, in domain.TargetInput) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTarget")
	defer span.End()

	payload := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if in.AdminID != nil {
		payload["admin_id"] = *in.AdminID
	}
	if in.Month != nil {
		payload["month"] = *in.Month
	}
	if in.Year != nil {
		payload["year"] = *in.Year
	}
	if in.MonthlyTarget != nil {
		payload["monthly_target"] = *in.MonthlyTarget
	}
	if in.DailyTarget != nil {
		payload["daily_target"] = *in.DailyTarget
	}
	return c.mutate(ctx, "admin_target", http.MethodPatch, "admin_targets?id="+eq(id), payload, nil)
}

func (c *Client) DeleteTarget(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTarget")
	defer span.End()

	return c.mutate(ctx, "admin_target", http.MethodDelete, "admin_targets?id="+eq(id), nil, nil)
}
