package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// ============================================================
// Admins: implements port.AdminStore and port.AdminTotalsWriter
// ============================================================

func (c *Client) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAdmins")
	defer span.End()

	var rows []domain.Admin
	if err := c.query(ctx, "admins", "admins?select=*&order=created_at.asc", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetAdmin(ctx context.Context, id string) (*domain.Admin, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAdmin")
	defer span.End()
	span.SetAttributes(attribute.String("admin.id", id))

	var rows []domain.Admin
	if err := c.query(ctx, "admins", fmt.Sprintf("admins?select=*&id=%s&limit=1", eq(id)), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateAdmin inserts the admins row for an identity created by SignUp.
func (c *Client) CreateAdmin(ctx context.Context, a *domain.Admin) (*domain.Admin, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAdmin")
	defer span.End()

	payload := map[string]any{
		"id":        a.ID,
		"name":      a.Name,
		"email":     a.Email,
		"role":      a.Role,
		"is_active": true,
	}
	var rows []domain.Admin
	if err := c.mutate(ctx, "admin", http.MethodPost, "admins", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert admin returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateAdmin(ctx context.Context, id string, in domain.AdminInput) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateAdmin")
	defer span.End()
	span.SetAttributes(attribute.String("admin.id", id))

	payload := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if in.Name != nil {
		payload["name"] = *in.Name
	}
	if in.Role != nil {
		payload["role"] = *in.Role
	}
	if in.WhatsAppNumber != nil {
		payload["whatsapp_number"] = *in.WhatsAppNumber
	}
	if in.WhatsAppActive != nil {
		payload["whatsapp_active"] = *in.WhatsAppActive
	}
	if in.IsActive != nil {
		payload["is_active"] = *in.IsActive
	}
	return c.mutate(ctx, "admin", http.MethodPatch, "admins?id="+eq(id), payload, nil)
}

// WriteAdminTotals patches each admin's denormalized totals, one request
// per admin. It stops at the first failure.
func (c *Client) WriteAdminTotals(ctx context.Context, totals map[string]domain.AdminTotals) error {
	ctx, span := tracer.Start(ctx, "Supabase.WriteAdminTotals")
	defer span.End()
	span.SetAttributes(attribute.Int("admins.count", len(totals)))

	now := time.Now().UTC().Format(time.RFC3339)
	for id, t := range totals {
		payload := map[string]any{
			"total_leads":    t.TotalLeads,
			"total_closings": t.TotalClosings,
			"total_revenue":  t.TotalRevenue,
			"updated_at":     now,
		}
		if err := c.mutate(ctx, "admin", http.MethodPatch, "admins?id="+eq(id), payload, nil); err != nil {
			return fmt.Errorf("write totals for admin %s: %w", id, err)
		}
	}
	return nil
}
