package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

// leadSelect embeds the relations every lead screen shows.
const leadSelect = "*,product:products(*),sub_product:sub_products(*),assigned_admin:admins(*)"

// ============================================================
// Leads: implements port.LeadStore
// ============================================================

func (c *Client) ListLeads(ctx context.Context) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLeads")
	defer span.End()

	var rows []domain.Lead
	if err := c.query(ctx, "leads", "leads?select="+leadSelect+"&order=created_at.desc", &rows); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("leads.count", len(rows)))
	return rows, nil
}

func (c *Client) ListRecentLeads(ctx context.Context, limit int) ([]domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListRecentLeads")
	defer span.End()

	var rows []domain.Lead
	path := fmt.Sprintf("leads?select=%s&order=created_at.desc&limit=%d", leadSelect, limit)
	if err := c.query(ctx, "leads", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	var rows []domain.Lead
	path := fmt.Sprintf("leads?select=%s&id=%s&limit=1", leadSelect, eq(id))
	if err := c.query(ctx, "leads", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// CreateLead inserts a lead and returns the row with its relations.
// Stage is left to the column default.
func (c *Client) CreateLead(ctx context.Context, in *domain.NewLead) (*domain.Lead, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLead")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", in.ProductID), attribute.String("lead.source", string(in.Source)))

	payload := map[string]any{
		"name":           in.Name,
		"phone":          in.Phone,
		"source":         in.Source,
		"product_id":     in.ProductID,
		"sub_product_id": in.SubProductID,
	}
	if in.AssignedAdminID != nil {
		payload["assigned_admin_id"] = *in.AssignedAdminID
	}

	var rows []domain.Lead
	if err := c.mutate(ctx, "lead", http.MethodPost, "leads?select="+leadSelect, payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert lead returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateLead(ctx context.Context, l *domain.Lead) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", l.ID), attribute.String("lead.stage", string(l.Stage)))

	payload := map[string]any{
		"stage":             l.Stage,
		"payment_type":      l.PaymentType,
		"dp_amount":         l.DPAmount,
		"final_price":       l.FinalPrice,
		"temperature":       l.Temperature,
		"notes":             l.Notes,
		"assigned_admin_id": l.AssignedAdminID,
		"closing_date":      formatTime(l.ClosingDate),
		"package_taken":     l.PackageTaken,
		"updated_at":        l.UpdatedAt.UTC().Format(time.RFC3339),
	}
	return c.mutate(ctx, "lead", http.MethodPatch, "leads?id="+eq(l.ID), payload, nil)
}

func formatTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
