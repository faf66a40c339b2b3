package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
)

const handleCustomerSelect = "*,assigned_hc:admins(*),lead:leads(*)"

// ============================================================
// Handle customers: implements port.HandleCustomerStore
// ============================================================

func (c *Client) ListHandleCustomers(ctx context.Context) ([]domain.HandleCustomer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListHandleCustomers")
	defer span.End()

	var rows []domain.HandleCustomer
	path := "handle_customers?select=" + handleCustomerSelect + "&order=created_at.desc"
	if err := c.query(ctx, "handle_customers", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetHandleCustomer(ctx context.Context, id string) (*domain.HandleCustomer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetHandleCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("handle_customer.id", id))

	return c.firstHandleCustomer(ctx, fmt.Sprintf("handle_customers?select=%s&id=%s&limit=1", handleCustomerSelect, eq(id)))
}

func (c *Client) GetHandleCustomerByLead(ctx context.Context, leadID string) (*domain.HandleCustomer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetHandleCustomerByLead")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", leadID))

	return c.firstHandleCustomer(ctx, fmt.Sprintf("handle_customers?select=*&lead_id=%s&limit=1", eq(leadID)))
}

func (c *Client) firstHandleCustomer(ctx context.Context, path string) (*domain.HandleCustomer, error) {
	var rows []domain.HandleCustomer
	if err := c.query(ctx, "handle_customers", path, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateHandleCustomer(ctx context.Context, hc *domain.HandleCustomer) (*domain.HandleCustomer, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateHandleCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", hc.LeadID))

	payload := map[string]any{
		"lead_id":          hc.LeadID,
		"name":             hc.Name,
		"phone":            hc.Phone,
		"sub_product_name": hc.SubProductName,
		"is_contacted":     false,
	}
	if hc.AssignedHCID != nil {
		payload["assigned_hc_id"] = *hc.AssignedHCID
	}
	var rows []domain.HandleCustomer
	if err := c.mutate(ctx, "handle_customer", http.MethodPost, "handle_customers", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert handle customer returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateHandleCustomer(ctx context.Context, hc *domain.HandleCustomer) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateHandleCustomer")
	defer span.End()
	span.SetAttributes(attribute.String("handle_customer.id", hc.ID))

	payload := map[string]any{
		"is_contacted":   hc.IsContacted,
		"notes":          hc.Notes,
		"contacted_at":   formatTime(hc.ContactedAt),
		"assigned_hc_id": hc.AssignedHCID,
		"updated_at":     hc.UpdatedAt.UTC().Format(time.RFC3339),
	}
	return c.mutate(ctx, "handle_customer", http.MethodPatch, "handle_customers?id="+eq(hc.ID), payload, nil)
}
