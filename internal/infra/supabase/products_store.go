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
// Products & sub products: implements port.ProductStore
// ============================================================

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListProducts")
	defer span.End()

	var rows []domain.Product
	if err := c.query(ctx, "products", "products?select=*&order=created_at.desc", &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	var rows []domain.Product
	if err := c.query(ctx, "products", fmt.Sprintf("products?select=*&id=%s&limit=1", eq(id)), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) GetProductBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProductBySlug")
	defer span.End()
	span.SetAttributes(attribute.String("product.slug", slug))

	var rows []domain.Product
	if err := c.query(ctx, "products", fmt.Sprintf("products?select=*&slug=%s&limit=1", eq(slug)), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateProduct(ctx context.Context, p *domain.Product) (*domain.Product, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProduct")
	defer span.End()

	payload := map[string]any{
		"name":      p.Name,
		"slug":      p.Slug,
		"is_active": p.IsActive,
	}
	var rows []domain.Product
	if err := c.mutate(ctx, "product", http.MethodPost, "products", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert product returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in domain.ProductInput) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	payload := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if in.Name != nil {
		payload["name"] = *in.Name
	}
	if in.Slug != nil {
		payload["slug"] = *in.Slug
	}
	if in.IsActive != nil {
		payload["is_active"] = *in.IsActive
	}
	return c.mutate(ctx, "product", http.MethodPatch, "products?id="+eq(id), payload, nil)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	return c.mutate(ctx, "product", http.MethodDelete, "products?id="+eq(id), nil, nil)
}

func (c *Client) ListSubProducts(ctx context.Context, productID string, activeOnly bool) ([]domain.SubProduct, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSubProducts")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID), attribute.Bool("active_only", activeOnly))

	path := fmt.Sprintf("sub_products?select=*&product_id=%s&order=price.asc", eq(productID))
	if activeOnly {
		path += "&is_active=eq.true"
	}
	var rows []domain.SubProduct
	if err := c.query(ctx, "sub_products", path, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

func (c *Client) GetSubProduct(ctx context.Context, id string) (*domain.SubProduct, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSubProduct")
	defer span.End()

	var rows []domain.SubProduct
	if err := c.query(ctx, "sub_products", fmt.Sprintf("sub_products?select=*&id=%s&limit=1", eq(id)), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateSubProduct(ctx context.Context, sp *domain.SubProduct) (*domain.SubProduct, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSubProduct")
	defer span.End()

	payload := map[string]any{
		"product_id": sp.ProductID,
		"name":       sp.Name,
		"price":      sp.Price,
		"is_active":  sp.IsActive,
	}
	var rows []domain.SubProduct
	if err := c.mutate(ctx, "sub_product", http.MethodPost, "sub_products", payload, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("supabase: insert sub product returned no rows")
	}
	return &rows[0], nil
}

func (c *Client) UpdateSubProduct(ctx context.Context, id string, in domain.SubProductInput) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSubProduct")
	defer span.End()

	payload := map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)}
	if in.Name != nil {
		payload["name"] = *in.Name
	}
	if in.Price != nil {
		payload["price"] = *in.Price
	}
	if in.IsActive != nil {
		payload["is_active"] = *in.IsActive
	}
	return c.mutate(ctx, "sub_product", http.MethodPatch, "sub_products?id="+eq(id), payload, nil)
}

func (c *Client) DeleteSubProduct(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSubProduct")
	defer span.End()

	return c.mutate(ctx, "sub_product", http.MethodDelete, "sub_products?id="+eq(id), nil, nil)
}
