package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var settingsTracer = otel.Tracer("service/settings")

// SettingsService manages the catalog, staff and targets. Every method
// requires the manage_settings capability.
type SettingsService struct {
	products port.ProductStore
	admins   port.AdminStore
	targets  port.TargetStore
	identity port.IdentityProvider
	cache    port.Cache[*domain.Product]
	reserved []string
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewSettingsService(products port.ProductStore, admins port.AdminStore, targets port.TargetStore, identity port.IdentityProvider, cache port.Cache[*domain.Product], reserved []string, metrics *observability.Metrics, logger *zap.Logger) *SettingsService {
	return &SettingsService{
		products: products,
		admins:   admins,
		targets:  targets,
		identity: identity,
		cache:    cache,
		reserved: append(append([]string{}, domain.DefaultReservedSlugs...), reserved...),
		metrics:  metrics,
		logger:   logger,
	}
}

// writeFailed keeps conflicts visible and hides every other backend cause
// behind a generic write failure.
func writeFailed(op string, err error) error {
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		return conflict
	}
	return &domain.ErrWriteFailed{Operation: op, Err: err}
}

// ============================================================
// Products
// ============================================================

func (s *SettingsService) ListProducts(ctx context.Context, p domain.Principal) ([]domain.Product, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.ListProducts")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	products, err := s.products.ListProducts(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "products", err)
		return []domain.Product{}, nil
	}
	return products, nil
}

// CreateProduct derives the slug from the name unless one is given.
// New products are active unless stated otherwise.
func (s *SettingsService) CreateProduct(ctx context.Context, p domain.Principal, in domain.ProductInput) (*domain.Product, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.CreateProduct")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama produk wajib diisi"}
	}

	product := &domain.Product{Name: strings.TrimSpace(*in.Name), IsActive: true}
	if in.Slug != nil && *in.Slug != "" {
		product.Slug = *in.Slug
	} else {
		product.Slug = domain.GenerateSlug(product.Name)
	}
	if in.IsActive != nil {
		product.IsActive = *in.IsActive
	}
	if err := domain.ValidateSlug(product.Slug, s.reserved); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("product.slug", product.Slug))

	created, err := s.products.CreateProduct(ctx, product)
	if err != nil {
		return nil, writeFailed("create product", err)
	}
	s.cache.Delete(created.Slug)
	s.logger.Info("product created", zap.String("product_id", created.ID), zap.String("slug", created.Slug))
	return created, nil
}

func (s *SettingsService) UpdateProduct(ctx context.Context, p domain.Principal, id string, in domain.ProductInput) (*domain.Product, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.UpdateProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	current, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama produk wajib diisi"}
	}
	if in.Slug != nil {
		if err := domain.ValidateSlug(*in.Slug, s.reserved); err != nil {
			return nil, err
		}
	}

	if err := s.products.UpdateProduct(ctx, id, in); err != nil {
		return nil, writeFailed("update product", err)
	}
	s.cache.Delete(current.Slug)

	updated, err := s.getProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.cache.Delete(updated.Slug)
	return updated, nil
}

func (s *SettingsService) DeleteProduct(ctx context.Context, p domain.Principal, id string) error {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.DeleteProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", id))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return err
	}
	current, err := s.getProduct(ctx, id)
	if err != nil {
		return err
	}
	if err := s.products.DeleteProduct(ctx, id); err != nil {
		return writeFailed("delete product", err)
	}
	s.cache.Delete(current.Slug)
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func (s *SettingsService) getProduct(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.products.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, &domain.ErrNotFound{Resource: "product", ID: id}
	}
	return product, nil
}

// ============================================================
// Sub products
// ============================================================

func (s *SettingsService) ListSubProducts(ctx context.Context, p domain.Principal, productID string) ([]domain.SubProduct, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.ListSubProducts")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	subs, err := s.products.ListSubProducts(ctx, productID, false)
	if err != nil {
		degraded(s.logger, s.metrics, "sub_products", err)
		return []domain.SubProduct{}, nil
	}
	return subs, nil
}

func (s *SettingsService) CreateSubProduct(ctx context.Context, p domain.Principal, productID string, in domain.SubProductInput) (*domain.SubProduct, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.CreateSubProduct")
	defer span.End()
	span.SetAttributes(attribute.String("product.id", productID))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	if _, err := s.getProduct(ctx, productID); err != nil {
		return nil, err
	}
	if in.Name == nil || strings.TrimSpace(*in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama paket wajib diisi"}
	}
	if in.Price == nil {
		return nil, &domain.ErrValidation{Field: "price", Message: "Harga wajib diisi"}
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}

	sub := &domain.SubProduct{ProductID: productID, Name: strings.TrimSpace(*in.Name), Price: *in.Price, IsActive: true}
	if in.IsActive != nil {
		sub.IsActive = *in.IsActive
	}
	created, err := s.products.CreateSubProduct(ctx, sub)
	if err != nil {
		return nil, writeFailed("create sub product", err)
	}
	return created, nil
}

func (s *SettingsService) UpdateSubProduct(ctx context.Context, p domain.Principal, id string, in domain.SubProductInput) (*domain.SubProduct, error) {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.UpdateSubProduct")
	defer span.End()
	span.SetAttributes(attribute.String("sub_product.id", id))

	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	if _, err := s.getSubProduct(ctx, id); err != nil {
		return nil, err
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nama paket wajib diisi"}
	}
	if err := validatePrice(in.Price); err != nil {
		return nil, err
	}
	if err := s.products.UpdateSubProduct(ctx, id, in); err != nil {
		return nil, writeFailed("update sub product", err)
	}
	return s.getSubProduct(ctx, id)
}

func (s *SettingsService) DeleteSubProduct(ctx context.Context, p domain.Principal, id string) error {
	ctx, span := settingsTracer.Start(ctx, "SettingsService.DeleteSubProduct")
	defer span.End()

	if err := p.Require(domain.CapManageSettings); err != nil {
		return err
	}
	if _, err := s.getSubProduct(ctx, id); err != nil {
		return err
	}
	if err := s.products.DeleteSubProduct(ctx, id); err != nil {
		return writeFailed("delete sub product", err)
	}
	return nil
}

func (s *SettingsService) getSubProduct(ctx context.Context, id string) (*domain.SubProduct, error) {
	sub, err := s.products.GetSubProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get sub product: %w", err)
	}
	if sub == nil {
		return nil, &domain.ErrNotFound{Resource: "sub_product", ID: id}
	}
	return sub, nil
}

func validatePrice(price *float64) error {
	if price != nil && *price < 0 {
		return &domain.ErrValidation{Field: "price", Message: "Harga tidak boleh negatif"}
	}
	return nil
}
