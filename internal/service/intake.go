package service

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var intakeTracer = otel.Tracer("service/intake")

// IntakeService serves the public per-product lead form.
type IntakeService struct {
	products   port.ProductStore
	leads      port.LeadStore
	admins     port.AdminStore
	cache      port.Cache[*domain.Product]
	dispatcher Dispatcher
	autoAssign bool
	next       atomic.Uint64
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// IntakeOption configures optional IntakeService behaviour.
type IntakeOption func(*IntakeService)

// WithAutoAssign spreads new leads over active agents round-robin.
func WithAutoAssign(enabled bool) IntakeOption {
	return func(s *IntakeService) { s.autoAssign = enabled }
}

func NewIntakeService(products port.ProductStore, leads port.LeadStore, admins port.AdminStore, cache port.Cache[*domain.Product], dispatcher Dispatcher, metrics *observability.Metrics, logger *zap.Logger, opts ...IntakeOption) *IntakeService {
	s := &IntakeService{
		products:   products,
		leads:      leads,
		admins:     admins,
		cache:      cache,
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Form resolves slug to an active product and its active packages,
// cheapest first.
func (s *IntakeService) Form(ctx context.Context, slug string) (*domain.IntakeForm, error) {
	ctx, span := intakeTracer.Start(ctx, "IntakeService.Form")
	defer span.End()
	span.SetAttributes(attribute.String("product.slug", slug))

	product, err := s.activeProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	subs, err := s.products.ListSubProducts(ctx, product.ID, true)
	if err != nil {
		return nil, fmt.Errorf("list sub products: %w", err)
	}

	return &domain.IntakeForm{
		Product:     *product,
		SubProducts: subs,
		Sources:     []domain.Source{domain.SourceTikTok, domain.SourceInstagram, domain.SourceYouTube, domain.SourceOther},
	}, nil
}

// Submit creates a lead for the product behind slug. Notifying the
// assigned admin is best effort and never fails the submission.
func (s *IntakeService) Submit(ctx context.Context, slug string, req *domain.IntakeRequest) (*domain.IntakeConfirmation, error) {
	ctx, span := intakeTracer.Start(ctx, "IntakeService.Submit")
	defer span.End()
	span.SetAttributes(attribute.String("product.slug", slug))

	product, err := s.activeProduct(ctx, slug)
	if err != nil {
		return nil, err
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if err := validateIntake(req); err != nil {
		return nil, err
	}

	sub, err := s.products.GetSubProduct(ctx, req.SubProductID)
	if err != nil {
		return nil, fmt.Errorf("get sub product: %w", err)
	}
	if sub == nil || sub.ProductID != product.ID || !sub.IsActive {
		return nil, &domain.ErrValidation{Field: "sub_product_id", Message: "Paket tidak tersedia untuk produk ini"}
	}

	in := &domain.NewLead{
		Name:         req.Name,
		Phone:        req.Phone,
		Source:       req.Source,
		ProductID:    product.ID,
		SubProductID: sub.ID,
	}
	assignee := s.pickAssignee(ctx)
	if assignee != nil {
		in.AssignedAdminID = &assignee.ID
	}

	lead, err := s.leads.CreateLead(ctx, in)
	if err != nil {
		return nil, &domain.ErrWriteFailed{Operation: "create lead", Err: err}
	}
	s.metrics.IncrLeadCreated(string(lead.Source))
	s.logger.Info("lead created",
		zap.String("lead_id", lead.ID),
		zap.String("product", product.Slug),
		zap.String("source", string(lead.Source)),
	)

	if assignee == nil {
		assignee = lead.AssignedAdmin
	}
	if assignee != nil && assignee.Notifiable() {
		s.dispatcher.Dispatch(ctx, &domain.LeadNotification{
			LeadID:      lead.ID,
			LeadName:    lead.Name,
			LeadPhone:   lead.Phone,
			Source:      lead.Source,
			ProductName: product.Name,
			PackageName: sub.Name,
			AdminID:     assignee.ID,
			AdminName:   assignee.Name,
			AdminEmail:  assignee.Email,
			WhatsApp:    *assignee.WhatsAppNumber,
		})
	}

	return &domain.IntakeConfirmation{
		LeadID:      lead.ID,
		Title:       "Terima Kasih!",
		Message:     fmt.Sprintf("Data Anda telah berhasil dikirim. Tim kami akan segera menghubungi Anda untuk informasi lebih lanjut mengenai %s.", product.Name),
		ProductName: product.Name,
		PackageName: sub.Name,
	}, nil
}

func (s *IntakeService) activeProduct(ctx context.Context, slug string) (*domain.Product, error) {
	if p, ok := s.cache.Get(slug); ok {
		s.metrics.IncrCacheHit("product")
		return p, nil
	}
	s.metrics.IncrCacheMiss("product")

	p, err := s.products.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("get product by slug: %w", err)
	}
	if p == nil || !p.IsActive {
		return nil, &domain.ErrNotFound{Resource: "product", ID: slug}
	}
	s.cache.Set(slug, p)
	return p, nil
}

// pickAssignee returns the next active agent, or nil when auto-assign is
// off or no agent can be loaded.
func (s *IntakeService) pickAssignee(ctx context.Context) *domain.Admin {
	if !s.autoAssign {
		return nil
	}
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		s.logger.Warn("auto-assign skipped: list admins failed", zap.Error(err))
		return nil
	}
	var pool []domain.Admin
	for _, a := range admins {
		if a.IsActive && a.Role == domain.RoleAdmin {
			pool = append(pool, a)
		}
	}
	if len(pool) == 0 {
		return nil
	}
	n := s.next.Add(1) - 1
	a := pool[n%uint64(len(pool))]
	return &a
}

func validateIntake(req *domain.IntakeRequest) error {
	switch {
	case req.Name == "":
		return &domain.ErrValidation{Field: "name", Message: "Nama wajib diisi"}
	case req.Phone == "":
		return &domain.ErrValidation{Field: "phone", Message: "Nomor HP wajib diisi"}
	case req.SubProductID == "":
		return &domain.ErrValidation{Field: "sub_product_id", Message: "Paket wajib dipilih"}
	case uuid.Validate(req.SubProductID) != nil:
		return &domain.ErrValidation{Field: "sub_product_id", Message: "Paket tidak dikenal"}
	case req.Source == "":
		return &domain.ErrValidation{Field: "source", Message: "Sumber wajib dipilih"}
	case !req.Source.Valid():
		return &domain.ErrValidation{Field: "source", Message: "Sumber tidak dikenal"}
	}
	return nil
}
