package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var hcTracer = otel.Tracer("service/handle_customers")

// HandleCustomerService tracks post-closing customer contact.
type HandleCustomerService struct {
	store   port.HandleCustomerStore
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewHandleCustomerService(store port.HandleCustomerStore, metrics *observability.Metrics, logger *zap.Logger) *HandleCustomerService {
	return &HandleCustomerService{store: store, metrics: metrics, logger: logger, now: time.Now}
}

func (s *HandleCustomerService) List(ctx context.Context, p domain.Principal, f domain.ContactFilter) ([]domain.HandleCustomer, error) {
	ctx, span := hcTracer.Start(ctx, "HandleCustomerService.List")
	defer span.End()

	if err := p.Require(domain.CapHandleCustomers); err != nil {
		return nil, err
	}

	all, err := s.store.ListHandleCustomers(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "handle_customers", err)
		return []domain.HandleCustomer{}, nil
	}
	out := make([]domain.HandleCustomer, 0, len(all))
	for i := range all {
		if f.Match(&all[i]) {
			out = append(out, all[i])
		}
	}
	return out, nil
}

func (s *HandleCustomerService) Update(ctx context.Context, p domain.Principal, d domain.HandleCustomerDraft) (*domain.HandleCustomer, error) {
	ctx, span := hcTracer.Start(ctx, "HandleCustomerService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("handle_customer.id", d.ID))

	if err := p.Require(domain.CapHandleCustomers); err != nil {
		return nil, err
	}

	current, err := s.store.GetHandleCustomer(ctx, d.ID)
	if err != nil {
		return nil, fmt.Errorf("get handle customer: %w", err)
	}
	if current == nil {
		return nil, &domain.ErrNotFound{Resource: "handle_customer", ID: d.ID}
	}

	next := domain.ApplyContactDraft(*current, d, s.now())
	if err := s.store.UpdateHandleCustomer(ctx, &next); err != nil {
		return nil, &domain.ErrWriteFailed{Operation: "update handle customer", Err: err}
	}
	s.logger.Info("handle customer updated",
		zap.String("handle_customer_id", next.ID),
		zap.Bool("contacted", next.IsContacted),
		zap.String("admin_id", p.AdminID),
	)
	return &next, nil
}

// MarkContacted is the one-click "contacted" action. The contact time is
// stamped once and kept on later saves.
func (s *HandleCustomerService) MarkContacted(ctx context.Context, p domain.Principal, id string) (*domain.HandleCustomer, error) {
	contacted := true
	return s.Update(ctx, p, domain.HandleCustomerDraft{ID: id, IsContacted: &contacted})
}
