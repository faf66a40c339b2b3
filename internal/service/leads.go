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

var leadTracer = otel.Tracer("service/leads")

// LeadService is the staff-facing lead pipeline.
type LeadService struct {
	leads     port.LeadStore
	customers port.HandleCustomerStore
	metrics   *observability.Metrics
	logger    *zap.Logger
	now       func() time.Time
}

func NewLeadService(leads port.LeadStore, customers port.HandleCustomerStore, metrics *observability.Metrics, logger *zap.Logger) *LeadService {
	return &LeadService{leads: leads, customers: customers, metrics: metrics, logger: logger, now: time.Now}
}

// List returns the leads matching f, newest first. A backend failure
// yields an empty list.
func (s *LeadService) List(ctx context.Context, p domain.Principal, f domain.LeadFilter) ([]domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.List")
	defer span.End()

	if err := p.Require(domain.CapManageLeads); err != nil {
		return nil, err
	}

	all, err := s.leads.ListLeads(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "leads", err)
		return []domain.Lead{}, nil
	}

	out := make([]domain.Lead, 0, len(all))
	for i := range all {
		if f.Match(&all[i]) {
			out = append(out, all[i])
		}
	}
	span.SetAttributes(attribute.Int("leads.total", len(all)), attribute.Int("leads.matched", len(out)))
	return out, nil
}

func (s *LeadService) Get(ctx context.Context, p domain.Principal, id string) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Get")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", id))

	if err := p.Require(domain.CapManageLeads); err != nil {
		return nil, err
	}

	lead, err := s.leads.GetLead(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get lead: %w", err)
	}
	if lead == nil {
		return nil, &domain.ErrNotFound{Resource: "lead", ID: id}
	}
	return lead, nil
}

// Update commits a draft over the stored lead. The first move into
// closing also opens a handle-customer record for the lead.
func (s *LeadService) Update(ctx context.Context, p domain.Principal, d domain.LeadDraft) (*domain.Lead, error) {
	ctx, span := leadTracer.Start(ctx, "LeadService.Update")
	defer span.End()
	span.SetAttributes(attribute.String("lead.id", d.LeadID))

	current, err := s.Get(ctx, p, d.LeadID)
	if err != nil {
		return nil, err
	}

	next, tr, err := domain.ApplyDraft(*current, d, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.leads.UpdateLead(ctx, &next); err != nil {
		return nil, &domain.ErrWriteFailed{Operation: "update lead", Err: err}
	}

	s.logger.Info("lead updated",
		zap.String("lead_id", next.ID),
		zap.String("admin_id", p.AdminID),
		zap.String("from", string(tr.From)),
		zap.String("to", string(tr.To)),
	)

	if tr.EnteredClosing() {
		next.SubProduct = current.SubProduct
		if err := s.openHandleCustomer(ctx, &next); err != nil {
			// The lead is saved; the follow-up record can be reopened by
			// re-saving the lead.
			s.logger.Error("open handle customer failed", zap.String("lead_id", next.ID), zap.Error(err))
		}
	}

	fresh, err := s.leads.GetLead(ctx, next.ID)
	if err != nil {
		degraded(s.logger, s.metrics, "lead", err)
	}
	if fresh == nil {
		return &next, nil
	}
	return fresh, nil
}

func (s *LeadService) openHandleCustomer(ctx context.Context, l *domain.Lead) error {
	existing, err := s.customers.GetHandleCustomerByLead(ctx, l.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}
	subName := ""
	if l.SubProduct != nil {
		subName = l.SubProduct.Name
	}
	hc := domain.NewHandleCustomerFromLead(l, subName)
	created, err := s.customers.CreateHandleCustomer(ctx, &hc)
	if err != nil {
		return err
	}
	s.logger.Info("handle customer opened", zap.String("lead_id", l.ID), zap.String("handle_customer_id", created.ID))
	return nil
}

// degraded records a read that fell back to an empty result.
func degraded(logger *zap.Logger, metrics *observability.Metrics, resource string, err error) {
	metrics.IncrDegradedRead(resource)
	logger.Warn("read degraded to empty result", zap.String("resource", resource), zap.Error(err))
}
