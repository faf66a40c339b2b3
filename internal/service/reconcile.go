package service

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var reconcileTracer = otel.Tracer("service/reconcile")

// Reconciler rewrites the denormalized admin totals from the leads table.
type Reconciler struct {
	leads   port.LeadStore
	admins  port.AdminStore
	writer  port.AdminTotalsWriter
	metrics *observability.Metrics
	logger  *zap.Logger
}

func NewReconciler(leads port.LeadStore, admins port.AdminStore, writer port.AdminTotalsWriter, metrics *observability.Metrics, logger *zap.Logger) *Reconciler {
	return &Reconciler{leads: leads, admins: admins, writer: writer, metrics: metrics, logger: logger}
}

// Run compares each admin's stored totals with totals computed from
// leads and writes the ones that drifted. Unlike the screens, it fails on
// a read error: an empty lead list would zero every admin.
func (r *Reconciler) Run(ctx context.Context, dryRun bool) (*domain.ReconcileReport, error) {
	ctx, span := reconcileTracer.Start(ctx, "Reconciler.Run")
	defer span.End()
	span.SetAttributes(attribute.Bool("reconcile.dry_run", dryRun))

	leads, err := r.leads.ListLeads(ctx)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	admins, err := r.admins.ListAdmins(ctx)
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}

	computed := domain.ComputeAdminTotals(leads)
	report := &domain.ReconcileReport{Checked: len(admins), DryRun: dryRun, Changes: []domain.ReconcileEntry{}}
	writes := make(map[string]domain.AdminTotals)

	for _, a := range admins {
		before := domain.AdminTotals{TotalLeads: a.TotalLeads, TotalClosings: a.TotalClosings, TotalRevenue: a.TotalRevenue}
		after := computed[a.ID]
		if sameTotals(before, after) {
			continue
		}
		writes[a.ID] = after
		report.Changes = append(report.Changes, domain.ReconcileEntry{AdminID: a.ID, Name: a.Name, Before: before, After: after})
	}
	sort.Slice(report.Changes, func(i, j int) bool { return report.Changes[i].AdminID < report.Changes[j].AdminID })

	if dryRun || len(writes) == 0 {
		r.logger.Info("reconcile finished", zap.Int("checked", report.Checked), zap.Int("drifted", len(writes)), zap.Bool("dry_run", dryRun))
		return report, nil
	}

	if err := r.writer.WriteAdminTotals(ctx, writes); err != nil {
		return nil, &domain.ErrWriteFailed{Operation: "write admin totals", Err: err}
	}
	report.Updated = len(writes)
	r.metrics.AddReconciled(report.Updated)
	r.logger.Info("reconcile finished", zap.Int("checked", report.Checked), zap.Int("updated", report.Updated))
	return report, nil
}

// RunAs is Run behind the manage_settings capability.
func (r *Reconciler) RunAs(ctx context.Context, p domain.Principal, dryRun bool) (*domain.ReconcileReport, error) {
	if err := p.Require(domain.CapManageSettings); err != nil {
		return nil, err
	}
	return r.Run(ctx, dryRun)
}

func sameTotals(a, b domain.AdminTotals) bool {
	return a.TotalLeads == b.TotalLeads &&
		a.TotalClosings == b.TotalClosings &&
		math.Abs(a.TotalRevenue-b.TotalRevenue) < 0.005
}
