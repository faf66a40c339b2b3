package service

import (
	"context"
	"time"

	"github.com/boddenberg/lead-console-go/internal/domain"
	"github.com/boddenberg/lead-console-go/internal/infra/observability"
	"github.com/boddenberg/lead-console-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var analyticsTracer = otel.Tracer("service/analytics")

const (
	recentLeadsLimit = 10
	topAdminsLimit   = 5
)

// AnalyticsService builds the dashboard, analytics and target screens.
// Every figure is computed from leads on each request; the admin totals
// columns are never read.
type AnalyticsService struct {
	leads   port.LeadStore
	admins  port.AdminStore
	targets port.TargetStore
	loc     *time.Location
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

func NewAnalyticsService(leads port.LeadStore, admins port.AdminStore, targets port.TargetStore, loc *time.Location, metrics *observability.Metrics, logger *zap.Logger) *AnalyticsService {
	if loc == nil {
		loc = time.UTC
	}
	return &AnalyticsService{
		leads:   leads,
		admins:  admins,
		targets: targets,
		loc:     loc,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Dashboard fetches its three inputs concurrently. Each one degrades to
// empty on its own.
func (s *AnalyticsService) Dashboard(ctx context.Context, p domain.Principal) (*domain.Dashboard, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Dashboard")
	defer span.End()

	if err := p.Require(domain.CapViewDashboard); err != nil {
		return nil, err
	}

	var (
		leads  []domain.Lead
		recent []domain.Lead
		admins []domain.Admin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leads = s.listLeads(gctx)
		return nil
	})
	g.Go(func() error {
		var err error
		if recent, err = s.leads.ListRecentLeads(gctx, recentLeadsLimit); err != nil {
			degraded(s.logger, s.metrics, "recent_leads", err)
			recent = []domain.Lead{}
		}
		return nil
	})
	g.Go(func() error {
		admins = s.listAdmins(gctx)
		return nil
	})
	_ = g.Wait()

	top := domain.RankAdmins(admins, leads)
	if len(top) > topAdminsLimit {
		top = top[:topAdminsLimit]
	}

	return &domain.Dashboard{
		Stats:       displaySummary(domain.Summarize(leads)),
		RecentLeads: recent,
		TopAdmins:   top,
	}, nil
}

func (s *AnalyticsService) Analytics(ctx context.Context, p domain.Principal) (*domain.Analytics, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Analytics")
	defer span.End()

	if err := p.Require(domain.CapViewAnalytics); err != nil {
		return nil, err
	}

	var (
		leads  []domain.Lead
		admins []domain.Admin
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		leads = s.listLeads(gctx)
		return nil
	})
	g.Go(func() error {
		admins = s.listAdmins(gctx)
		return nil
	})
	_ = g.Wait()

	perf := domain.RankAdmins(admins, leads)
	for i := range perf {
		perf[i].ConversionRate = domain.RoundOne(perf[i].ConversionRate)
	}

	span.SetAttributes(attribute.Int("leads.count", len(leads)))
	return &domain.Analytics{
		Stats:            displaySummary(domain.Summarize(leads)),
		ProductStats:     domain.GroupByProduct(leads),
		SourceStats:      domain.GroupBySource(leads),
		MonthlyTrend:     domain.MonthlyTrend(leads, s.now(), s.loc),
		AdminPerformance: perf,
	}, nil
}

// Targets returns target-vs-actual rows for month/year. Zero values mean
// the current month in the reporting time zone.
func (s *AnalyticsService) Targets(ctx context.Context, p domain.Principal, month, year int) ([]domain.TargetProgress, error) {
	ctx, span := analyticsTracer.Start(ctx, "AnalyticsService.Targets")
	defer span.End()

	if err := p.Require(domain.CapViewAnalytics); err != nil {
		return nil, err
	}

	now := s.now().In(s.loc)
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if err := (domain.TargetInput{Month: &month, Year: &year}).Validate(); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("target.month", month), attribute.Int("target.year", year))

	var (
		targets []domain.AdminTarget
		leads   []domain.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if targets, err = s.targets.ListTargets(gctx, month, year); err != nil {
			degraded(s.logger, s.metrics, "admin_targets", err)
			targets = nil
		}
		return nil
	})
	g.Go(func() error {
		leads = s.listLeads(gctx)
		return nil
	})
	_ = g.Wait()

	rows := domain.ComputeTargetProgress(targets, leads, month, year, s.loc)
	for i := range rows {
		rows[i].Progress = domain.RoundOne(rows[i].Progress)
		rows[i].ProgressDisplay = domain.RoundOne(rows[i].ProgressDisplay)
	}
	return rows, nil
}

func (s *AnalyticsService) listLeads(ctx context.Context) []domain.Lead {
	leads, err := s.leads.ListLeads(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "leads", err)
		return []domain.Lead{}
	}
	return leads
}

func (s *AnalyticsService) listAdmins(ctx context.Context) []domain.Admin {
	admins, err := s.admins.ListAdmins(ctx)
	if err != nil {
		degraded(s.logger, s.metrics, "admins", err)
		return []domain.Admin{}
	}
	return admins
}

func displaySummary(sum domain.Summary) domain.Summary {
	sum.ConversionRate = domain.RoundOne(sum.ConversionRate)
	return sum
}
