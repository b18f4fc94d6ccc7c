package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/port"
)

var dashTracer = otel.Tracer("service/dashboard")

const summaryCacheKey = "dashboard:summary"

// DashboardService aggregates counters across clients, obligations,
// documents and fees for the office landing screen.
type DashboardService struct {
	clients     port.ClientStore
	obligations port.ObligationStore
	documents   port.DocumentStore
	fees        port.FeeStore
	cache       port.Cache[domain.DashboardSummary]
	metrics     *observability.Metrics
	logger      *zap.Logger

	now func() time.Time
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(
	clients port.ClientStore,
	obligations port.ObligationStore,
	documents port.DocumentStore,
	fees port.FeeStore,
	cache port.Cache[domain.DashboardSummary],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *DashboardService {
	return &DashboardService{
		clients:     clients,
		obligations: obligations,
		documents:   documents,
		fees:        fees,
		cache:       cache,
		metrics:     metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Summary computes the dashboard counters, fanning out to the four
// stores concurrently. Results are cached briefly; the counters only
// feed a landing screen.
func (s *DashboardService) Summary(ctx context.Context) (*domain.DashboardSummary, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	if cached, ok := s.cache.Get(summaryCacheKey); ok {
		s.metrics.IncrCacheHit("dashboard")
		return &cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	var (
		clients     []domain.Client
		obligations []domain.Obligation
		docCounts   map[domain.DocumentStatus]int
		fees        []domain.MonthlyFee
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		clients, err = s.clients.ListClients(gctx, false)
		return err
	})
	g.Go(func() error {
		var err error
		obligations, err = s.obligations.ListObligations(gctx, &domain.ObligationFilter{Status: string(domain.ObligationPending)})
		return err
	})
	g.Go(func() error {
		var err error
		docCounts, err = s.documents.CountByStatus(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		fees, err = s.fees.ListFees(gctx, &domain.FeeFilter{Status: string(domain.FeePending)})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("dashboard summary aggregation failed", zap.Error(err))
		return nil, err
	}

	today := s.now()
	summary := &domain.DashboardSummary{}

	summary.Clients.Total = len(clients)
	for _, c := range clients {
		if c.Active {
			summary.Clients.Active++
		}
	}

	summary.Obligations.Pending = len(obligations)
	for _, o := range obligations {
		if o.Overdue(today) {
			summary.Obligations.Overdue++
		}
		if o.DueToday(today) {
			summary.Obligations.DueToday++
		}
	}

	for status, n := range docCounts {
		summary.Documents.Total += n
		if status == domain.StatusPending || status == domain.StatusPendingReview {
			summary.Documents.PendingProcessing += n
		}
	}

	summary.Fees.Pending = len(fees)
	for _, f := range fees {
		if f.Overdue(today) {
			summary.Fees.Overdue++
		}
	}

	s.cache.Set(summaryCacheKey, *summary)
	return summary, nil
}

// TodayTasks lists what needs attention today: obligations due or
// overdue, and documents awaiting review.
func (s *DashboardService) TodayTasks(ctx context.Context) (*domain.TodayTasks, error) {
	ctx, span := dashTracer.Start(ctx, "DashboardService.TodayTasks")
	defer span.End()

	var (
		pending []domain.Obligation
		fees    []domain.MonthlyFee
		docs    []domain.Document
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		pending, err = s.obligations.ListObligations(gctx, &domain.ObligationFilter{Status: string(domain.ObligationPending)})
		return err
	})
	g.Go(func() error {
		var err error
		fees, err = s.fees.ListFees(gctx, &domain.FeeFilter{Status: string(domain.FeePending)})
		return err
	})
	g.Go(func() error {
		var err error
		docs, err = s.documents.ListDocuments(gctx, &domain.DocumentFilter{Status: string(domain.StatusPendingReview)})
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("today tasks aggregation failed", zap.Error(err))
		return nil, err
	}

	today := s.now()
	tasks := &domain.TodayTasks{
		ObligationsDueToday: make([]domain.Obligation, 0),
		ObligationsOverdue:  make([]domain.Obligation, 0),
		FeesDueToday:        make([]domain.MonthlyFee, 0),
		DocumentsToReview:   docs,
	}
	for _, o := range pending {
		switch {
		case o.DueToday(today):
			tasks.ObligationsDueToday = append(tasks.ObligationsDueToday, o)
		case o.Overdue(today):
			tasks.ObligationsOverdue = append(tasks.ObligationsOverdue, o)
		}
	}
	for _, f := range fees {
		if f.DueToday(today) {
			tasks.FeesDueToday = append(tasks.FeesDueToday, f)
		}
	}
	if tasks.DocumentsToReview == nil {
		tasks.DocumentsToReview = make([]domain.Document, 0)
	}
	return tasks, nil
}
