package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/port"
)

var alertTracer = otel.Tracer("service/alerts")

// Default check windows, matching the daily routine the office runs.
const (
	DefaultDueLeadDays  = 3
	DefaultStaleDocDays = 7
	reportDueLeadDays   = 7
	reportStaleDocDays  = 5
	highStaleDocDays    = 10
	criticalFeeLateDays = 30
)

// AlertService derives attention items from the stores: obligations
// about to fall due, documents stuck in processing, and unpaid fees.
// Nothing is persisted; every call recomputes from current data.
type AlertService struct {
	obligations port.ObligationStore
	documents   port.DocumentStore
	fees        port.FeeStore
	logger      *zap.Logger

	now func() time.Time
}

// NewAlertService creates a new alert service.
func NewAlertService(obligations port.ObligationStore, documents port.DocumentStore, fees port.FeeStore, logger *zap.Logger) *AlertService {
	return &AlertService{
		obligations: obligations,
		documents:   documents,
		fees:        fees,
		logger:      logger,
		now:         time.Now,
	}
}

// DueObligations lists pending obligations falling due within leadDays
// from today, including today itself. Alerts due within one day rank
// high, the rest medium.
func (s *AlertService) DueObligations(ctx context.Context, leadDays int) ([]domain.Alert, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.DueObligations")
	defer span.End()

	if leadDays <= 0 {
		leadDays = DefaultDueLeadDays
	}
	today := s.now().Truncate(24 * time.Hour)
	limit := today.AddDate(0, 0, leadDays)

	items, err := s.obligations.ListObligations(ctx, &domain.ObligationFilter{
		Status:  string(domain.ObligationPending),
		DueFrom: today.Format("2006-01-02"),
		DueTo:   limit.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0, len(items))
	for _, o := range items {
		due, err := time.Parse("2006-01-02", o.DueDate)
		if err != nil {
			continue
		}
		daysLeft := int(due.Sub(today).Hours() / 24)
		priority := domain.PriorityMedium
		if daysLeft <= 1 {
			priority = domain.PriorityHigh
		}
		alerts = append(alerts, domain.Alert{
			Type:           domain.AlertDueSoon,
			Priority:       priority,
			ClientID:       o.ClientID,
			ClientName:     o.ClientName,
			ResourceID:     o.ID,
			Description:    fmt.Sprintf("%s: %s", o.Type, o.Description),
			ReferenceMonth: o.ReferenceMonth,
			DueDate:        o.DueDate,
			Amount:         o.Amount,
			Days:           daysLeft,
		})
	}
	return alerts, nil
}

// StaleDocuments lists documents still unprocessed after maxDays.
// Documents waiting over ten days rank high, the rest medium.
func (s *AlertService) StaleDocuments(ctx context.Context, maxDays int) ([]domain.Alert, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.StaleDocuments")
	defer span.End()

	if maxDays <= 0 {
		maxDays = DefaultStaleDocDays
	}
	now := s.now()
	cutoff := now.AddDate(0, 0, -maxDays)

	docs, err := s.documents.ListDocuments(ctx, &domain.DocumentFilter{Status: string(domain.StatusPending)})
	if err != nil {
		return nil, err
	}

	alerts := make([]domain.Alert, 0)
	for _, d := range docs {
		// The pending listing also carries pending_review; stale checks
		// only care about documents extraction never reached.
		if d.Status != domain.StatusPending || d.UploadedAt.After(cutoff) {
			continue
		}
		daysPending := int(now.Sub(d.UploadedAt).Hours() / 24)
		priority := domain.PriorityMedium
		if daysPending > highStaleDocDays {
			priority = domain.PriorityHigh
		}
		alerts = append(alerts, domain.Alert{
			Type:           domain.AlertStaleDocument,
			Priority:       priority,
			ClientID:       d.ClientID,
			ClientName:     d.ClientName,
			ResourceID:     d.ID,
			Description:    d.FileName,
			ReferenceMonth: d.ReferenceMonth,
			Days:           daysPending,
		})
	}
	return alerts, nil
}

// OverdueFees lists unpaid fees past their due date. Fees more than
// thirty days late rank critical, the rest high.
func (s *AlertService) OverdueFees(ctx context.Context) ([]domain.Alert, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.OverdueFees")
	defer span.End()

	fees, err := s.fees.ListFees(ctx, &domain.FeeFilter{Status: string(domain.FeePending)})
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	alerts := make([]domain.Alert, 0)
	for _, f := range fees {
		if !f.Overdue(today) {
			continue
		}
		due, err := time.Parse("2006-01-02", f.DueDate)
		if err != nil {
			continue
		}
		daysLate := int(today.Sub(due).Hours() / 24)
		priority := domain.PriorityHigh
		if daysLate > criticalFeeLateDays {
			priority = domain.PriorityCritical
		}
		amount := f.Amount
		alerts = append(alerts, domain.Alert{
			Type:           domain.AlertOverdueFee,
			Priority:       priority,
			ClientID:       f.ClientID,
			ClientName:     f.ClientName,
			ResourceID:     f.ID,
			Description:    fmt.Sprintf("Honorário %s em atraso", f.ReferenceMonth),
			ReferenceMonth: f.ReferenceMonth,
			DueDate:        f.DueDate,
			Amount:         &amount,
			Days:           daysLate,
		})
	}
	return alerts, nil
}

// Report runs the three checks concurrently with the landing-screen
// windows (seven days of due dates, five days of stale documents) and
// rolls them into one summary.
func (s *AlertService) Report(ctx context.Context) (*domain.AlertReport, error) {
	ctx, span := alertTracer.Start(ctx, "AlertService.Report")
	defer span.End()

	var due, stale, overdue []domain.Alert

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		due, err = s.DueObligations(gctx, reportDueLeadDays)
		return err
	})
	g.Go(func() error {
		var err error
		stale, err = s.StaleDocuments(gctx, reportStaleDocDays)
		return err
	})
	g.Go(func() error {
		var err error
		overdue, err = s.OverdueFees(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("alert report aggregation failed", zap.Error(err))
		return nil, err
	}

	report := &domain.AlertReport{
		Summary: domain.AlertSummary{
			DueSoon:        len(due),
			StaleDocuments: len(stale),
			OverdueFees:    len(overdue),
			ByPriority:     make(map[domain.AlertPriority]int),
		},
		Alerts: make([]domain.Alert, 0, len(due)+len(stale)+len(overdue)),
	}
	for _, group := range [][]domain.Alert{due, stale, overdue} {
		for _, a := range group {
			report.Summary.Total++
			report.Summary.ByPriority[a.Priority]++
			report.Alerts = append(report.Alerts, a)
		}
	}
	return report, nil
}
