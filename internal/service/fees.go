package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/port"
)

var feeTracer = otel.Tracer("service/fees")

// FeeService manages the office's monthly service fees (honorários).
type FeeService struct {
	store    port.FeeStore
	clients  port.ClientStore
	logger   *zap.Logger
	validate *validator.Validate

	now func() time.Time
}

// NewFeeService creates a new fee service.
func NewFeeService(store port.FeeStore, clients port.ClientStore, logger *zap.Logger) *FeeService {
	return &FeeService{store: store, clients: clients, logger: logger, validate: newValidator(), now: time.Now}
}

// Create registers a monthly fee for a client.
func (s *FeeService) Create(ctx context.Context, req *domain.FeeRequest) (*domain.MonthlyFee, error) {
	ctx, span := feeTracer.Start(ctx, "FeeService.Create")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}
	if req.Amount.IsNegative() || req.Amount.IsZero() {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must be positive"}
	}

	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	f := &domain.MonthlyFee{
		ID:             uuid.New().String(),
		ClientID:       client.ID,
		ClientName:     client.Name,
		ReferenceMonth: req.ReferenceMonth,
		Amount:         req.Amount,
		DueDate:        req.DueDate,
		Status:         domain.FeePending,
		CreatedAt:      s.now(),
	}

	created, err := s.store.CreateFee(ctx, f)
	if err != nil {
		s.logger.Error("failed to create fee", zap.String("client_id", client.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("fee created",
		zap.String("fee_id", created.ID),
		zap.String("client_id", client.ID),
		zap.String("reference_month", created.ReferenceMonth),
	)
	return created, nil
}

// List returns fees narrowed by filter; "overdue" is derived from
// pending fees past their due date.
func (s *FeeService) List(ctx context.Context, filter *domain.FeeFilter) ([]domain.MonthlyFee, error) {
	ctx, span := feeTracer.Start(ctx, "FeeService.List")
	defer span.End()

	if filter == nil {
		filter = &domain.FeeFilter{}
	}

	wantOverdue := filter.Status == "overdue"
	storeFilter := *filter
	if wantOverdue {
		storeFilter.Status = string(domain.FeePending)
	}

	items, err := s.store.ListFees(ctx, &storeFilter)
	if err != nil {
		return nil, err
	}
	if !wantOverdue {
		return items, nil
	}

	today := s.now()
	overdue := make([]domain.MonthlyFee, 0, len(items))
	for _, f := range items {
		if f.Overdue(today) {
			overdue = append(overdue, f)
		}
	}
	return overdue, nil
}

// MarkPaid settles a fee. Paying an already paid fee is a no-op.
func (s *FeeService) MarkPaid(ctx context.Context, id string) (*domain.MonthlyFee, error) {
	ctx, span := feeTracer.Start(ctx, "FeeService.MarkPaid")
	defer span.End()

	f, err := s.store.GetFee(ctx, id)
	if err != nil {
		return nil, err
	}
	if f.Status == domain.FeePaid {
		return f, nil
	}

	now := s.now()
	f.Status = domain.FeePaid
	f.PaidAt = &now

	updated, err := s.store.UpdateFee(ctx, f)
	if err != nil {
		s.logger.Error("failed to mark fee paid", zap.String("fee_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("fee paid", zap.String("fee_id", id))
	return updated, nil
}
