package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/port"
)

var obligationTracer = otel.Tracer("service/obligations")

// ObligationService manages fiscal obligations (DAS, DARF, GFIP, ...).
type ObligationService struct {
	store    port.ObligationStore
	clients  port.ClientStore
	logger   *zap.Logger
	validate *validator.Validate

	// now is swappable so overdue derivation can be tested.
	now func() time.Time
}

// NewObligationService creates a new obligation service.
func NewObligationService(store port.ObligationStore, clients port.ClientStore, logger *zap.Logger) *ObligationService {
	return &ObligationService{
		store:    store,
		clients:  clients,
		logger:   logger,
		validate: newValidator(),
		now:      time.Now,
	}
}

// Create registers a new obligation for a client.
func (s *ObligationService) Create(ctx context.Context, req *domain.ObligationRequest) (*domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Create")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	o := &domain.Obligation{
		ID:             uuid.New().String(),
		ClientID:       client.ID,
		ClientName:     client.Name,
		Type:           req.Type,
		Description:    req.Description,
		ReferenceMonth: req.ReferenceMonth,
		DueDate:        req.DueDate,
		Amount:         req.Amount,
		Status:         domain.ObligationPending,
		Notes:          req.Notes,
		CreatedAt:      s.now(),
	}

	created, err := s.store.CreateObligation(ctx, o)
	if err != nil {
		s.logger.Error("failed to create obligation", zap.String("client_id", client.ID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("obligation created",
		zap.String("obligation_id", created.ID),
		zap.String("client_id", client.ID),
		zap.String("type", created.Type),
		zap.String("due_date", created.DueDate),
	)
	return created, nil
}

// Update replaces the editable fields of an obligation. Status and
// completion timestamp are managed through Complete/Reopen only.
func (s *ObligationService) Update(ctx context.Context, id string, req *domain.ObligationRequest) (*domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Update")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	o, err := s.store.GetObligation(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ClientID != o.ClientID {
		client, err := s.clients.GetClient(ctx, req.ClientID)
		if err != nil {
			return nil, err
		}
		o.ClientID = client.ID
		o.ClientName = client.Name
	}

	o.Type = req.Type
	o.Description = req.Description
	o.ReferenceMonth = req.ReferenceMonth
	o.DueDate = req.DueDate
	o.Amount = req.Amount
	o.Notes = req.Notes

	updated, err := s.store.UpdateObligation(ctx, o)
	if err != nil {
		s.logger.Error("failed to update obligation", zap.String("obligation_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("obligation updated", zap.String("obligation_id", id))
	return updated, nil
}

// Delete removes an obligation permanently.
func (s *ObligationService) Delete(ctx context.Context, id string) error {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Delete")
	defer span.End()

	if _, err := s.store.GetObligation(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteObligation(ctx, id); err != nil {
		s.logger.Error("failed to delete obligation", zap.String("obligation_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("obligation deleted", zap.String("obligation_id", id))
	return nil
}

// Get returns a single obligation by ID.
func (s *ObligationService) Get(ctx context.Context, id string) (*domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Get")
	defer span.End()

	return s.store.GetObligation(ctx, id)
}

// List returns obligations due-date ascending. The "overdue" status
// filter is derived: pending obligations past their due date.
func (s *ObligationService) List(ctx context.Context, filter *domain.ObligationFilter) ([]domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.List")
	defer span.End()

	if filter == nil {
		filter = &domain.ObligationFilter{}
	}

	// overdue is not a stored status; fetch pending and derive.
	wantOverdue := filter.Status == "overdue"
	storeFilter := *filter
	if wantOverdue {
		storeFilter.Status = string(domain.ObligationPending)
	}

	items, err := s.store.ListObligations(ctx, &storeFilter)
	if err != nil {
		return nil, err
	}
	if !wantOverdue {
		return items, nil
	}

	today := s.now()
	overdue := make([]domain.Obligation, 0, len(items))
	for _, o := range items {
		if o.Overdue(today) {
			overdue = append(overdue, o)
		}
	}
	return overdue, nil
}

// Complete marks an obligation as done. Completing an already completed
// obligation is a no-op.
func (s *ObligationService) Complete(ctx context.Context, id string) (*domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Complete")
	defer span.End()

	o, err := s.store.GetObligation(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status == domain.ObligationCompleted {
		return o, nil
	}

	now := s.now()
	o.Status = domain.ObligationCompleted
	o.CompletedAt = &now

	updated, err := s.store.UpdateObligation(ctx, o)
	if err != nil {
		s.logger.Error("failed to complete obligation", zap.String("obligation_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("obligation completed", zap.String("obligation_id", id))
	return updated, nil
}

// Reopen puts a completed obligation back to pending.
func (s *ObligationService) Reopen(ctx context.Context, id string) (*domain.Obligation, error) {
	ctx, span := obligationTracer.Start(ctx, "ObligationService.Reopen")
	defer span.End()

	o, err := s.store.GetObligation(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.Status != domain.ObligationCompleted {
		return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("cannot reopen obligation with status '%s'", o.Status)}
	}

	o.Status = domain.ObligationPending
	o.CompletedAt = nil

	return s.store.UpdateObligation(ctx, o)
}
