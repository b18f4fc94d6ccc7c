package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/port"
)

var clientTracer = otel.Tracer("service/clients")

// ClientService manages the office's client registry.
type ClientService struct {
	store    port.ClientStore
	logger   *zap.Logger
	validate *validator.Validate
}

// NewClientService creates a new client service.
func NewClientService(store port.ClientStore, logger *zap.Logger) *ClientService {
	return &ClientService{store: store, logger: logger, validate: newValidator()}
}

// normalizeCNPJ strips formatting so "12.345.678/0001-90" and
// "12345678000190" compare equal.
func normalizeCNPJ(cnpj string) string {
	var b strings.Builder
	for _, r := range cnpj {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Create registers a new client. CNPJ must be unique across the office.
func (s *ClientService) Create(ctx context.Context, req *domain.ClientRequest) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Create")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	cnpj := normalizeCNPJ(req.CNPJ)
	if len(cnpj) != 14 {
		return nil, &domain.ErrValidation{Field: "cnpj", Message: "must have 14 digits"}
	}

	existing, err := s.store.GetClientByCNPJ(ctx, cnpj)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "client with this CNPJ already exists"}
	}

	now := time.Now()
	client := &domain.Client{
		ID:                  uuid.New().String(),
		Name:                req.Name,
		CNPJ:                cnpj,
		TaxRegime:           req.TaxRegime,
		LegalRepresentative: req.LegalRepresentative,
		Email:               req.Email,
		Phone:               req.Phone,
		Address:             req.Address,
		Active:              true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	created, err := s.store.CreateClient(ctx, client)
	if err != nil {
		s.logger.Error("failed to create client", zap.String("cnpj", cnpj), zap.Error(err))
		return nil, err
	}

	s.logger.Info("client created", zap.String("client_id", created.ID), zap.String("name", created.Name))
	return created, nil
}

// Get returns a single client by ID.
func (s *ClientService) Get(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Get")
	defer span.End()

	return s.store.GetClient(ctx, id)
}

// List returns clients sorted by name. activeOnly hides deactivated ones.
func (s *ClientService) List(ctx context.Context, activeOnly bool) ([]domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.List")
	defer span.End()

	return s.store.ListClients(ctx, activeOnly)
}

// Update replaces a client's editable fields. CNPJ stays unique.
func (s *ClientService) Update(ctx context.Context, id string, req *domain.ClientRequest) (*domain.Client, error) {
	ctx, span := clientTracer.Start(ctx, "ClientService.Update")
	defer span.End()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}

	cnpj := normalizeCNPJ(req.CNPJ)
	if len(cnpj) != 14 {
		return nil, &domain.ErrValidation{Field: "cnpj", Message: "must have 14 digits"}
	}

	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return nil, err
	}

	if cnpj != client.CNPJ {
		other, lookupErr := s.store.GetClientByCNPJ(ctx, cnpj)
		if lookupErr == nil && other != nil && other.ID != id {
			return nil, &domain.ErrConflict{Message: "client with this CNPJ already exists"}
		}
	}

	client.Name = req.Name
	client.CNPJ = cnpj
	client.TaxRegime = req.TaxRegime
	client.LegalRepresentative = req.LegalRepresentative
	client.Email = req.Email
	client.Phone = req.Phone
	client.Address = req.Address
	client.UpdatedAt = time.Now()

	return s.store.UpdateClient(ctx, client)
}

// Deactivate soft-deletes a client: documents and history stay intact,
// the client just stops showing in active listings.
func (s *ClientService) Deactivate(ctx context.Context, id string) error {
	ctx, span := clientTracer.Start(ctx, "ClientService.Deactivate")
	defer span.End()

	client, err := s.store.GetClient(ctx, id)
	if err != nil {
		return err
	}
	if !client.Active {
		return nil
	}

	client.Active = false
	client.UpdatedAt = time.Now()
	_, err = s.store.UpdateClient(ctx, client)
	if err != nil {
		s.logger.Error("failed to deactivate client", zap.String("client_id", id), zap.Error(err))
		return err
	}

	s.logger.Info("client deactivated", zap.String("client_id", id))
	return nil
}
