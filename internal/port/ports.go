// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// Extractor pulls text and structured hints out of an uploaded file.
// Implementations return ErrExternalService when the format is readable
// but parsing fails, and ErrValidation when the format is unsupported.
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (*domain.ExtractionResult, error)
	Supports(fileType string) bool
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// DocumentStore defines all data operations for client documents.
// Implemented by the in-memory store and the Supabase adapter.
type DocumentStore interface {
	CreateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	GetDocument(ctx context.Context, id string) (*domain.Document, error)
	ListDocuments(ctx context.Context, filter *domain.DocumentFilter) ([]domain.Document, error)
	UpdateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error)
}

// ClientStore defines all data operations for office clients.
type ClientStore interface {
	CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error)
	GetClient(ctx context.Context, id string) (*domain.Client, error)
	GetClientByCNPJ(ctx context.Context, cnpj string) (*domain.Client, error)
	ListClients(ctx context.Context, activeOnly bool) ([]domain.Client, error)
	ListClientRefs(ctx context.Context) ([]domain.ClientRef, error)
	UpdateClient(ctx context.Context, c *domain.Client) (*domain.Client, error)
}

// ObligationStore defines all data operations for fiscal obligations.
type ObligationStore interface {
	CreateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error)
	GetObligation(ctx context.Context, id string) (*domain.Obligation, error)
	ListObligations(ctx context.Context, filter *domain.ObligationFilter) ([]domain.Obligation, error)
	UpdateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error)
	DeleteObligation(ctx context.Context, id string) error
}

// FeeStore defines all data operations for monthly service fees.
type FeeStore interface {
	CreateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error)
	GetFee(ctx context.Context, id string) (*domain.MonthlyFee, error)
	ListFees(ctx context.Context, filter *domain.FeeFilter) ([]domain.MonthlyFee, error)
	UpdateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error)
}
