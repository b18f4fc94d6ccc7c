// Package service provides the business logic layer (use cases).
// DocumentService handles the document lifecycle: upload, extraction,
// review, approval and retry.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/port"
)

var docTracer = otel.Tracer("service/documents")

// DocumentService orchestrates the document lifecycle over a store and
// an extraction engine.
type DocumentService struct {
	store     port.DocumentStore
	clients   port.ClientStore
	extractor port.Extractor
	metrics   *observability.Metrics
	logger    *zap.Logger
	validate  *validator.Validate

	maxUploadBytes int64
}

// NewDocumentService creates a new document service. maxUploadBytes
// bounds the accepted file size; zero applies the 16 MiB default.
func NewDocumentService(store port.DocumentStore, clients port.ClientStore, extractor port.Extractor, metrics *observability.Metrics, logger *zap.Logger, maxUploadBytes int64) *DocumentService {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &DocumentService{
		store:          store,
		clients:        clients,
		extractor:      extractor,
		metrics:        metrics,
		logger:         logger,
		validate:       newValidator(),
		maxUploadBytes: maxUploadBytes,
	}
}

// fileExtension returns the lowercase extension of name without the dot.
func fileExtension(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func allowedExtension(ext string) bool {
	for _, e := range domain.AllowedFileExtensions {
		if e == ext {
			return true
		}
	}
	return false
}

// Upload stores a new document and runs extraction synchronously when
// the file format supports it. The resulting status is:
//
//	pending_review  extraction ran and succeeded
//	pending         format not extractable (e.g. images), or
//	                extraction failed; deferred either way
//
// A successful extraction's category suggestion replaces the category
// the uploader picked. If ctx is cancelled while extraction runs,
// nothing is stored.
func (s *DocumentService) Upload(ctx context.Context, req *domain.UploadRequest) (*domain.UploadResponse, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.Upload")
	defer span.End()

	start := time.Now()
	defer func() { s.metrics.RecordRequestDuration("document_upload", time.Since(start)) }()

	if err := s.validate.Struct(req); err != nil {
		return nil, mapValidationError(err)
	}
	if !domain.ValidCategory(req.Category) {
		return nil, &domain.ErrValidation{Field: "category", Message: "must be one of: " + strings.Join(domain.DocumentCategories, " ")}
	}
	ext := fileExtension(req.FileName)
	if !allowedExtension(ext) {
		return nil, &domain.ErrValidation{Field: "file_name", Message: fmt.Sprintf("extension '%s' not allowed", ext)}
	}
	if len(req.Data) == 0 {
		return nil, &domain.ErrValidation{Field: "file", Message: "file is empty"}
	}
	if int64(len(req.Data)) > s.maxUploadBytes {
		return nil, &domain.ErrValidation{Field: "file", Message: fmt.Sprintf("file exceeds %d bytes", s.maxUploadBytes)}
	}

	// Client must exist before we touch the file.
	client, err := s.clients.GetClient(ctx, req.ClientID)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("client.id", req.ClientID),
		attribute.String("document.category", req.Category),
		attribute.Int("document.size_bytes", len(req.Data)),
	)

	doc := &domain.Document{
		ID:             uuid.New().String(),
		ClientID:       client.ID,
		ClientName:     client.Name,
		FileName:       req.FileName,
		FileType:       ext,
		Category:       req.Category,
		FileSizeBytes:  int64(len(req.Data)),
		ReferenceMonth: req.ReferenceMonth,
		Status:         domain.StatusPending,
		UploadedAt:     time.Now(),
	}

	var suggested string
	message := "Documento enviado. Processamento pendente."

	if s.extractor.Supports(ext) {
		extractStart := time.Now()
		result, extractErr := s.extractor.Extract(ctx, req.FileName, req.Data)
		s.metrics.RecordExtractionDuration(time.Since(extractStart))

		// The request may have been cancelled while extraction ran.
		// A stale result must not reach the store.
		if ctx.Err() != nil {
			return nil, &domain.ErrTimeout{Operation: "document_upload"}
		}

		if extractErr != nil {
			// The document itself is fine; extraction can run again
			// later, so it lands as pending rather than error.
			s.metrics.RecordExtractionFailure()
			s.logger.Warn("extraction failed on upload",
				zap.String("file_name", req.FileName),
				zap.String("client_id", client.ID),
				zap.Error(extractErr),
			)
			message = "Documento enviado, mas o processamento falhou. Ficará pendente."
		} else {
			doc.Status = domain.StatusPendingReview
			doc.Summary = result.Summary
			doc.KeyPoints = result.KeyPoints
			doc.ExtractedValue = result.Value
			doc.ExtractedDate = result.Date
			suggested = result.SuggestedCategory
			if suggested != "" {
				doc.Category = suggested
			}
			message = "Documento enviado e processado. Aguardando revisão."
		}
	}

	created, err := s.store.CreateDocument(ctx, doc)
	if err != nil {
		s.logger.Error("failed to store document",
			zap.String("client_id", client.ID),
			zap.String("file_name", req.FileName),
			zap.Error(err),
		)
		return nil, err
	}

	s.metrics.RecordUpload(created.Category)
	s.logger.Info("document uploaded",
		zap.String("document_id", created.ID),
		zap.String("client_id", client.ID),
		zap.String("category", created.Category),
		zap.String("status", string(created.Status)),
	)

	return &domain.UploadResponse{
		Message:           message,
		DocumentID:        created.ID,
		FileName:          created.FileName,
		FileSizeBytes:     created.FileSizeBytes,
		SuggestedCategory: suggested,
		Summary:           created.Summary,
		KeyPoints:         created.KeyPoints,
		ExtractedValue:    created.ExtractedValue,
		ExtractedDate:     created.ExtractedDate,
		Status:            created.Status,
		ProcessedAt:       created.ProcessedAt,
	}, nil
}

// Get returns a single document by ID.
func (s *DocumentService) Get(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.Get")
	defer span.End()

	return s.store.GetDocument(ctx, id)
}

// List returns documents newest-first, narrowed by filter. The
// free-text search runs here rather than in the stores, so every
// backend matches the same fields.
func (s *DocumentService) List(ctx context.Context, filter *domain.DocumentFilter) ([]domain.Document, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.List")
	defer span.End()

	if filter == nil {
		filter = &domain.DocumentFilter{}
	}

	storeFilter := *filter
	storeFilter.Search = ""
	docs, err := s.store.ListDocuments(ctx, &storeFilter)
	if err != nil {
		return nil, err
	}
	if filter.Search == "" {
		return docs, nil
	}

	matched := make([]domain.Document, 0, len(docs))
	for i := range docs {
		if filter.MatchesSearch(&docs[i]) {
			matched = append(matched, docs[i])
		}
	}
	return matched, nil
}

// Approve marks a reviewed document as processed. Approving an already
// processed document is a no-op and returns the document unchanged.
func (s *DocumentService) Approve(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.Approve")
	defer span.End()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status == domain.StatusProcessed {
		return doc, nil
	}
	if doc.Status == domain.StatusError {
		return nil, &domain.ErrValidation{Field: "status", Message: "cannot approve document with status 'error'"}
	}

	now := time.Now()
	doc.Status = domain.StatusProcessed
	doc.ProcessedAt = &now

	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		s.logger.Error("failed to approve document", zap.String("document_id", id), zap.Error(err))
		return nil, err
	}

	s.metrics.RecordProcessed()
	s.logger.Info("document approved",
		zap.String("document_id", id),
		zap.String("client_id", updated.ClientID),
	)
	return updated, nil
}

// Retry requeues a failed document: its status goes back to pending and
// stale extraction fields are cleared.
func (s *DocumentService) Retry(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.Retry")
	defer span.End()

	doc, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return nil, err
	}
	if doc.Status != domain.StatusError {
		return nil, &domain.ErrValidation{Field: "status", Message: fmt.Sprintf("cannot retry document with status '%s'", doc.Status)}
	}

	doc.Status = domain.StatusPending
	doc.Summary = ""
	doc.KeyPoints = ""
	doc.ExtractedValue = nil
	doc.ExtractedDate = ""
	doc.ProcessedAt = nil

	updated, err := s.store.UpdateDocument(ctx, doc)
	if err != nil {
		s.logger.Error("failed to retry document", zap.String("document_id", id), zap.Error(err))
		return nil, err
	}

	s.logger.Info("document requeued", zap.String("document_id", id))
	return updated, nil
}

// Stats aggregates the collection by status. Pending covers both
// pending and pending_review.
func (s *DocumentService) Stats(ctx context.Context) (*domain.DocumentStats, error) {
	ctx, span := docTracer.Start(ctx, "DocumentService.Stats")
	defer span.End()

	counts, err := s.store.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	stats := &domain.DocumentStats{
		Processed: counts[domain.StatusProcessed],
		Pending:   counts[domain.StatusPending] + counts[domain.StatusPendingReview],
		Error:     counts[domain.StatusError],
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}
