package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/memstore"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/service"
)

// --- Mocks ---

type mockExtractor struct {
	result   *domain.ExtractionResult
	err      error
	supports bool
	// delays the fake extraction so a caller can cancel mid-flight
	block func()
}

func (m *mockExtractor) Extract(_ context.Context, _ string, _ []byte) (*domain.ExtractionResult, error) {
	if m.block != nil {
		m.block()
	}
	return m.result, m.err
}

func (m *mockExtractor) Supports(_ string) bool {
	return m.supports
}

func newTestClientStore(t *testing.T) (*memstore.ClientStore, *domain.Client) {
	t.Helper()
	store := memstore.NewClientStore()
	client, err := store.CreateClient(context.Background(), &domain.Client{
		ID:     "cli-1",
		Name:   "Padaria Pão Quente LTDA",
		CNPJ:   "12345678000190",
		Active: true,
	})
	if err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return store, client
}

func validUpload() *domain.UploadRequest {
	return &domain.UploadRequest{
		ClientID:       "cli-1",
		Category:       "invoice",
		ReferenceMonth: "2024-06",
		FileName:       "nota_fiscal.pdf",
		Data:           []byte("conteudo"),
	}
}

// --- Upload ---

func TestUpload_ExtractionSucceeds_PendingReview(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	value := decimal.NewFromFloat(450.00)
	extractor := &mockExtractor{
		supports: true,
		result: &domain.ExtractionResult{
			Summary:        "NOTA FISCAL valor total R$ 450,00",
			KeyPoints:      "Valor: R$ 450,00",
			Value:          &value,
			Date:           "2024-06-15",
			SuggestedCategory: "invoice",
		},
	}

	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, err := svc.Upload(context.Background(), validUpload())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Status != domain.StatusPendingReview {
		t.Errorf("expected status pending_review, got %s", resp.Status)
	}
	if resp.ExtractedValue == nil || resp.ExtractedValue.StringFixed(2) != "450.00" {
		t.Errorf("expected extracted value 450.00, got %v", resp.ExtractedValue)
	}
	if resp.ProcessedAt != nil {
		t.Errorf("processed_at must be unset before approval")
	}

	stored, err := svc.Get(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("stored document not found: %v", err)
	}
	if stored.Status != domain.StatusPendingReview {
		t.Errorf("stored status = %s, want pending_review", stored.Status)
	}
}

func TestUpload_UnsupportedFormat_Pending(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: false}

	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.FileName = "recibo.jpg"
	resp, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if resp.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", resp.Status)
	}
	if resp.Summary != "" || resp.ExtractedValue != nil {
		t.Errorf("extraction fields must be empty when format is deferred")
	}
}

func TestUpload_ExtractionFails_DeferredPending(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: true, err: errors.New("corrupt file")}

	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, err := svc.Upload(context.Background(), validUpload())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	// a fresh upload never lands as error; the failed extraction defers
	if resp.Status != domain.StatusPending {
		t.Errorf("expected status pending, got %s", resp.Status)
	}
	if resp.Summary != "" || resp.ExtractedValue != nil {
		t.Errorf("extraction fields must be empty when extraction failed")
	}

	stored, err := svc.Get(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("stored document not found: %v", err)
	}
	if stored.Status != domain.StatusPending {
		t.Errorf("stored status = %s, want pending", stored.Status)
	}
}

func TestUpload_EmptyFile_Validation(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.Data = []byte{}
	_, err := svc.Upload(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "file" {
		t.Errorf("expected field file, got %s", verr.Field)
	}

	all, _ := svc.List(context.Background(), nil)
	if len(all) != 0 {
		t.Errorf("empty upload must not be stored, found %d documents", len(all))
	}
}

func TestUpload_SuggestedCategoryOverridesChoice(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{
		supports: true,
		result:   &domain.ExtractionResult{Summary: "folha de pagamento junho", SuggestedCategory: "payroll"},
	}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.Category = "other"
	resp, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if resp.SuggestedCategory != "payroll" {
		t.Errorf("suggested_category = %q, want payroll", resp.SuggestedCategory)
	}

	stored, _ := svc.Get(context.Background(), resp.DocumentID)
	if stored.Category != "payroll" {
		t.Errorf("stored category = %q, want the classifier suggestion", stored.Category)
	}
}

func TestUpload_EmptyReferenceMonth_Validation(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.ReferenceMonth = ""
	_, err := svc.Upload(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if verr.Field != "reference_month" {
		t.Errorf("expected field reference_month, got %s", verr.Field)
	}

	all, _ := svc.List(context.Background(), nil)
	if len(all) != 0 {
		t.Errorf("rejected upload must not be stored, found %d documents", len(all))
	}
}

func TestUpload_UnknownClient_NotFound(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.ClientID = "no-such-client"
	_, err := svc.Upload(context.Background(), req)

	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpload_InvalidCategory_Validation(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.Category = "contratos"
	_, err := svc.Upload(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpload_DisallowedExtension_Validation(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.FileName = "script.exe"
	_, err := svc.Upload(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpload_OversizedFile_Validation(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 10)

	req := validUpload()
	req.Data = []byte("mais do que dez bytes com folga")
	_, err := svc.Upload(context.Background(), req)

	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpload_CancelledDuringExtraction_NothingStored(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()

	ctx, cancel := context.WithCancel(context.Background())
	value := decimal.NewFromInt(100)
	extractor := &mockExtractor{
		supports: true,
		result:   &domain.ExtractionResult{Summary: "stale", Value: &value},
		block:    cancel,
	}

	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	_, err := svc.Upload(ctx, validUpload())
	var timeout *domain.ErrTimeout
	if !errors.As(err, &timeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}

	all, _ := docs.ListDocuments(context.Background(), &domain.DocumentFilter{})
	if len(all) != 0 {
		t.Errorf("cancelled upload must not be stored, found %d documents", len(all))
	}
}

// --- Approve ---

func TestApprove_SetsProcessedAt(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: true, result: &domain.ExtractionResult{Summary: "ok"}}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, err := svc.Upload(context.Background(), validUpload())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	doc, err := svc.Approve(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if doc.Status != domain.StatusProcessed {
		t.Errorf("expected status processed, got %s", doc.Status)
	}
	if doc.ProcessedAt == nil {
		t.Fatal("processed_at must be set on approval")
	}
}

func TestApprove_Idempotent(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: true, result: &domain.ExtractionResult{}}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, _ := svc.Upload(context.Background(), validUpload())
	first, err := svc.Approve(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("first approve: %v", err)
	}
	second, err := svc.Approve(context.Background(), resp.DocumentID)
	if err != nil {
		t.Fatalf("second approve: %v", err)
	}
	if !second.ProcessedAt.Equal(*first.ProcessedAt) {
		t.Errorf("second approval must not move processed_at")
	}
}

func TestApprove_UnknownID_CollectionUnchanged(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: true, result: &domain.ExtractionResult{}}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, _ := svc.Upload(context.Background(), validUpload())

	_, err := svc.Approve(context.Background(), "does-not-exist")
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	doc, _ := svc.Get(context.Background(), resp.DocumentID)
	if doc.Status != domain.StatusPendingReview {
		t.Errorf("existing document must be untouched, got status %s", doc.Status)
	}
}

// seedErrorDocument places a failed document straight into the store,
// the way a reprocessing run records a failure.
func seedErrorDocument(t *testing.T, docs *memstore.DocumentStore, id string) string {
	t.Helper()
	stale := decimal.NewFromInt(10)
	_, err := docs.CreateDocument(context.Background(), &domain.Document{
		ID:             id,
		ClientID:       "cli-1",
		ClientName:     "Padaria Pão Quente LTDA",
		FileName:       "corrompido.pdf",
		FileType:       "pdf",
		Category:       "other",
		ReferenceMonth: "2024-06",
		Summary:        "resumo antigo",
		ExtractedValue: &stale,
		Status:         domain.StatusError,
		UploadedAt:     time.Now(),
	})
	if err != nil {
		t.Fatalf("seed error document: %v", err)
	}
	return id
}

func TestApprove_ErrorStatus_Rejected(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	id := seedErrorDocument(t, docs, "doc-err")

	_, err := svc.Approve(context.Background(), id)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- Retry ---

func TestRetry_FromError_ClearsExtraction(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{}, observability.NewMetrics(), zap.NewNop(), 0)

	id := seedErrorDocument(t, docs, "doc-err")

	doc, err := svc.Retry(context.Background(), id)
	if err != nil {
		t.Fatalf("retry: %v", err)
	}
	if doc.Status != domain.StatusPending {
		t.Errorf("expected status pending after retry, got %s", doc.Status)
	}
	if doc.Summary != "" || doc.ExtractedValue != nil || doc.ProcessedAt != nil {
		t.Errorf("retry must clear extraction fields")
	}
}

func TestRetry_NonErrorStatus_Rejected(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: true, result: &domain.ExtractionResult{}}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	resp, _ := svc.Upload(context.Background(), validUpload())

	_, err := svc.Retry(context.Background(), resp.DocumentID)
	var verr *domain.ErrValidation
	if !errors.As(err, &verr) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

// --- List & Stats ---

func uploadWithStatus(t *testing.T, svc *service.DocumentService, extractor *mockExtractor, supports bool) string {
	t.Helper()
	extractor.supports = supports
	extractor.result = &domain.ExtractionResult{Summary: "ok"}
	resp, err := svc.Upload(context.Background(), validUpload())
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return resp.DocumentID
}

func TestList_PendingFilterIncludesPendingReview(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	pendingID := uploadWithStatus(t, svc, extractor, false)     // pending
	reviewID := uploadWithStatus(t, svc, extractor, true)       // pending_review
	errorID := seedErrorDocument(t, docs, "doc-err")
	processedID := uploadWithStatus(t, svc, extractor, true)
	if _, err := svc.Approve(context.Background(), processedID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	listed, err := svc.List(context.Background(), &domain.DocumentFilter{Status: "pending"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	got := map[string]bool{}
	for _, d := range listed {
		got[d.ID] = true
	}
	if !got[pendingID] || !got[reviewID] {
		t.Errorf("pending filter must include both pending and pending_review")
	}
	if got[errorID] || got[processedID] {
		t.Errorf("pending filter must exclude error and processed documents")
	}
}

func TestList_SearchMatchesClientFileAndCategory(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	svc := service.NewDocumentService(docs, clients, &mockExtractor{supports: false}, observability.NewMetrics(), zap.NewNop(), 0)

	req := validUpload()
	req.FileName = "arquivo.pdf"
	resp, err := svc.Upload(context.Background(), req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}

	for _, needle := range []string{"invoice", "arquivo", "padaria"} {
		listed, err := svc.List(context.Background(), &domain.DocumentFilter{Search: needle})
		if err != nil {
			t.Fatalf("list %q: %v", needle, err)
		}
		if len(listed) != 1 || listed[0].ID != resp.DocumentID {
			t.Errorf("search %q: got %d results, want the uploaded document", needle, len(listed))
		}
	}

	none, err := svc.List(context.Background(), &domain.DocumentFilter{Search: "darf"})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("search with no match returned %d results", len(none))
	}
}

func TestStats_AggregatesByStatus(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	uploadWithStatus(t, svc, extractor, false)        // pending
	uploadWithStatus(t, svc, extractor, true)         // pending_review
	seedErrorDocument(t, docs, "doc-err")
	processedID := uploadWithStatus(t, svc, extractor, true)
	if _, err := svc.Approve(context.Background(), processedID); err != nil {
		t.Fatalf("approve: %v", err)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	want := domain.DocumentStats{Total: 4, Processed: 1, Pending: 2, Error: 1}
	if *stats != want {
		t.Errorf("stats = %+v, want %+v", *stats, want)
	}
}

// guard against the UploadedAt tiebreak regressing in the store
func TestList_NewestFirst(t *testing.T) {
	clients, _ := newTestClientStore(t)
	docs := memstore.NewDocumentStore()
	extractor := &mockExtractor{supports: false}
	svc := service.NewDocumentService(docs, clients, extractor, observability.NewMetrics(), zap.NewNop(), 0)

	first, _ := svc.Upload(context.Background(), validUpload())
	time.Sleep(2 * time.Millisecond)
	second, _ := svc.Upload(context.Background(), validUpload())

	listed, err := svc.List(context.Background(), nil)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 documents, got %d", len(listed))
	}
	if listed[0].ID != second.DocumentID || listed[1].ID != first.DocumentID {
		t.Errorf("expected newest-first ordering")
	}
}
