package integration_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/handler"
	"github.com/contafacil/escritorio-go/internal/infra/cache"
	"github.com/contafacil/escritorio-go/internal/infra/extract"
	"github.com/contafacil/escritorio-go/internal/infra/memstore"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/infra/resilience"
	"github.com/contafacil/escritorio-go/internal/infra/supabase"
	"github.com/contafacil/escritorio-go/internal/service"
)

func buildRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	clients := memstore.NewClientStore()
	docs := memstore.NewDocumentStore()
	obligations := memstore.NewObligationStore()
	fees := memstore.NewFeeStore()

	hash, err := bcrypt.GenerateFromPassword([]byte("contabil123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	docSvc := service.NewDocumentService(docs, clients, extract.NewEngine(logger), metrics, logger, 0)
	clientSvc := service.NewClientService(clients, logger)
	obligationSvc := service.NewObligationService(obligations, clients, logger)
	feeSvc := service.NewFeeService(fees, clients, logger)
	dashSvc := service.NewDashboardService(clients, obligations, docs, fees,
		cache.New[domain.DashboardSummary](time.Minute), metrics, logger)
	alertSvc := service.NewAlertService(obligations, docs, fees, logger)
	authSvc := service.NewAuthService("escritorio", string(hash), []byte("test-secret"), time.Hour, logger)

	return handler.NewRouter(docSvc, clientSvc, obligationSvc, feeSvc, dashSvc, alertSvc, authSvc, metrics, logger)
}

// TestIntegration_DocumentLifecycle covers the full office flow:
// register a client, upload a document, review the listing, approve it
// and check the aggregated stats.
func TestIntegration_DocumentLifecycle(t *testing.T) {
	router := buildRouter(t)

	// --- Register a client ---
	body, _ := json.Marshal(domain.ClientRequest{
		Name:                "Comércio de Flores Jardim LTDA",
		CNPJ:                "11.222.333/0001-44",
		TaxRegime:           "simples_nacional",
		LegalRepresentative: "João Pereira",
		Email:               "financeiro@floresjardim.com.br",
	})
	req := httptest.NewRequest(http.MethodPost, "/v1/clients", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create client: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var client domain.Client
	if err := json.NewDecoder(rec.Body).Decode(&client); err != nil {
		t.Fatalf("decode client: %v", err)
	}

	// --- Upload a text invoice ---
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "nota_junho.txt")
	fw.Write([]byte("NOTA FISCAL\nServiços de contabilidade\nValor total: R$ 1.250,00\nVencimento: 15/06/2024\n"))
	mw.WriteField("client_id", client.ID)
	mw.WriteField("category", "invoice")
	mw.WriteField("reference_month", "2024-06")
	mw.Close()

	req = httptest.NewRequest(http.MethodPost, "/v1/documents/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("upload: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var upload domain.UploadResponse
	if err := json.NewDecoder(rec.Body).Decode(&upload); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if upload.Status != domain.StatusPendingReview {
		t.Fatalf("expected pending_review after extraction, got %s", upload.Status)
	}
	if upload.ExtractedValue == nil || upload.ExtractedValue.StringFixed(2) != "1250.00" {
		t.Errorf("expected extracted value 1250.00, got %v", upload.ExtractedValue)
	}
	if upload.ExtractedDate != "2024-06-15" {
		t.Errorf("expected extracted date 2024-06-15, got %s", upload.ExtractedDate)
	}

	// --- The pending filter must surface the new document ---
	req = httptest.NewRequest(http.MethodGet, "/v1/documents?status=pending", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed domain.DocumentListResponse
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	found := false
	for _, d := range listed.Documents {
		if d.ID == upload.DocumentID {
			found = true
		}
	}
	if !found {
		t.Fatal("pending listing must include the document awaiting review")
	}

	// --- Approve ---
	req = httptest.NewRequest(http.MethodPost, "/v1/documents/"+upload.DocumentID+"/approve", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var approved domain.Document
	if err := json.NewDecoder(rec.Body).Decode(&approved); err != nil {
		t.Fatalf("decode approve: %v", err)
	}
	if approved.Status != domain.StatusProcessed || approved.ProcessedAt == nil {
		t.Fatalf("expected processed with processed_at, got %s", approved.Status)
	}

	// --- Stats reflect the approval ---
	req = httptest.NewRequest(http.MethodGet, "/v1/documents/stats", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: expected 200, got %d", rec.Code)
	}
	var stats domain.DocumentStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.Total != 1 || stats.Processed != 1 {
		t.Errorf("stats = %+v, want total 1 processed 1", stats)
	}
}

// TestIntegration_SupabaseClientStore runs the client service against a
// mock PostgREST endpoint.
func TestIntegration_SupabaseClientStore(t *testing.T) {
	var created map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/rest/v1/clientes") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.Method {
		case http.MethodPost:
			var rows map[string]any
			json.NewDecoder(r.Body).Decode(&rows)
			created = rows
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode([]map[string]any{rows})
		case http.MethodGet:
			if created == nil || r.URL.Query().Get("cnpj") != "" {
				// CNPJ uniqueness lookup before the insert
				w.Write([]byte("[]"))
				return
			}
			json.NewEncoder(w).Encode([]map[string]any{created})
		default:
			w.WriteHeader(http.StatusNoContent)
		}
	}))
	defer server.Close()

	logger := zap.NewNop()
	cb := resilience.NewCircuitBreaker("test")
	cfg := resilience.Config{MaxRetries: 1, InitialBackoff: 10 * time.Millisecond, MaxConcurrency: 10}
	store := supabase.NewClient(&http.Client{Timeout: 5 * time.Second}, server.URL, "anon", "service", cb, cfg, logger)

	svc := service.NewClientService(store, logger)

	client, err := svc.Create(context.Background(), &domain.ClientRequest{
		Name:                "Transportes Rápido Sul SA",
		CNPJ:                "55.666.777/0001-88",
		TaxRegime:           "lucro_presumido",
		LegalRepresentative: "Carla Dias",
		Email:               "fiscal@rapidosul.com.br",
	})
	if err != nil {
		t.Fatalf("create via supabase: %v", err)
	}
	if client.CNPJ != "55666777000188" {
		t.Errorf("expected normalized CNPJ, got %s", client.CNPJ)
	}
	if created["nome"] != "Transportes Rápido Sul SA" {
		t.Errorf("row sent to PostgREST carries nome, got %v", created["nome"])
	}

	listed, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("list via supabase: %v", err)
	}
	if len(listed) != 1 || listed[0].Name != "Transportes Rápido Sul SA" {
		t.Errorf("expected the created client back, got %+v", listed)
	}
}
