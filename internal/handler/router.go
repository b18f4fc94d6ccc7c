package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/service"
)

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract agreed with the office front end.
func NewRouter(
	docSvc *service.DocumentService,
	clientSvc *service.ClientService,
	obligationSvc *service.ObligationService,
	feeSvc *service.FeeService,
	dashSvc *service.DashboardService,
	alertSvc *service.AlertService,
	authSvc *service.AuthService,
	metrics *observability.Metrics,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(clientSvc, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 📄 Documentos
		// =============================================
		r.Post("/documents/upload", uploadDocumentHandler(docSvc, logger))
		r.Get("/documents", listDocumentsHandler(docSvc, logger))
		r.Get("/documents/stats", documentStatsHandler(docSvc, logger))
		r.Get("/documents/{id}", getDocumentHandler(docSvc, logger))
		r.Post("/documents/{id}/approve", approveDocumentHandler(docSvc, logger))
		r.Post("/documents/{id}/retry", retryDocumentHandler(docSvc, logger))

		// =============================================
		// 2. 👤 Clientes
		// =============================================
		r.Post("/clients", createClientHandler(clientSvc, logger))
		r.Get("/clients", listClientsHandler(clientSvc, logger))
		r.Get("/clients/{id}", getClientHandler(clientSvc, logger))
		r.Put("/clients/{id}", updateClientHandler(clientSvc, logger))
		r.Delete("/clients/{id}", deactivateClientHandler(clientSvc, logger))

		// =============================================
		// 3. 📅 Obrigações
		// =============================================
		r.Post("/obligations", createObligationHandler(obligationSvc, logger))
		r.Get("/obligations", listObligationsHandler(obligationSvc, logger))
		r.Put("/obligations/{id}", updateObligationHandler(obligationSvc, logger))
		r.Delete("/obligations/{id}", deleteObligationHandler(obligationSvc, logger))
		r.Post("/obligations/{id}/complete", completeObligationHandler(obligationSvc, logger))
		r.Post("/obligations/{id}/reopen", reopenObligationHandler(obligationSvc, logger))

		// =============================================
		// 4. 💰 Honorários
		// =============================================
		r.Post("/fees", createFeeHandler(feeSvc, logger))
		r.Get("/fees", listFeesHandler(feeSvc, logger))
		r.Post("/fees/{id}/pay", payFeeHandler(feeSvc, logger))

		// =============================================
		// 5. 📊 Dashboard & Métricas
		// =============================================
		r.Get("/dashboard/summary", dashboardSummaryHandler(dashSvc, logger))
		r.Get("/dashboard/tasks/today", todayTasksHandler(dashSvc, logger))
		r.Get("/metrics/summary", metricsSummaryHandler(metrics))

		// =============================================
		// 6. 🔔 Alertas
		// =============================================
		r.Get("/alerts", alertReportHandler(alertSvc, logger))
		r.Get("/alerts/obligations", dueObligationAlertsHandler(alertSvc, logger))
		r.Get("/alerts/documents", staleDocumentAlertsHandler(alertSvc, logger))
		r.Get("/alerts/fees", overdueFeeAlertsHandler(alertSvc, logger))

		// =============================================
		// 7. 🔐 Autenticação
		// =============================================
		r.Post("/auth/login", loginHandler(authSvc, logger))
	})

	return r
}

func healthzHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "contabil-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if clientSvc != nil {
			start := time.Now()
			_, err := clientSvc.List(ctx, false)
			latency := time.Since(start).Milliseconds()
			status := "healthy"
			if err != nil {
				status = "degraded"
				logger.Warn("health probe failed", zap.Error(err))
			}
			services = append(services, domain.ServiceHealth{
				Name: "storage", Status: status, LatencyMs: latency, LastChecked: now,
			})
		}

		overallStatus := "healthy"
		for _, s := range services {
			if s.Status == "unhealthy" {
				overallStatus = "unhealthy"
				break
			}
			if s.Status == "degraded" {
				overallStatus = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{
			Status:   overallStatus,
			Services: services,
		})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
