package handler

import (
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/service"
)

var alertsTracer = otel.Tracer("handler/alerts")

// parseDays reads a positive day-count query parameter, falling back
// when missing or malformed.
func parseDays(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func alertReportHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := alertsTracer.Start(r.Context(), "GET /v1/alerts")
		defer span.End()

		report, err := svc.Report(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}

func dueObligationAlertsHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := alertsTracer.Start(r.Context(), "GET /v1/alerts/obligations")
		defer span.End()

		leadDays := parseDays(r, "lead_days", service.DefaultDueLeadDays)
		alerts, err := svc.DueObligations(ctx, leadDays)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

func staleDocumentAlertsHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := alertsTracer.Start(r.Context(), "GET /v1/alerts/documents")
		defer span.End()

		maxDays := parseDays(r, "max_days", service.DefaultStaleDocDays)
		alerts, err := svc.StaleDocuments(ctx, maxDays)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}

func overdueFeeAlertsHandler(svc *service.AlertService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := alertsTracer.Start(r.Context(), "GET /v1/alerts/fees")
		defer span.End()

		alerts, err := svc.OverdueFees(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, alerts)
	}
}
