package handler

import (
	"net/http"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/infra/observability"
	"github.com/contafacil/escritorio-go/internal/service"
)

var dashboardTracer = otel.Tracer("handler/dashboard")

func dashboardSummaryHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := dashboardTracer.Start(r.Context(), "GET /v1/dashboard/summary")
		defer span.End()

		summary, err := svc.Summary(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, summary)
	}
}

func todayTasksHandler(svc *service.DashboardService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := dashboardTracer.Start(r.Context(), "GET /v1/dashboard/tasks/today")
		defer span.End()

		tasks, err := svc.TodayTasks(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, tasks)
	}
}

func metricsSummaryHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.GetProcessingSnapshot())
	}
}
