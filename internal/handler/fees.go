package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/service"
)

var feesTracer = otel.Tracer("handler/fees")

func createFeeHandler(svc *service.FeeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := feesTracer.Start(r.Context(), "POST /v1/fees")
		defer span.End()

		var req domain.FeeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		fee, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, fee)
	}
}

func listFeesHandler(svc *service.FeeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := feesTracer.Start(r.Context(), "GET /v1/fees")
		defer span.End()

		q := r.URL.Query()
		filter := &domain.FeeFilter{
			ClientID:       q.Get("client_id"),
			Status:         q.Get("status"),
			ReferenceMonth: q.Get("reference_month"),
		}
		page, pageSize := parsePagination(r)

		fees, err := svc.List(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, paginate(fees, page, pageSize))
	}
}

func payFeeHandler(svc *service.FeeService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := feesTracer.Start(r.Context(), "POST /v1/fees/{id}/pay")
		defer span.End()

		fee, err := svc.MarkPaid(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, fee)
	}
}
