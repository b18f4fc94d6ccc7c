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

var obligationsTracer = otel.Tracer("handler/obligations")

func createObligationHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "POST /v1/obligations")
		defer span.End()

		var req domain.ObligationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ob, err := svc.Create(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, ob)
	}
}

func listObligationsHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "GET /v1/obligations")
		defer span.End()

		q := r.URL.Query()
		filter := &domain.ObligationFilter{
			ClientID:       q.Get("client_id"),
			Status:         q.Get("status"),
			ReferenceMonth: q.Get("reference_month"),
			DueFrom:        q.Get("due_from"),
			DueTo:          q.Get("due_to"),
		}
		page, pageSize := parsePagination(r)

		obs, err := svc.List(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, paginate(obs, page, pageSize))
	}
}

func updateObligationHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "PUT /v1/obligations/{id}")
		defer span.End()

		var req domain.ObligationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		ob, err := svc.Update(ctx, chi.URLParam(r, "id"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}

func deleteObligationHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "DELETE /v1/obligations/{id}")
		defer span.End()

		if err := svc.Delete(ctx, chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, domain.SuccessResponse{Message: "Obrigação removida com sucesso"})
	}
}

func completeObligationHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "POST /v1/obligations/{id}/complete")
		defer span.End()

		ob, err := svc.Complete(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}

func reopenObligationHandler(svc *service.ObligationService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := obligationsTracer.Start(r.Context(), "POST /v1/obligations/{id}/reopen")
		defer span.End()

		ob, err := svc.Reopen(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, ob)
	}
}
