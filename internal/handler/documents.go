package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/service"
)

var documentsTracer = otel.Tracer("handler/documents")

// maxMultipartMemory bounds how much of the multipart body is held in
// memory before spilling to temp files.
const maxMultipartMemory = 32 << 20

func uploadDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "POST /v1/documents/upload")
		defer span.End()

		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "missing file field")
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			logger.Error("failed to read uploaded file", zap.Error(err))
			writeError(w, http.StatusBadRequest, "unable to read uploaded file")
			return
		}

		req := &domain.UploadRequest{
			ClientID:       r.FormValue("client_id"),
			Category:       r.FormValue("category"),
			ReferenceMonth: r.FormValue("reference_month"),
			FileName:       header.Filename,
			Data:           data,
		}

		resp, err := svc.Upload(ctx, req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func listDocumentsHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "GET /v1/documents")
		defer span.End()

		q := r.URL.Query()
		filter := &domain.DocumentFilter{
			Search:   q.Get("search"),
			Category: q.Get("category"),
			Status:   q.Get("status"),
		}
		page, pageSize := parsePagination(r)

		docs, err := svc.List(ctx, filter)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		p := paginate(docs, page, pageSize)
		writeJSON(w, http.StatusOK, domain.DocumentListResponse{
			Documents: p.Data,
			Total:     p.Total,
			Page:      p.Page,
			PageSize:  p.PageSize,
			HasMore:   p.HasMore,
		})
	}
}

func getDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "GET /v1/documents/{id}")
		defer span.End()

		doc, err := svc.Get(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func approveDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "POST /v1/documents/{id}/approve")
		defer span.End()

		doc, err := svc.Approve(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func retryDocumentHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "POST /v1/documents/{id}/retry")
		defer span.End()

		doc, err := svc.Retry(ctx, chi.URLParam(r, "id"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func documentStatsHandler(svc *service.DocumentService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := documentsTracer.Start(r.Context(), "GET /v1/documents/stats")
		defer span.End()

		stats, err := svc.Stats(ctx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}
