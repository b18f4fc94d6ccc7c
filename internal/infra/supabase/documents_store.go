package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/resilience"
)

// supabaseDocument maps the documentos table columns, which keep the
// Portuguese names of the original schema. Optional columns decode
// tolerantly: a row missing cliente_nome or resumo_ia is still valid.
type supabaseDocument struct {
	ID             string   `json:"id"`
	ClientID       string   `json:"cliente_id"`
	ClientName     string   `json:"cliente_nome"`
	FileName       string   `json:"nome_arquivo"`
	FileType       string   `json:"tipo_documento"`
	Category       string   `json:"categoria"`
	FileSizeBytes  int64    `json:"tamanho_arquivo"`
	ReferenceMonth string   `json:"mes_referencia"`
	Summary        string   `json:"resumo_ia"`
	KeyPoints      string   `json:"pontos_importantes"`
	ExtractedValue *float64 `json:"valor_extraido"`
	ExtractedDate  string   `json:"data_extraida"`
	Status         string   `json:"status_processamento"`
	UploadedAt     string   `json:"data_upload"`
	ProcessedAt    *string  `json:"data_processamento"`
}

func (r *supabaseDocument) toDomain() domain.Document {
	doc := domain.Document{
		ID:             r.ID,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
		FileName:       r.FileName,
		FileType:       r.FileType,
		Category:       r.Category,
		FileSizeBytes:  r.FileSizeBytes,
		ReferenceMonth: r.ReferenceMonth,
		Summary:        r.Summary,
		KeyPoints:      r.KeyPoints,
		ExtractedDate:  r.ExtractedDate,
		Status:         domain.DocumentStatus(r.Status),
	}
	if r.ExtractedValue != nil {
		v := decimal.NewFromFloat(*r.ExtractedValue)
		doc.ExtractedValue = &v
	}
	doc.UploadedAt = parseTimestamp(r.UploadedAt)
	if r.ProcessedAt != nil {
		t := parseTimestamp(*r.ProcessedAt)
		doc.ProcessedAt = &t
	}
	return doc
}

func documentRow(doc *domain.Document) map[string]any {
	row := map[string]any{
		"id":                   doc.ID,
		"cliente_id":           doc.ClientID,
		"cliente_nome":         doc.ClientName,
		"nome_arquivo":         doc.FileName,
		"tipo_documento":       doc.FileType,
		"categoria":            doc.Category,
		"tamanho_arquivo":      doc.FileSizeBytes,
		"mes_referencia":       doc.ReferenceMonth,
		"resumo_ia":            doc.Summary,
		"pontos_importantes":   doc.KeyPoints,
		"data_extraida":        doc.ExtractedDate,
		"status_processamento": string(doc.Status),
		"data_upload":          doc.UploadedAt.Format(time.RFC3339),
	}
	if doc.ExtractedValue != nil {
		row["valor_extraido"], _ = doc.ExtractedValue.Float64()
	} else {
		row["valor_extraido"] = nil
	}
	if doc.ProcessedAt != nil {
		row["data_processamento"] = doc.ProcessedAt.Format(time.RFC3339)
	} else {
		row["data_processamento"] = nil
	}
	return row
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// CreateDocument inserts a document row.
func (c *Client) CreateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", doc.ID))

	var created *domain.Document

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doPost(ctx, "documentos", documentRow(doc))
			if err != nil {
				return err
			}

			var rows []supabaseDocument
			if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
				// PostgREST returned the row in an unexpected shape;
				// fall back to what we sent.
				out := *doc
				created = &out
				return nil
			}
			d := rows[0].toDomain()
			created = &d
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/documents", Err: err}
	}
	return created, nil
}

// GetDocument fetches one document by ID.
func (c *Client) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetDocument")
	defer span.End()

	var doc *domain.Document

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("documentos?id=eq.%s&limit=1", url.QueryEscape(id))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "document", ID: id}
			}

			var rows []supabaseDocument
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode document: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "document", ID: id}
			}
			d := rows[0].toDomain()
			doc = &d
			return nil
		})
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/documents", Err: err}
	}
	return doc, nil
}

// ListDocuments fetches documents newest-first. The status filter is
// applied client-side so the "pending includes pending_review" rule
// stays in one place.
func (c *Client) ListDocuments(ctx context.Context, filter *domain.DocumentFilter) ([]domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListDocuments")
	defer span.End()

	var docs []domain.Document

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := "documentos?order=data_upload.desc&limit=500"
			if filter != nil && filter.Category != "" && filter.Category != "all" {
				path += "&categoria=eq." + url.QueryEscape(filter.Category)
			}
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				docs = []domain.Document{}
				return nil
			}

			var rows []supabaseDocument
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode documents: %w", err)
			}

			docs = make([]domain.Document, 0, len(rows))
			for _, r := range rows {
				d := r.toDomain()
				if filter != nil && !filter.MatchesStatus(d.Status) {
					continue
				}
				docs = append(docs, d)
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/documents", Err: err}
	}
	return docs, nil
}

// UpdateDocument patches the mutable columns of a document row.
func (c *Client) UpdateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateDocument")
	defer span.End()
	span.SetAttributes(attribute.String("document.id", doc.ID))

	updates := map[string]any{
		"resumo_ia":            doc.Summary,
		"pontos_importantes":   doc.KeyPoints,
		"data_extraida":        doc.ExtractedDate,
		"status_processamento": string(doc.Status),
	}
	if doc.ExtractedValue != nil {
		updates["valor_extraido"], _ = doc.ExtractedValue.Float64()
	} else {
		updates["valor_extraido"] = nil
	}
	if doc.ProcessedAt != nil {
		updates["data_processamento"] = doc.ProcessedAt.Format(time.RFC3339)
	} else {
		updates["data_processamento"] = nil
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("documentos?id=eq.%s", url.QueryEscape(doc.ID))
			return c.doPatch(ctx, path, updates)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/documents", Err: err}
	}

	out := *doc
	return &out, nil
}

// CountByStatus aggregates document counts per status.
func (c *Client) CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountDocumentsByStatus")
	defer span.End()

	counts := make(map[domain.DocumentStatus]int)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := c.doGet(ctx, "documentos?select=status_processamento")
			if err != nil {
				return err
			}
			if body == nil {
				return nil
			}

			var rows []struct {
				Status string `json:"status_processamento"`
			}
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode status counts: %w", err)
			}
			for _, r := range rows {
				counts[domain.DocumentStatus(r.Status)]++
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/documents", Err: err}
	}
	return counts, nil
}
