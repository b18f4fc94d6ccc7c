package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/resilience"
)

// supabaseObligation maps the obrigacoes table columns.
type supabaseObligation struct {
	ID             string   `json:"id"`
	ClientID       string   `json:"cliente_id"`
	ClientName     string   `json:"cliente_nome"`
	Type           string   `json:"tipo"`
	Description    string   `json:"descricao"`
	ReferenceMonth string   `json:"mes_referencia"`
	DueDate        string   `json:"data_vencimento"`
	Amount         *float64 `json:"valor"`
	Status         string   `json:"status"`
	CompletedAt    *string  `json:"concluida_em"`
	Notes          string   `json:"observacoes"`
	CreatedAt      string   `json:"criado_em"`
}

func (r *supabaseObligation) toDomain() domain.Obligation {
	o := domain.Obligation{
		ID:             r.ID,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
		Type:           r.Type,
		Description:    r.Description,
		ReferenceMonth: r.ReferenceMonth,
		DueDate:        r.DueDate,
		Status:         domain.ObligationStatus(r.Status),
		Notes:          r.Notes,
		CreatedAt:      parseTimestamp(r.CreatedAt),
	}
	if r.Amount != nil {
		v := decimal.NewFromFloat(*r.Amount)
		o.Amount = &v
	}
	if r.CompletedAt != nil {
		t := parseTimestamp(*r.CompletedAt)
		o.CompletedAt = &t
	}
	return o
}

func obligationRow(o *domain.Obligation) map[string]any {
	row := map[string]any{
		"id":              o.ID,
		"cliente_id":      o.ClientID,
		"cliente_nome":    o.ClientName,
		"tipo":            o.Type,
		"descricao":       o.Description,
		"mes_referencia":  o.ReferenceMonth,
		"data_vencimento": o.DueDate,
		"status":          string(o.Status),
		"observacoes":     o.Notes,
		"criado_em":       o.CreatedAt.Format(time.RFC3339),
	}
	if o.Amount != nil {
		row["valor"], _ = o.Amount.Float64()
	} else {
		row["valor"] = nil
	}
	if o.CompletedAt != nil {
		row["concluida_em"] = o.CompletedAt.Format(time.RFC3339)
	} else {
		row["concluida_em"] = nil
	}
	return row
}

// CreateObligation inserts an obligation row.
func (c *Client) CreateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateObligation")
	defer span.End()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doPost(ctx, "obrigacoes", obligationRow(o))
			return err
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/obligations", Err: err}
	}
	out := *o
	return &out, nil
}

// DeleteObligation removes an obligation row.
func (c *Client) DeleteObligation(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteObligation")
	defer span.End()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("obrigacoes?id=eq.%s", url.QueryEscape(id))
			return c.doDelete(ctx, path)
		})
	})
	if err != nil {
		return &domain.ErrExternalService{Service: "supabase/obligations", Err: err}
	}
	return nil
}

// GetObligation fetches one obligation by ID.
func (c *Client) GetObligation(ctx context.Context, id string) (*domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetObligation")
	defer span.End()

	var obligation *domain.Obligation

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("obrigacoes?id=eq.%s&limit=1", url.QueryEscape(id))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "obligation", ID: id}
			}

			var rows []supabaseObligation
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode obligation: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "obligation", ID: id}
			}
			o := rows[0].toDomain()
			obligation = &o
			return nil
		})
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/obligations", Err: err}
	}
	return obligation, nil
}

// ListObligations fetches obligations due-date ascending.
func (c *Client) ListObligations(ctx context.Context, filter *domain.ObligationFilter) ([]domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListObligations")
	defer span.End()

	var items []domain.Obligation

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := "obrigacoes?order=data_vencimento.asc"
			if filter != nil {
				if filter.ClientID != "" {
					path += "&cliente_id=eq." + url.QueryEscape(filter.ClientID)
				}
				if filter.Status != "" && filter.Status != "all" {
					path += "&status=eq." + url.QueryEscape(filter.Status)
				}
				if filter.ReferenceMonth != "" {
					path += "&mes_referencia=eq." + url.QueryEscape(filter.ReferenceMonth)
				}
				if filter.DueFrom != "" {
					path += "&data_vencimento=gte." + url.QueryEscape(filter.DueFrom)
				}
				if filter.DueTo != "" {
					path += "&data_vencimento=lte." + url.QueryEscape(filter.DueTo)
				}
			}
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				items = []domain.Obligation{}
				return nil
			}

			var rows []supabaseObligation
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode obligations: %w", err)
			}
			items = make([]domain.Obligation, 0, len(rows))
			for _, r := range rows {
				items = append(items, r.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/obligations", Err: err}
	}
	return items, nil
}

// UpdateObligation patches the mutable columns of an obligation row.
func (c *Client) UpdateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateObligation")
	defer span.End()

	updates := map[string]any{
		"tipo":            o.Type,
		"descricao":       o.Description,
		"mes_referencia":  o.ReferenceMonth,
		"data_vencimento": o.DueDate,
		"status":          string(o.Status),
		"observacoes":     o.Notes,
	}
	if o.Amount != nil {
		updates["valor"], _ = o.Amount.Float64()
	} else {
		updates["valor"] = nil
	}
	if o.CompletedAt != nil {
		updates["concluida_em"] = o.CompletedAt.Format(time.RFC3339)
	} else {
		updates["concluida_em"] = nil
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("obrigacoes?id=eq.%s", url.QueryEscape(o.ID))
			return c.doPatch(ctx, path, updates)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/obligations", Err: err}
	}
	out := *o
	return &out, nil
}
