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

// supabaseFee maps the honorarios table columns.
type supabaseFee struct {
	ID             string  `json:"id"`
	ClientID       string  `json:"cliente_id"`
	ClientName     string  `json:"cliente_nome"`
	ReferenceMonth string  `json:"mes_referencia"`
	Amount         float64 `json:"valor"`
	DueDate        string  `json:"data_vencimento"`
	Status         string  `json:"status"`
	PaidAt         *string `json:"pago_em"`
	CreatedAt      string  `json:"criado_em"`
}

func (r *supabaseFee) toDomain() domain.MonthlyFee {
	f := domain.MonthlyFee{
		ID:             r.ID,
		ClientID:       r.ClientID,
		ClientName:     r.ClientName,
		ReferenceMonth: r.ReferenceMonth,
		Amount:         decimal.NewFromFloat(r.Amount),
		DueDate:        r.DueDate,
		Status:         domain.FeeStatus(r.Status),
		CreatedAt:      parseTimestamp(r.CreatedAt),
	}
	if r.PaidAt != nil {
		t := parseTimestamp(*r.PaidAt)
		f.PaidAt = &t
	}
	return f
}

func feeRow(f *domain.MonthlyFee) map[string]any {
	amount, _ := f.Amount.Float64()
	row := map[string]any{
		"id":              f.ID,
		"cliente_id":      f.ClientID,
		"cliente_nome":    f.ClientName,
		"mes_referencia":  f.ReferenceMonth,
		"valor":           amount,
		"data_vencimento": f.DueDate,
		"status":          string(f.Status),
		"criado_em":       f.CreatedAt.Format(time.RFC3339),
	}
	if f.PaidAt != nil {
		row["pago_em"] = f.PaidAt.Format(time.RFC3339)
	} else {
		row["pago_em"] = nil
	}
	return row
}

// CreateFee inserts a fee row.
func (c *Client) CreateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFee")
	defer span.End()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doPost(ctx, "honorarios", feeRow(f))
			return err
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/fees", Err: err}
	}
	out := *f
	return &out, nil
}

// GetFee fetches one fee by ID.
func (c *Client) GetFee(ctx context.Context, id string) (*domain.MonthlyFee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetFee")
	defer span.End()

	var fee *domain.MonthlyFee

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("honorarios?id=eq.%s&limit=1", url.QueryEscape(id))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "fee", ID: id}
			}

			var rows []supabaseFee
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode fee: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "fee", ID: id}
			}
			f := rows[0].toDomain()
			fee = &f
			return nil
		})
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/fees", Err: err}
	}
	return fee, nil
}

// ListFees fetches fees due-date ascending.
func (c *Client) ListFees(ctx context.Context, filter *domain.FeeFilter) ([]domain.MonthlyFee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFees")
	defer span.End()

	var items []domain.MonthlyFee

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := "honorarios?order=data_vencimento.asc"
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
			}
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				items = []domain.MonthlyFee{}
				return nil
			}

			var rows []supabaseFee
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode fees: %w", err)
			}
			items = make([]domain.MonthlyFee, 0, len(rows))
			for _, r := range rows {
				items = append(items, r.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/fees", Err: err}
	}
	return items, nil
}

// UpdateFee patches the mutable columns of a fee row.
func (c *Client) UpdateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateFee")
	defer span.End()

	updates := map[string]any{
		"status": string(f.Status),
	}
	if f.PaidAt != nil {
		updates["pago_em"] = f.PaidAt.Format(time.RFC3339)
	} else {
		updates["pago_em"] = nil
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("honorarios?id=eq.%s", url.QueryEscape(f.ID))
			return c.doPatch(ctx, path, updates)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/fees", Err: err}
	}
	out := *f
	return &out, nil
}
