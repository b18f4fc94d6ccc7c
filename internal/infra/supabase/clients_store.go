package supabase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/contafacil/escritorio-go/internal/domain"
	"github.com/contafacil/escritorio-go/internal/infra/resilience"
)

// supabaseClientRow maps the clientes table columns.
type supabaseClientRow struct {
	ID                  string `json:"id"`
	Name                string `json:"nome"`
	CNPJ                string `json:"cnpj"`
	TaxRegime           string `json:"regime_tributario"`
	LegalRepresentative string `json:"responsavel_legal"`
	Email               string `json:"email"`
	Phone               string `json:"telefone"`
	Address             string `json:"endereco"`
	Active              bool   `json:"ativo"`
	CreatedAt           string `json:"criado_em"`
	UpdatedAt           string `json:"atualizado_em"`
}

func (r *supabaseClientRow) toDomain() domain.Client {
	return domain.Client{
		ID:                  r.ID,
		Name:                r.Name,
		CNPJ:                r.CNPJ,
		TaxRegime:           r.TaxRegime,
		LegalRepresentative: r.LegalRepresentative,
		Email:               r.Email,
		Phone:               r.Phone,
		Address:             r.Address,
		Active:              r.Active,
		CreatedAt:           parseTimestamp(r.CreatedAt),
		UpdatedAt:           parseTimestamp(r.UpdatedAt),
	}
}

func clientRow(c *domain.Client) map[string]any {
	return map[string]any{
		"id":                c.ID,
		"nome":              c.Name,
		"cnpj":              c.CNPJ,
		"regime_tributario": c.TaxRegime,
		"responsavel_legal": c.LegalRepresentative,
		"email":             c.Email,
		"telefone":          c.Phone,
		"endereco":          c.Address,
		"ativo":             c.Active,
		"criado_em":         c.CreatedAt.Format(time.RFC3339),
		"atualizado_em":     c.UpdatedAt.Format(time.RFC3339),
	}
}

// CreateClient inserts a client row.
func (c *Client) CreateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateClient")
	defer span.End()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			_, err := c.doPost(ctx, "clientes", clientRow(client))
			return err
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clients", Err: err}
	}
	out := *client
	return &out, nil
}

// GetClient fetches one client by ID.
func (c *Client) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClient")
	defer span.End()

	return c.getClientBy(ctx, "id", id)
}

// GetClientByCNPJ fetches one client by CNPJ.
func (c *Client) GetClientByCNPJ(ctx context.Context, cnpj string) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetClientByCNPJ")
	defer span.End()

	return c.getClientBy(ctx, "cnpj", cnpj)
}

func (c *Client) getClientBy(ctx context.Context, column, value string) (*domain.Client, error) {
	var client *domain.Client

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("clientes?%s=eq.%s&limit=1", column, url.QueryEscape(value))
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				return &domain.ErrNotFound{Resource: "client", ID: value}
			}

			var rows []supabaseClientRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode client: %w", err)
			}
			if len(rows) == 0 {
				return &domain.ErrNotFound{Resource: "client", ID: value}
			}
			out := rows[0].toDomain()
			client = &out
			return nil
		})
	})
	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "supabase/clients", Err: err}
	}
	return client, nil
}

// ListClients fetches clients sorted by name.
func (c *Client) ListClients(ctx context.Context, activeOnly bool) ([]domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListClients")
	defer span.End()

	var clients []domain.Client

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := "clientes?order=nome.asc"
			if activeOnly {
				path += "&ativo=eq.true"
			}
			body, err := c.doGet(ctx, path)
			if err != nil {
				return err
			}
			if body == nil || string(body) == "[]" {
				clients = []domain.Client{}
				return nil
			}

			var rows []supabaseClientRow
			if err := json.Unmarshal(body, &rows); err != nil {
				return fmt.Errorf("failed to decode clients: %w", err)
			}
			clients = make([]domain.Client, 0, len(rows))
			for _, r := range rows {
				clients = append(clients, r.toDomain())
			}
			return nil
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clients", Err: err}
	}

	// Refresh the fallback reference list on every successful listing.
	refs := make([]domain.ClientRef, 0, len(clients))
	for _, cl := range clients {
		refs = append(refs, domain.ClientRef{ID: cl.ID, Name: cl.Name})
	}
	c.refsMu.Lock()
	c.cachedRefs = refs
	c.refsMu.Unlock()

	return clients, nil
}

// ListClientRefs returns the minimal (id, name) list for display-name
// resolution. When the backend is unreachable it serves the last known
// listing instead of failing the caller.
func (c *Client) ListClientRefs(ctx context.Context) ([]domain.ClientRef, error) {
	clients, err := c.ListClients(ctx, true)
	if err != nil {
		c.refsMu.RLock()
		cached := c.cachedRefs
		c.refsMu.RUnlock()
		if cached != nil {
			c.logger.Warn("client listing unavailable, serving cached refs",
				zap.Int("count", len(cached)), zap.Error(err))
			out := make([]domain.ClientRef, len(cached))
			copy(out, cached)
			return out, nil
		}
		return nil, err
	}

	refs := make([]domain.ClientRef, 0, len(clients))
	for _, cl := range clients {
		refs = append(refs, domain.ClientRef{ID: cl.ID, Name: cl.Name})
	}
	return refs, nil
}

// UpdateClient patches the mutable columns of a client row.
func (c *Client) UpdateClient(ctx context.Context, client *domain.Client) (*domain.Client, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateClient")
	defer span.End()

	updates := map[string]any{
		"nome":              client.Name,
		"cnpj":              client.CNPJ,
		"regime_tributario": client.TaxRegime,
		"responsavel_legal": client.LegalRepresentative,
		"email":             client.Email,
		"telefone":          client.Phone,
		"endereco":          client.Address,
		"ativo":             client.Active,
		"atualizado_em":     client.UpdatedAt.Format(time.RFC3339),
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			path := fmt.Sprintf("clientes?id=eq.%s", url.QueryEscape(client.ID))
			return c.doPatch(ctx, path, updates)
		})
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/clients", Err: err}
	}
	out := *client
	return &out, nil
}
