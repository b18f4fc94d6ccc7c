package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// ClientStore is a mutex-protected in-memory client registry.
type ClientStore struct {
	mu      sync.RWMutex
	clients map[string]domain.Client
}

// NewClientStore creates an empty in-memory client store.
func NewClientStore() *ClientStore {
	return &ClientStore{clients: make(map[string]domain.Client)}
}

func (s *ClientStore) CreateClient(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *c
	s.clients[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *ClientStore) GetClient(ctx context.Context, id string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.clients[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: id}
	}
	out := c
	return &out, nil
}

func (s *ClientStore) GetClientByCNPJ(ctx context.Context, cnpj string) (*domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, c := range s.clients {
		if c.CNPJ == cnpj {
			out := c
			return &out, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "client", ID: cnpj}
}

func (s *ClientStore) ListClients(ctx context.Context, activeOnly bool) ([]domain.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Client, 0, len(s.clients))
	for _, c := range s.clients {
		if activeOnly && !c.Active {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *ClientStore) ListClientRefs(ctx context.Context) ([]domain.ClientRef, error) {
	clients, err := s.ListClients(ctx, true)
	if err != nil {
		return nil, err
	}
	refs := make([]domain.ClientRef, 0, len(clients))
	for _, c := range clients {
		refs = append(refs, domain.ClientRef{ID: c.ID, Name: c.Name})
	}
	return refs, nil
}

func (s *ClientStore) UpdateClient(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[c.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "client", ID: c.ID}
	}
	stored := *c
	s.clients[stored.ID] = stored
	out := stored
	return &out, nil
}
