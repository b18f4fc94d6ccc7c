package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// ObligationStore is a mutex-protected in-memory obligation collection.
type ObligationStore struct {
	mu    sync.RWMutex
	items map[string]domain.Obligation
}

// NewObligationStore creates an empty in-memory obligation store.
func NewObligationStore() *ObligationStore {
	return &ObligationStore{items: make(map[string]domain.Obligation)}
}

func (s *ObligationStore) CreateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *o
	s.items[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *ObligationStore) GetObligation(ctx context.Context, id string) (*domain.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.items[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "obligation", ID: id}
	}
	out := o
	return &out, nil
}

func (s *ObligationStore) ListObligations(ctx context.Context, filter *domain.ObligationFilter) ([]domain.Obligation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Obligation, 0, len(s.items))
	for _, o := range s.items {
		if !matchesObligation(&o, filter) {
			continue
		}
		out = append(out, o)
	}
	// Due date ascending, so the most urgent comes first.
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *ObligationStore) UpdateObligation(ctx context.Context, o *domain.Obligation) (*domain.Obligation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[o.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "obligation", ID: o.ID}
	}
	stored := *o
	s.items[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *ObligationStore) DeleteObligation(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return &domain.ErrNotFound{Resource: "obligation", ID: id}
	}
	delete(s.items, id)
	return nil
}

func matchesObligation(o *domain.Obligation, filter *domain.ObligationFilter) bool {
	if filter == nil {
		return true
	}
	if filter.ClientID != "" && o.ClientID != filter.ClientID {
		return false
	}
	if filter.Status != "" && filter.Status != "all" && string(o.Status) != filter.Status {
		return false
	}
	if filter.ReferenceMonth != "" && o.ReferenceMonth != filter.ReferenceMonth {
		return false
	}
	if filter.DueFrom != "" && o.DueDate < filter.DueFrom {
		return false
	}
	if filter.DueTo != "" && o.DueDate > filter.DueTo {
		return false
	}
	return true
}
