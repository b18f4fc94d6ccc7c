package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// FeeStore is a mutex-protected in-memory fee collection.
type FeeStore struct {
	mu    sync.RWMutex
	items map[string]domain.MonthlyFee
}

// NewFeeStore creates an empty in-memory fee store.
func NewFeeStore() *FeeStore {
	return &FeeStore{items: make(map[string]domain.MonthlyFee)}
}

func (s *FeeStore) CreateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *f
	s.items[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *FeeStore) GetFee(ctx context.Context, id string) (*domain.MonthlyFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, ok := s.items[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "fee", ID: id}
	}
	out := f
	return &out, nil
}

func (s *FeeStore) ListFees(ctx context.Context, filter *domain.FeeFilter) ([]domain.MonthlyFee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.MonthlyFee, 0, len(s.items))
	for _, f := range s.items {
		if filter != nil {
			if filter.ClientID != "" && f.ClientID != filter.ClientID {
				continue
			}
			if filter.Status != "" && filter.Status != "all" && string(f.Status) != filter.Status {
				continue
			}
			if filter.ReferenceMonth != "" && f.ReferenceMonth != filter.ReferenceMonth {
				continue
			}
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueDate != out[j].DueDate {
			return out[i].DueDate < out[j].DueDate
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *FeeStore) UpdateFee(ctx context.Context, f *domain.MonthlyFee) (*domain.MonthlyFee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[f.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "fee", ID: f.ID}
	}
	stored := *f
	s.items[stored.ID] = stored
	out := stored
	return &out, nil
}
