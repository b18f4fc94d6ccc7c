// Package memstore provides in-memory implementations of the storage
// ports. It backs local development and tests, and ships with seed data
// so the frontend has something to show on a fresh start.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/contafacil/escritorio-go/internal/domain"
)

// DocumentStore is a mutex-protected in-memory document collection.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]domain.Document
}

// NewDocumentStore creates an empty in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]domain.Document)}
}

func (s *DocumentStore) CreateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *doc
	s.docs[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *DocumentStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "document", ID: id}
	}
	out := doc
	return &out, nil
}

func (s *DocumentStore) ListDocuments(ctx context.Context, filter *domain.DocumentFilter) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, 0, len(s.docs))
	for _, doc := range s.docs {
		if !matchesDocument(&doc, filter) {
			continue
		}
		out = append(out, doc)
	}
	// Newest first; ties broken by ID for a stable order.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UploadedAt.Equal(out[j].UploadedAt) {
			return out[i].UploadedAt.After(out[j].UploadedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *DocumentStore) UpdateDocument(ctx context.Context, doc *domain.Document) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[doc.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "document", ID: doc.ID}
	}
	stored := *doc
	s.docs[stored.ID] = stored
	out := stored
	return &out, nil
}

func (s *DocumentStore) CountByStatus(ctx context.Context) (map[domain.DocumentStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.DocumentStatus]int)
	for _, doc := range s.docs {
		counts[doc.Status]++
	}
	return counts, nil
}

func matchesDocument(doc *domain.Document, filter *domain.DocumentFilter) bool {
	if filter == nil {
		return true
	}
	if !filter.MatchesStatus(doc.Status) {
		return false
	}
	switch filter.Category {
	case "", "all", "todas", "todos":
	default:
		if doc.Category != filter.Category {
			return false
		}
	}
	return filter.MatchesSearch(doc)
}
