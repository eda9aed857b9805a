package consent

import (
	"context"
	"sync"

	"ucm/internal/audit"
	"ucm/internal/consent/models"
	"ucm/internal/sentinel"
	"ucm/pkg/domain"
)

// InMemoryStore is a development and test implementation. It shares the
// in-memory audit store so the record and its audit event appear together,
// mirroring the transactional pairing of the PostgreSQL store.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[domain.ConsentID]*models.Record
	audit   *audit.InMemoryStore
}

func NewInMemoryStore(auditStore *audit.InMemoryStore) *InMemoryStore {
	return &InMemoryStore{
		records: make(map[domain.ConsentID]*models.Record),
		audit:   auditStore,
	}
}

func (s *InMemoryStore) Save(ctx context.Context, record *models.Record, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	stored := *record
	stored.Choices = make([]models.Choice, len(record.Choices))
	copy(stored.Choices, record.Choices)
	s.records[record.ID] = &stored
	return s.audit.Append(ctx, event)
}

func (s *InMemoryStore) Get(ctx context.Context, id domain.ConsentID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[id]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := *record
	out.Choices = make([]models.Choice, len(record.Choices))
	copy(out.Choices, record.Choices)
	return &out, nil
}
