package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps audit events in process memory. Used in development
// and as the sink for unit tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) Query(_ context.Context, filter Filter) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.EffectiveLimit()
	results := make([]Event, 0, limit)
	// Events are appended in arrival order; walk backwards for newest-first.
	for i := len(s.events) - 1; i >= 0 && len(results) < limit; i-- {
		if filter.Matches(s.events[i]) {
			results = append(results, s.events[i])
		}
	}
	return results, nil
}

// Clear resets the store. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
