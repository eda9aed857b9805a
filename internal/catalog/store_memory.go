package catalog

import (
	"context"
	"sync"

	"ucm/internal/sentinel"
)

// InMemoryVendorStore keeps the vendor table in process memory.
type InMemoryVendorStore struct {
	mu      sync.RWMutex
	vendors map[string]Vendor
	order   []string
}

func NewInMemoryVendorStore() *InMemoryVendorStore {
	return &InMemoryVendorStore{vendors: make(map[string]Vendor)}
}

func (s *InMemoryVendorStore) List(_ context.Context) ([]Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vendors := make([]Vendor, 0, len(s.order))
	for _, id := range s.order {
		vendors = append(vendors, s.vendors[id])
	}
	return vendors, nil
}

func (s *InMemoryVendorStore) Create(_ context.Context, vendor Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := vendor.ID.String()
	if _, exists := s.vendors[key]; exists {
		return sentinel.ErrConflict
	}
	s.vendors[key] = vendor
	s.order = append(s.order, key)
	return nil
}

func (s *InMemoryVendorStore) Update(_ context.Context, vendor Vendor) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := vendor.ID.String()
	if _, exists := s.vendors[key]; !exists {
		return sentinel.ErrNotFound
	}
	s.vendors[key] = vendor
	return nil
}

// Seed installs the default vendor rows when the store is empty, mirroring
// the classification feed's bootstrap payload.
func (s *InMemoryVendorStore) Seed(ctx context.Context) error {
	s.mu.RLock()
	empty := len(s.vendors) == 0
	s.mu.RUnlock()
	if !empty {
		return nil
	}
	for _, vendor := range SeedVendors() {
		if err := s.Create(ctx, vendor); err != nil {
			return err
		}
	}
	return nil
}

// SeedVendors returns the bootstrap vendor table.
func SeedVendors() []Vendor {
	return []Vendor{
		{
			ID:        "00000000-0000-4000-a000-000000000111",
			Name:      "Google Analytics",
			Domain:    "google-analytics.com",
			Purposes:  []string{PurposeAnalytics},
			RiskScore: 0.2,
		},
		{
			ID:        "00000000-0000-4000-a000-000000000222",
			Name:      "Meta Pixel",
			Domain:    "facebook.com",
			Purposes:  []string{PurposeAds},
			RiskScore: 0.6,
		},
	}
}
