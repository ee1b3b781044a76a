package catalog

import (
	"context"
	"sort"
	"sync"
)

type MemStore struct {
	mu sync.RWMutex
	m  map[string]Product
}

func NewMemStore(seed ...Product) *MemStore {
	if len(seed) == 0 {
		seed = DemoProducts()
	}
	s := &MemStore{m: make(map[string]Product, len(seed))}
	for _, p := range seed {
		s.m[p.ID] = p
	}
	return s
}

// DemoProducts is the fixed assortment served when no database is configured.
func DemoProducts() []Product {
	return []Product{
		{ID: "p1", Title: "Laptop", PriceCents: 4560000, Description: "14-inch ultrabook, 16 GB RAM, 512 GB SSD"},
		{ID: "p2", Title: "Keyboard", PriceCents: 4990, Description: "Mechanical keyboard, brown switches"},
		{ID: "p3", Title: "Mouse", PriceCents: 1990, Description: "Wireless optical mouse"},
	}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) ListSortedByID(ctx context.Context) ([]Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Product, 0, len(s.m))
	for _, p := range s.m {
		out = append(out, p)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id string) (Product, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.m[id]
	return p, ok, nil
}
