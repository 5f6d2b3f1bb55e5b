package collaboration

import (
	"context"
	"slices"
	"sort"
	"sync"
)

// MemoryStore keeps shared intelligence in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	items []*SharedIntelligence
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Create(_ context.Context, s *SharedIntelligence) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, clone(s))
	return nil
}

func (m *MemoryStore) List(_ context.Context, f Filter) ([]*SharedIntelligence, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*SharedIntelligence
	for i := len(m.items) - 1; i >= 0; i-- {
		s := m.items[i]
		if f.Industry != "" && !slices.Contains(s.IndustryRelevance, f.Industry) {
			continue
		}
		out = append(out, clone(s))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) Upvote(_ context.Context, id string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.items {
		if s.ID == id {
			s.Upvotes++
			return s.Upvotes, nil
		}
	}
	return 0, ErrIntelligenceNotFound
}

func clone(s *SharedIntelligence) *SharedIntelligence {
	cp := *s
	cp.ThreatIndicators = append([]string{}, s.ThreatIndicators...)
	cp.IndustryRelevance = append([]string{}, s.IndustryRelevance...)
	return &cp
}
