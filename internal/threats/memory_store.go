package threats

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore keeps threats and incidents in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	threats   map[string]*Threat
	incidents []*Incident
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{threats: make(map[string]*Threat)}
}

func (m *MemoryStore) CreateThreat(_ context.Context, t *Threat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *t
	cp.IndustryTags = append([]string(nil), t.IndustryTags...)
	m.threats[t.ID] = &cp
	return nil
}

func (m *MemoryStore) GetThreat(_ context.Context, organizationID, id string) (*Threat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.threats[id]
	if !ok || t.OrganizationID != organizationID {
		return nil, ErrThreatNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MemoryStore) ListThreats(_ context.Context, organizationID string, f ThreatFilter) ([]*Threat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Threat
	for _, t := range m.threats {
		if t.OrganizationID != organizationID ||
			(f.Status != "" && t.Status != f.Status) ||
			(f.Severity != "" && t.Severity != f.Severity) ||
			(f.Category != "" && t.Category != f.Category) {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DetectedAt.After(out[j].DetectedAt) })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *MemoryStore) UpdateThreatStatus(_ context.Context, organizationID, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.threats[id]
	if !ok || t.OrganizationID != organizationID {
		return ErrThreatNotFound
	}
	t.Status = status
	return nil
}

func (m *MemoryStore) CountThreats(_ context.Context, organizationID, status, severity string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, t := range m.threats {
		if t.OrganizationID == organizationID &&
			(status == "" || t.Status == status) &&
			(severity == "" || t.Severity == severity) {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateIncident(_ context.Context, inc *Incident) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inc
	m.incidents = append(m.incidents, &cp)
	return nil
}

func (m *MemoryStore) ListIncidents(_ context.Context, organizationID string, f IncidentFilter) ([]*Incident, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Incident
	for i := len(m.incidents) - 1; i >= 0; i-- {
		inc := m.incidents[i]
		if inc.OrganizationID != organizationID || (f.Automated != nil && inc.IsAutomated != *f.Automated) {
			continue
		}
		cp := *inc
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) CountIncidents(_ context.Context, organizationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, inc := range m.incidents {
		if inc.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountByCategory(_ context.Context, organizationID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, t := range m.threats {
		if t.OrganizationID == organizationID {
			counts[t.Category]++
		}
	}
	return counts, nil
}

func (m *MemoryStore) CountAutomatedIncidentsSince(_ context.Context, organizationID string, since time.Time) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, inc := range m.incidents {
		if inc.OrganizationID == organizationID && inc.IsAutomated && !inc.ExecutedAt.Before(since) {
			n++
		}
	}
	return n, nil
}
