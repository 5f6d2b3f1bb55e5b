package alerts

import (
	"context"
	"sync"
)

// MemoryStore keeps alerts and alert configs in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	alerts  []*Alert
	configs []*AlertConfig
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) CreateAlert(_ context.Context, a *Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.alerts = append(m.alerts, &cp)
	return nil
}

func (m *MemoryStore) ListAlerts(_ context.Context, userID string, f AlertFilter) ([]*Alert, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*Alert
	for i := len(m.alerts) - 1; i >= 0; i-- {
		a := m.alerts[i]
		if a.UserID != userID || (f.IsRead != nil && a.IsRead != *f.IsRead) {
			continue
		}
		cp := *a
		out = append(out, &cp)
		if f.Limit > 0 && len(out) == f.Limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) MarkRead(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.alerts {
		if a.ID == id && a.UserID == userID {
			a.IsRead = true
			return nil
		}
	}
	return ErrAlertNotFound
}

func (m *MemoryStore) MarkAllRead(_ context.Context, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.alerts {
		if a.UserID == userID && !a.IsRead {
			a.IsRead = true
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CreateConfig(_ context.Context, c *AlertConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.configs = append(m.configs, copyConfig(c))
	return nil
}

func (m *MemoryStore) ListConfigs(_ context.Context, userID string, limit int) ([]*AlertConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*AlertConfig
	for _, c := range m.configs {
		if c.UserID != userID {
			continue
		}
		out = append(out, copyConfig(c))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MemoryStore) ListActiveConfigs(_ context.Context, organizationID string) ([]*AlertConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*AlertConfig
	for _, c := range m.configs {
		if c.OrganizationID == organizationID && c.IsActive && c.NotificationDashboard {
			out = append(out, copyConfig(c))
		}
	}
	return out, nil
}

func copyConfig(c *AlertConfig) *AlertConfig {
	cp := *c
	cp.SeverityLevels = append([]string{}, c.SeverityLevels...)
	cp.Categories = append([]string{}, c.Categories...)
	return &cp
}
