package compliance

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps compliance state in process memory.
type MemoryStore struct {
	mu        sync.RWMutex
	controls  map[string]map[string]*Control // user id -> control_id -> control
	audits    []*Audit
	documents map[string]*Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		controls:  make(map[string]map[string]*Control),
		documents: make(map[string]*Document),
	}
}

func copyControl(c *Control) *Control {
	cp := *c
	if c.ImplementedAt != nil {
		t := *c.ImplementedAt
		cp.ImplementedAt = &t
	}
	if c.VerifiedAt != nil {
		t := *c.VerifiedAt
		cp.VerifiedAt = &t
	}
	return &cp
}

func (m *MemoryStore) ListControls(_ context.Context, userID string) ([]*Control, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Control, 0, len(m.controls[userID]))
	for _, c := range m.controls[userID] {
		out = append(out, copyControl(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControlID < out[j].ControlID })
	return out, nil
}

func (m *MemoryStore) UpsertControl(_ context.Context, c *Control) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byID, ok := m.controls[c.UserID]
	if !ok {
		byID = make(map[string]*Control)
		m.controls[c.UserID] = byID
	}
	if _, exists := byID[c.ControlID]; !exists {
		byID[c.ControlID] = copyControl(c)
	}
	return nil
}

func (m *MemoryStore) GetControl(_ context.Context, userID, controlID string) (*Control, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.controls[userID][controlID]
	if !ok {
		return nil, ErrControlNotFound
	}
	return copyControl(c), nil
}

func (m *MemoryStore) UpdateControl(_ context.Context, c *Control) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.controls[c.UserID][c.ControlID]; !ok {
		return ErrControlNotFound
	}
	m.controls[c.UserID][c.ControlID] = copyControl(c)
	return nil
}

func (m *MemoryStore) CreateAudit(_ context.Context, a *Audit) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *a
	m.audits = append(m.audits, &cp)
	return nil
}

func (m *MemoryStore) ListAudits(_ context.Context, organizationID string, limit int) ([]*Audit, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Audit
	// newest insert first so equal timestamps keep the later audit on top
	for i := len(m.audits) - 1; i >= 0; i-- {
		if a := m.audits[i]; a.OrganizationID == organizationID {
			cp := *a
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) CreateDocument(_ context.Context, d *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	cp.Tags = append([]string(nil), d.Tags...)
	m.documents[d.ID] = &cp
	return nil
}

func (m *MemoryStore) GetDocument(_ context.Context, organizationID, id string) (*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.documents[id]
	if !ok || d.OrganizationID != organizationID {
		return nil, ErrDocumentNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryStore) ListDocuments(_ context.Context, organizationID string) ([]*Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Document
	for _, d := range m.documents {
		if d.OrganizationID == organizationID {
			cp := *d
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *MemoryStore) DeleteDocument(_ context.Context, organizationID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.documents[id]
	if !ok || d.OrganizationID != organizationID {
		return ErrDocumentNotFound
	}
	delete(m.documents, id)
	return nil
}

func (m *MemoryStore) CountDocuments(_ context.Context, organizationID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, d := range m.documents {
		if d.OrganizationID == organizationID {
			n++
		}
	}
	return n, nil
}
