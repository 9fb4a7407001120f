package store

import (
	"sync"
	"time"

	"watson-dash/pkg/model"
)

// maxMemoryEntries bounds each in-memory list; older entries are dropped.
const maxMemoryEntries = 1000

// MemoryStore is the default journal. Entries are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	actions []model.ActionRecord
	audit   []model.AuditEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) RecordAction(rec model.ActionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, rec)
	if len(m.actions) > maxMemoryEntries {
		m.actions = m.actions[len(m.actions)-maxMemoryEntries:]
	}
	return nil
}

func (m *MemoryStore) ListActions(limit int) ([]model.ActionRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tail(m.actions, limit), nil
}

func (m *MemoryStore) AppendAudit(entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, entry)
	if len(m.audit) > maxMemoryEntries {
		m.audit = m.audit[len(m.audit)-maxMemoryEntries:]
	}
	return nil
}

func (m *MemoryStore) ListAudit(limit int) ([]model.AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return tail(m.audit, limit), nil
}

func (m *MemoryStore) Close() error { return nil }
