package store

import (
	"fmt"

	"go.uber.org/zap"

	"watson-dash/pkg/model"
)

// ActionStore journals forward attempts and operator audit events.
// List calls return entries oldest first, keeping at most the last limit.
type ActionStore interface {
	RecordAction(model.ActionRecord) error
	ListActions(limit int) ([]model.ActionRecord, error)
	AppendAudit(model.AuditEntry) error
	ListAudit(limit int) ([]model.AuditEntry, error)
	Close() error
}

// Open builds the backend named by kind: memory, sqlite, or consul.
func Open(kind, sqlitePath, consulAddr string, log *zap.Logger) (ActionStore, error) {
	switch kind {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(sqlitePath)
	case "consul":
		return NewConsulStore(consulAddr, log)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func tail[T any](items []T, limit int) []T {
	if limit > 0 && len(items) > limit {
		items = items[len(items)-limit:]
	}
	out := make([]T, len(items))
	copy(out, items)
	return out
}
