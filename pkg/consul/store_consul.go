//go:build consul

package consul

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"watson-dash/pkg/model"
)

const (
	actionPrefix = "watson-dash/actions/"
	auditPrefix  = "watson-dash/audit/"
)

// Store keeps the action journal in Consul KV. Keys embed the nanosecond
// timestamp so a prefix listing is already in insertion order.
type Store struct {
	cli *consulapi.Client
}

func NewStore(addr string) (*Store, error) {
	cfg := consulapi.DefaultConfig()
	if addr != "" {
		cfg.Address = addr
	}
	cli, err := consulapi.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("consul client: %w", err)
	}
	return &Store{cli: cli}, nil
}

func (s *Store) RecordAction(rec model.ActionRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%020d-%s", actionPrefix, rec.CreatedAt.UnixNano(), rec.ID)
	_, err = s.cli.KV().Put(&consulapi.KVPair{Key: key, Value: b}, nil)
	return err
}

func (s *Store) ListActions(limit int) ([]model.ActionRecord, error) {
	pairs, err := s.list(actionPrefix)
	if err != nil {
		return nil, err
	}
	out := []model.ActionRecord{}
	for _, p := range pairs {
		var rec model.ActionRecord
		if err := json.Unmarshal(p.Value, &rec); err == nil {
			out = append(out, rec)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) AppendAudit(entry model.AuditEntry) error {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	b, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("%s%020d-%s", auditPrefix, entry.Timestamp.UnixNano(), entry.Action)
	_, err = s.cli.KV().Put(&consulapi.KVPair{Key: key, Value: b}, nil)
	return err
}

func (s *Store) ListAudit(limit int) ([]model.AuditEntry, error) {
	pairs, err := s.list(auditPrefix)
	if err != nil {
		return nil, err
	}
	out := []model.AuditEntry{}
	for _, p := range pairs {
		var e model.AuditEntry
		if err := json.Unmarshal(p.Value, &e); err == nil {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (s *Store) list(prefix string) (consulapi.KVPairs, error) {
	pairs, _, err := s.cli.KV().List(prefix, nil)
	if err != nil {
		return nil, fmt.Errorf("consul list %s: %w", prefix, err)
	}
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Key < pairs[j].Key })
	return pairs, nil
}

// Close is a no-op; the Consul client holds no long-lived connection.
func (s *Store) Close() error { return nil }
