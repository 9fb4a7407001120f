//go:build consul

package store

import (
	"go.uber.org/zap"

	"watson-dash/pkg/consul"
)

// NewConsulStore creates a Consul KV journal (requires build tag consul).
func NewConsulStore(addr string, _ *zap.Logger) (ActionStore, error) {
	return consul.NewStore(addr)
}
