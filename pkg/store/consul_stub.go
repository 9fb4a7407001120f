//go:build !consul

package store

import "go.uber.org/zap"

// NewConsulStore returns a memory store when the consul build tag is not enabled.
func NewConsulStore(addr string, log *zap.Logger) (ActionStore, error) {
	if log != nil {
		log.Warn("consul store requested but consul build tag not enabled; using memory store", zap.String("addr", addr))
	}
	return NewMemoryStore(), nil
}
