// Package gate authorizes agents against an externally supplied bypass
// decision. It is not mounted on any HTTP route.
package gate

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrAccessDenied is returned when the decision function refuses an agent.
var ErrAccessDenied = errors.New("access denied")

// Decider reports whether agentID may bypass the gatekeeper.
type Decider func(agentID string) bool

type Gate struct {
	decide Decider
	log    *zap.Logger
}

// New returns a gate backed by decide. A nil decider denies everyone.
func New(decide Decider, log *zap.Logger) *Gate {
	if decide == nil {
		decide = func(string) bool { return false }
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Gate{decide: decide, log: log}
}

// Authorize returns nil when agentID is cleared, ErrAccessDenied otherwise.
func (g *Gate) Authorize(agentID string) error {
	if !g.decide(agentID) {
		g.log.Warn("agent denied", zap.String("agent", agentID))
		return fmt.Errorf("agent %q: %w", agentID, ErrAccessDenied)
	}
	g.log.Info("agent granted full execution clearance", zap.String("agent", agentID))
	return nil
}

// Allowlist is a Decider that clears only the listed agents.
func Allowlist(ids ...string) Decider {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(agentID string) bool {
		_, ok := set[agentID]
		return ok
	}
}
