package model

import "time"

// AuditEntry records an operator-visible event: a forward, a login, a registration.
type AuditEntry struct {
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Target    string    `json:"target"`
	Detail    string    `json:"detail,omitempty"`
	RemoteIP  string    `json:"remoteIp,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
