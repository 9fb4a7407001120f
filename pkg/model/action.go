package model

import (
	"encoding/json"
	"time"
)

// ActionMetadata identifies the sender of a forwarded action.
type ActionMetadata struct {
	Source   string `json:"source"`
	Platform string `json:"platform"`
	Version  string `json:"version"`
}

// ActionEnvelope wraps a caller payload before it is posted to the relay.
type ActionEnvelope struct {
	EventType string          `json:"event_type"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Metadata  ActionMetadata  `json:"metadata"`
	Payload   json.RawMessage `json:"payload"`
}

// Journal statuses for forwarded actions.
const (
	ActionForwarded = "forwarded"
	ActionError     = "error"
	ActionFailed    = "failed"
)

// ActionRecord is one journal row per forward attempt.
type ActionRecord struct {
	ID         string    `json:"id"`
	EnvelopeID string    `json:"envelopeId"`
	EventType  string    `json:"eventType"`
	Status     string    `json:"status"`
	Code       int       `json:"code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}
