package model

import "time"

// Status values reported for a dependency.
const (
	StatusConnected      = "connected"
	StatusDisconnected   = "disconnected"
	StatusOffline        = "offline"
	StatusError          = "error"
	StatusConfigured     = "configured"
	StatusRequiresConfig = "requires_config"
)

// FallbackLocalMode is reported when the relay cannot be reached.
const FallbackLocalMode = "local-mode"

// Dependency names used as snapshot keys.
const (
	DepGauge    = "gauge"
	DepGNIS     = "gnis"
	DepWatson   = "watson"
	DepExternal = "external"
)

// FailureInfo is the JSON form of a fault.Error.
type FailureInfo struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type FeedStatus struct {
	Status  string       `json:"status"`
	Records int          `json:"records"`
	Path    string       `json:"path,omitempty"`
	Error   *FailureInfo `json:"error,omitempty"`
}

type RelayStatus struct {
	Status   string       `json:"status"`
	URL      string       `json:"url,omitempty"`
	Code     int          `json:"code,omitempty"`
	Fallback string       `json:"fallback,omitempty"`
	Error    *FailureInfo `json:"error,omitempty"`
}

type AIStatus struct {
	Status     string `json:"status"`
	Credential string `json:"credential"`
}

type KeysStatus struct {
	Status string   `json:"status"`
	Count  int      `json:"count"`
	Keys   []string `json:"keys"`
}

// Snapshot is captured once at startup and served read-only afterwards.
type Snapshot struct {
	Platform        string      `json:"platform" yaml:"platform"`
	Version         string      `json:"version" yaml:"version"`
	Status          string      `json:"status" yaml:"status"`
	Timestamp       time.Time   `json:"timestamp" yaml:"timestamp"`
	Runtime         string      `json:"runtime" yaml:"runtime"`
	GaugeDataLoaded bool        `json:"gauge_data_loaded" yaml:"gauge_data_loaded"`
	Gauge           FeedStatus  `json:"gauge" yaml:"gauge"`
	GNIS            RelayStatus `json:"gnis" yaml:"gnis"`
	Watson          AIStatus    `json:"watson" yaml:"watson"`
	External        KeysStatus  `json:"external" yaml:"external"`
}
