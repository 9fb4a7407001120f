package api

import (
	"net/http"

	"watson-dash/pkg/status"
)

// GaugeDataResponse is the body of /api/gauge-data.
type GaugeDataResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

func registerStatusRoutes(mux *http.ServeMux, agg *status.Aggregator) {
	snapshot := func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		// dependency failures are reported inside the body, never as a non-200
		writeJSON(w, http.StatusOK, agg.Snapshot())
	}
	mux.HandleFunc("/api/status", snapshot)
	mux.HandleFunc("/api/system/status", snapshot)

	mux.HandleFunc("/api/gauge-data", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		data, count := agg.GaugeData()
		writeJSON(w, http.StatusOK, GaugeDataResponse{Data: data, Count: count})
	})
}
