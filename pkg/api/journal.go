package api

import (
	"net/http"
	"strconv"

	"watson-dash/pkg/store"
)

const (
	defaultJournalLimit = 50
	maxJournalLimit     = 500
)

func registerJournalRoutes(mux *http.ServeMux, st store.ActionStore, authn authenticator) {
	mux.HandleFunc("/api/actions", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authn(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		recs, err := st.ListActions(journalLimit(r))
		if err != nil {
			http.Error(w, "failed to list actions", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	})

	mux.HandleFunc("/api/audit", func(w http.ResponseWriter, r *http.Request) {
		if _, ok := authn(r); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		entries, err := st.ListAudit(journalLimit(r))
		if err != nil {
			http.Error(w, "failed to list audit", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})
}

func journalLimit(r *http.Request) int {
	n, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || n <= 0 {
		return defaultJournalLimit
	}
	if n > maxJournalLimit {
		return maxJournalLimit
	}
	return n
}
