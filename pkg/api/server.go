package api

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"watson-dash/pkg/auth"
	"watson-dash/pkg/status"
	"watson-dash/pkg/store"
)

// Deps carries everything the routes need. Users and Signer are optional;
// without them the operator login routes are not registered.
type Deps struct {
	Aggregator *status.Aggregator
	Store      store.ActionStore
	Hub        *Hub
	Users      UserStore
	Signer     *auth.Signer
	Token      string
	Logger     *zap.Logger
}

// RegisterRoutes wires the HTTP handlers on the provided mux.
func RegisterRoutes(mux *http.ServeMux, d Deps) {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Store == nil {
		d.Store = store.NewMemoryStore()
	}
	authn := authFunc(d.Token, d.Signer)

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	registerStatusRoutes(mux, d.Aggregator)
	registerPageRoutes(mux, d.Aggregator)
	registerForwardRoutes(mux, d, authn)
	registerJournalRoutes(mux, d.Store, authn)

	if d.Hub != nil {
		// the stream carries journal records, so it takes the same auth
		mux.HandleFunc("/api/events", func(w http.ResponseWriter, r *http.Request) {
			if _, ok := authn(r); !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			d.Hub.HandleEvents(w, r)
		})
	}
	if d.Users != nil && d.Signer != nil {
		h := &AuthHandler{Users: d.Users, Signer: d.Signer, Store: d.Store, Log: d.Logger}
		h.RegisterRoutes(mux)
	}
}

// authenticator resolves the caller of a protected route. It returns the actor
// name recorded in the audit log and whether the request may proceed.
type authenticator func(r *http.Request) (string, bool)

// authFunc accepts the shared token (X-Auth-Token or Bearer) or, when a signer
// is configured, an operator JWT. With neither configured every caller passes.
func authFunc(token string, signer *auth.Signer) authenticator {
	if token == "" && signer == nil {
		return func(_ *http.Request) (string, bool) { return "anonymous", true }
	}
	return func(r *http.Request) (string, bool) {
		bearer := ""
		if authz := r.Header.Get("Authorization"); strings.HasPrefix(authz, "Bearer ") {
			bearer = strings.TrimPrefix(authz, "Bearer ")
		}
		if token != "" {
			if h := r.Header.Get("X-Auth-Token"); h == token || bearer == token {
				return "token", true
			}
		}
		if signer != nil && bearer != "" {
			if claims, err := signer.Parse(bearer); err == nil {
				return claims.Username, true
			}
		}
		return "", false
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRawJSON(w http.ResponseWriter, status int, body json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func remoteIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
