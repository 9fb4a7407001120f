package api

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watson-dash/pkg/auth"
	"watson-dash/pkg/credentials"
	"watson-dash/pkg/model"
	"watson-dash/pkg/relay"
	"watson-dash/pkg/status"
	"watson-dash/pkg/store"
)

type fixture struct {
	srv   *httptest.Server
	store *store.MemoryStore
	hub   *Hub
}

type fixtureOpts struct {
	feed     string // feed file content; empty means absent
	relayURL string
	token    string
	signer   *auth.Signer
	users    UserStore
}

func newFixture(t *testing.T, o fixtureOpts) *fixture {
	t.Helper()
	feedPath := filepath.Join(t.TempDir(), "feed.json")
	if o.feed != "" {
		require.NoError(t, os.WriteFile(feedPath, []byte(o.feed), 0o600))
	}
	agg := status.New(context.Background(), status.Options{
		Version:      "test",
		FeedPath:     feedPath,
		AICredential: "OPENAI_API_KEY",
		OptionalKeys: []string{"PERPLEXITY_API_KEY"},
		Relay:        relay.NewClient(relay.Options{BaseURL: o.relayURL, ProbeTimeout: time.Second, ForwardTimeout: time.Second}),
		Lookup:       credentials.Map(map[string]string{"OPENAI_API_KEY": "sk"}),
	})
	st := store.NewMemoryStore()
	hub := NewHub(func() interface{} { return agg.Snapshot() }, nil)
	mux := http.NewServeMux()
	RegisterRoutes(mux, Deps{
		Aggregator: agg,
		Store:      st,
		Hub:        hub,
		Users:      o.users,
		Signer:     o.signer,
		Token:      o.token,
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		hub.Close()
		srv.Close()
	})
	return &fixture{srv: srv, store: st, hub: hub}
}

// relayStub answers probes with 200 and forwards with the given code and body.
func relayStub(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(body))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func refusedURL(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr
}

func do(t *testing.T, method, url, body string, header map[string]string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestStatusAlwaysOKWithAllDependencies(t *testing.T) {
	for _, path := range []string{"/api/status", "/api/system/status"} {
		f := newFixture(t, fixtureOpts{relayURL: refusedURL(t)})
		resp, body := do(t, http.MethodGet, f.srv.URL+path, "", nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		var snap map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(body, &snap))
		for _, dep := range []string{"gauge", "gnis", "watson", "external"} {
			assert.Contains(t, snap, dep, path)
		}

		var typed model.Snapshot
		require.NoError(t, json.Unmarshal(body, &typed))
		assert.Equal(t, model.StatusDisconnected, typed.Gauge.Status)
		assert.Equal(t, model.StatusOffline, typed.GNIS.Status)
		assert.Equal(t, model.FallbackLocalMode, typed.GNIS.Fallback)
		assert.Equal(t, model.StatusConfigured, typed.Watson.Status)
		assert.Equal(t, model.StatusRequiresConfig, typed.External.Status)
	}
}

func TestStatusRejectsPost(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	resp, _ := do(t, http.MethodPost, f.srv.URL+"/api/status", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestGaugeData(t *testing.T) {
	f := newFixture(t, fixtureOpts{feed: `[{"asset":"A"},{"asset":"B"}]`})
	resp, body := do(t, http.MethodGet, f.srv.URL+"/api/gauge-data", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"data":[{"asset":"A"},{"asset":"B"}],"count":2}`, string(body))
}

func TestGaugeDataAbsent(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	_, body := do(t, http.MethodGet, f.srv.URL+"/api/gauge-data", "", nil)
	assert.JSONEq(t, `{"data":{},"count":0}`, string(body))
}

func TestForwardSuccessReturnsRemoteBody(t *testing.T) {
	rl := relayStub(t, http.StatusOK, `{"record":"r-9"}`)
	f := newFixture(t, fixtureOpts{relayURL: rl.URL})

	resp, body := do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{"site":"north"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"record":"r-9"}`, string(body))

	recs, _ := f.store.ListActions(0)
	require.Len(t, recs, 1)
	assert.Equal(t, status.EventGNISSync, recs[0].EventType)
	assert.Equal(t, model.ActionForwarded, recs[0].Status)
	assert.True(t, strings.HasPrefix(recs[0].EnvelopeID, "gnis_sync-"))

	audit, _ := f.store.ListAudit(0)
	require.Len(t, audit, 1)
	assert.Equal(t, "anonymous", audit[0].Actor)
}

func TestForwardRemoteErrorRecord(t *testing.T) {
	rl := relayStub(t, http.StatusUnprocessableEntity, "missing field")
	f := newFixture(t, fixtureOpts{relayURL: rl.URL})

	resp, body := do(t, http.MethodPost, f.srv.URL+"/api/gpt/create-action", `{"prompt":"x"}`, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var out ForwardError
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "error", out.Status)
	assert.Equal(t, http.StatusUnprocessableEntity, out.Code)
	assert.Equal(t, "missing field", out.Response)
	assert.True(t, strings.HasPrefix(out.ID, "gpt_action-"))
}

func TestForwardTransportFailureRecord(t *testing.T) {
	f := newFixture(t, fixtureOpts{relayURL: refusedURL(t)})

	resp, body := do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, nil)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var out ForwardError
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "failed", out.Status)
	assert.NotEmpty(t, out.Error)
	assert.Zero(t, out.Code)

	recs, _ := f.store.ListActions(0)
	require.Len(t, recs, 1)
	assert.Equal(t, model.ActionFailed, recs[0].Status)
}

func TestForwardRejectsInvalidJSON(t *testing.T) {
	f := newFixture(t, fixtureOpts{relayURL: relayStub(t, 200, `{}`).URL})
	resp, _ := do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{"broken"`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	recs, _ := f.store.ListActions(0)
	assert.Empty(t, recs)
}

func TestForwardRejectsGet(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	resp, _ := do(t, http.MethodGet, f.srv.URL+"/api/gnis/sync", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSharedTokenAuth(t *testing.T) {
	f := newFixture(t, fixtureOpts{relayURL: relayStub(t, 200, `{}`).URL, token: "s3cret"})

	resp, _ := do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, map[string]string{"X-Auth-Token": "s3cret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, f.srv.URL+"/api/actions", "", map[string]string{"Authorization": "Bearer s3cret"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, f.srv.URL+"/api/audit", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// status stays public
	resp, _ = do(t, http.MethodGet, f.srv.URL+"/api/status", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestJWTAuth(t *testing.T) {
	signer := auth.NewSigner("jwt-secret", time.Hour)
	f := newFixture(t, fixtureOpts{relayURL: relayStub(t, 200, `{}`).URL, signer: signer})

	tok, err := signer.Generate(1, "ops")
	require.NoError(t, err)

	resp, _ := do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, map[string]string{"Authorization": "Bearer " + tok})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	audit, _ := f.store.ListAudit(0)
	require.Len(t, audit, 1)
	assert.Equal(t, "ops", audit[0].Actor)

	resp, _ = do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, map[string]string{"Authorization": "Bearer forged"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestActionsLimit(t *testing.T) {
	f := newFixture(t, fixtureOpts{relayURL: relayStub(t, 200, `{}`).URL})
	for i := 0; i < 3; i++ {
		do(t, http.MethodPost, f.srv.URL+"/api/gnis/sync", `{}`, nil)
	}
	_, body := do(t, http.MethodGet, f.srv.URL+"/api/actions?limit=2", "", nil)
	var recs []model.ActionRecord
	require.NoError(t, json.Unmarshal(body, &recs))
	assert.Len(t, recs, 2)
}

func TestDashboardPage(t *testing.T) {
	f := newFixture(t, fixtureOpts{feed: `[1,2,3]`})
	resp, body := do(t, http.MethodGet, f.srv.URL+"/", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), status.DefaultPlatform)
	assert.Contains(t, string(body), "loaded (3 records)")

	resp, _ = do(t, http.MethodGet, f.srv.URL+"/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInfoListings(t *testing.T) {
	f := newFixture(t, fixtureOpts{})

	_, body := do(t, http.MethodGet, f.srv.URL+"/api/integrations", "", nil)
	var ints []Integration
	require.NoError(t, json.Unmarshal(body, &ints))
	require.Len(t, ints, 4)
	assert.Equal(t, model.DepGauge, ints[0].Name)
	assert.Equal(t, model.StatusDisconnected, ints[0].Status)

	_, body = do(t, http.MethodGet, f.srv.URL+"/api/endpoints", "", nil)
	var eps []Endpoint
	require.NoError(t, json.Unmarshal(body, &eps))
	assert.Equal(t, endpoints, eps)

	resp, body := do(t, http.MethodGet, f.srv.URL+"/apis", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "/api/gnis/sync")

	_, body = do(t, http.MethodGet, f.srv.URL+"/integrations", "", nil)
	assert.Contains(t, string(body), "GNIS relay")
}

func TestHealthz(t *testing.T) {
	f := newFixture(t, fixtureOpts{})
	resp, body := do(t, http.MethodGet, f.srv.URL+"/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", string(body))
}
