package relay

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watson-dash/pkg/fault"
	"watson-dash/pkg/model"
)

// closedAddr returns a URL nobody is listening on.
func closedAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return "http://" + addr
}

func TestProbeConnected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL + "/"})
	assert.NoError(t, c.Probe(context.Background()))
	assert.Equal(t, srv.URL, c.BaseURL())
}

func TestProbeRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(Options{BaseURL: srv.URL}).Probe(context.Background())
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.RemoteError, fe.Kind)
	assert.Equal(t, http.StatusServiceUnavailable, fe.Code)
}

func TestProbeConnectionRefused(t *testing.T) {
	err := NewClient(Options{BaseURL: closedAddr(t)}).Probe(context.Background())
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.Unreachable, kind)
}

func TestProbeTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := NewClient(Options{BaseURL: srv.URL, ProbeTimeout: 50 * time.Millisecond})
	kind, ok := fault.KindOf(c.Probe(context.Background()))
	require.True(t, ok)
	assert.Equal(t, fault.Timeout, kind)
}

func TestProbeNotConfigured(t *testing.T) {
	err := NewClient(Options{}).Probe(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	kind, _ := fault.KindOf(err)
	assert.Equal(t, fault.Unreachable, kind)
}

func TestForwardSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/hooks/actions", r.URL.Path)
		assert.Equal(t, "Bearer relay-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var env model.ActionEnvelope
		require.NoError(t, json.NewDecoder(r.Body).Decode(&env))
		assert.Equal(t, "gnis_sync", env.EventType)
		assert.JSONEq(t, `{"site":"north"}`, string(env.Payload))

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"accepted":true,"id":"r-1"}`))
	}))
	defer srv.Close()

	c := NewClient(Options{BaseURL: srv.URL, Token: "relay-token", ForwardPath: "/hooks/actions"})
	env := NewEnvelope("gnis_sync", json.RawMessage(`{"site":"north"}`), "p", "v", time.Now())
	body, err := c.Forward(context.Background(), env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"accepted":true,"id":"r-1"}`, string(body))
}

func TestForwardPlainTextBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("queued"))
	}))
	defer srv.Close()

	body, err := NewClient(Options{BaseURL: srv.URL}).Forward(context.Background(), NewEnvelope("x", nil, "p", "v", time.Now()))
	require.NoError(t, err)
	assert.Equal(t, `"queued"`, string(body))
}

func TestForwardRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte("bad token"))
	}))
	defer srv.Close()

	_, err := NewClient(Options{BaseURL: srv.URL}).Forward(context.Background(), NewEnvelope("x", nil, "p", "v", time.Now()))
	var fe *fault.Error
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, fault.RemoteError, fe.Kind)
	assert.Equal(t, http.StatusUnauthorized, fe.Code)
	assert.Equal(t, "bad token", fe.Body)
}

func TestForwardUnreachable(t *testing.T) {
	_, err := NewClient(Options{BaseURL: closedAddr(t)}).Forward(context.Background(), NewEnvelope("x", nil, "p", "v", time.Now()))
	kind, ok := fault.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, fault.Unreachable, kind)
}

func TestNewEnvelope(t *testing.T) {
	now := time.Date(2025, 5, 15, 10, 45, 0, 0, time.UTC)
	env := NewEnvelope("gpt_action", nil, "Watson", "1.0", now)

	assert.Equal(t, "gpt_action", env.EventType)
	assert.Equal(t, "gpt_action-1747305900000000000", env.ID)
	assert.Equal(t, now, env.Timestamp)
	assert.Equal(t, Source, env.Metadata.Source)
	assert.Equal(t, "Watson", env.Metadata.Platform)
	assert.Equal(t, "null", string(env.Payload))
}
