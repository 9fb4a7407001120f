package status

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"watson-dash/pkg/credentials"
	"watson-dash/pkg/fault"
	"watson-dash/pkg/model"
	"watson-dash/pkg/relay"
)

func TestForwardSuccess(t *testing.T) {
	var got model.ActionEnvelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	a := build(t, "missing.json", srv.URL, nil)
	res := a.Forward(context.Background(), EventGPTAction, json.RawMessage(`{"prompt":"hi"}`))

	require.NoError(t, res.Err)
	assert.JSONEq(t, `{"ok":true}`, string(res.Body))
	assert.Equal(t, model.ActionForwarded, res.Status())
	assert.Zero(t, res.Code())
	assert.Equal(t, EventGPTAction, got.EventType)
	assert.Equal(t, res.Envelope.ID, got.ID)
	assert.Equal(t, "test", got.Metadata.Version)
	assert.Equal(t, DefaultPlatform, got.Metadata.Platform)
}

func TestForwardRemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("boom"))
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	res := build(t, "missing.json", srv.URL, nil).Forward(context.Background(), EventGNISSync, nil)
	require.Error(t, res.Err)
	assert.Equal(t, model.ActionError, res.Status())
	assert.Equal(t, http.StatusInternalServerError, res.Code())
}

func TestForwardTransportFailure(t *testing.T) {
	res := build(t, "missing.json", refusedURL(t), nil).Forward(context.Background(), EventGNISSync, nil)
	require.Error(t, res.Err)
	assert.Equal(t, model.ActionFailed, res.Status())
	kind, _ := fault.KindOf(res.Err)
	assert.Equal(t, fault.Unreachable, kind)
}

func TestForwardWithoutRelay(t *testing.T) {
	a := New(context.Background(), Options{FeedPath: "missing.json", Lookup: credentials.Map(nil), Now: func() time.Time { return fixedNow }})
	res := a.Forward(context.Background(), EventGNISSync, nil)
	assert.ErrorIs(t, res.Err, relay.ErrNotConfigured)
	assert.Equal(t, model.ActionFailed, res.Status())
}

func TestRetriedForwardGetsNewID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	tick := fixedNow
	a := New(context.Background(), Options{
		FeedPath: "missing.json",
		Relay:    relay.NewClient(relay.Options{BaseURL: srv.URL}),
		Lookup:   credentials.Map(nil),
		Now: func() time.Time {
			tick = tick.Add(time.Millisecond)
			return tick
		},
	})
	first := a.Forward(context.Background(), EventGNISSync, json.RawMessage(`{}`))
	second := a.Forward(context.Background(), EventGNISSync, json.RawMessage(`{}`))
	assert.NotEqual(t, first.Envelope.ID, second.Envelope.ID)
}
