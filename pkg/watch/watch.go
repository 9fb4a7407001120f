// Package watch follows a running dashboard's event stream.
package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const eventsPath = "/api/events"

// Event mirrors the frames written by the dashboard hub.
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client keeps one websocket subscription open, redialing after drops.
type Client struct {
	endpoint string
	token    string
	retry    time.Duration
	log      *zap.Logger
}

// NewClient derives the events URL from the dashboard base URL (http -> ws,
// https -> wss).
func NewClient(base, token string, retry time.Duration, log *zap.Logger) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse dashboard url: %w", err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return nil, fmt.Errorf("unsupported dashboard url scheme %q", u.Scheme)
	}
	u.Path = eventsPath
	if retry <= 0 {
		retry = 5 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{endpoint: u.String(), token: token, retry: retry, log: log}, nil
}

// Endpoint returns the websocket URL being followed.
func (c *Client) Endpoint() string { return c.endpoint }

// Run delivers every event to fn until ctx is done or fn returns an error.
func (c *Client) Run(ctx context.Context, fn func(Event) error) error {
	for {
		err := c.session(ctx, fn)
		if ctx.Err() != nil {
			return nil
		}
		if stop, ok := err.(handlerError); ok {
			return stop.err
		}
		c.log.Warn("event stream dropped", zap.String("url", c.endpoint), zap.Error(err), zap.Duration("retry", c.retry))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.retry):
		}
	}
}

type handlerError struct{ err error }

func (h handlerError) Error() string { return h.err.Error() }

func (c *Client) session(ctx context.Context, fn func(Event) error) error {
	header := http.Header{}
	if c.token != "" {
		header.Set("Authorization", "Bearer "+c.token)
	}
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, c.endpoint, header)
	if err != nil {
		code := 0
		if resp != nil {
			code = resp.StatusCode
		}
		return fmt.Errorf("dial (status %d): %w", code, err)
	}
	defer conn.Close()
	c.log.Info("event stream connected", zap.String("url", c.endpoint))

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()
	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			return err
		}
		if err := fn(ev); err != nil {
			return handlerError{err}
		}
	}
}
