package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"watson-dash/pkg/fault"
	"watson-dash/pkg/model"
)

// ErrNotConfigured is wrapped in an Unreachable fault when no relay URL is set.
var ErrNotConfigured = errors.New("relay url not configured")

// maxBody caps how much of a relay response is kept in memory.
const maxBody = 1 << 20

type Options struct {
	BaseURL        string
	Token          string
	ForwardPath    string
	ProbeTimeout   time.Duration
	ForwardTimeout time.Duration
}

// Client talks to the GNIS relay. Every call is a single attempt.
type Client struct {
	baseURL     string
	token       string
	forwardPath string
	probe       *http.Client
	forward     *http.Client
}

func NewClient(opts Options) *Client {
	probeTimeout := opts.ProbeTimeout
	if probeTimeout <= 0 {
		probeTimeout = 3 * time.Second
	}
	forwardTimeout := opts.ForwardTimeout
	if forwardTimeout <= 0 {
		forwardTimeout = 10 * time.Second
	}
	path := opts.ForwardPath
	if path == "" {
		path = "/api/actions"
	}
	return &Client{
		baseURL:     strings.TrimSuffix(opts.BaseURL, "/"),
		token:       opts.Token,
		forwardPath: path,
		probe:       &http.Client{Timeout: probeTimeout},
		forward:     &http.Client{Timeout: forwardTimeout},
	}
}

// BaseURL returns the configured relay URL, used in status reporting.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Configured reports whether a relay URL was provided.
func (c *Client) Configured() bool {
	return c.baseURL != ""
}

// Probe issues one GET to the base URL. It returns nil on 200, a RemoteError
// fault carrying the code otherwise, and Timeout/Unreachable on transport failure.
func (c *Client) Probe(ctx context.Context) error {
	if !c.Configured() {
		return fault.New(fault.Unreachable, "relay probe", ErrNotConfigured)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fault.New(fault.Unreachable, "relay probe", err)
	}
	resp, err := c.probe.Do(req)
	if err != nil {
		return fault.Transport("relay probe", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
	if resp.StatusCode != http.StatusOK {
		return fault.Remote("relay probe", resp.StatusCode, "")
	}
	return nil
}

// Forward posts the envelope with the bearer token and returns the response
// body on 200. Non-200 yields a RemoteError fault with code and body text.
func (c *Client) Forward(ctx context.Context, env model.ActionEnvelope) (json.RawMessage, error) {
	if !c.Configured() {
		return nil, fault.New(fault.Unreachable, "relay forward", ErrNotConfigured)
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("relay forward: marshal envelope: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.forwardPath, bytes.NewReader(body))
	if err != nil {
		return nil, fault.New(fault.Unreachable, "relay forward", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.forward.Do(req)
	if err != nil {
		return nil, fault.Transport("relay forward", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fault.Transport("relay forward", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fault.Remote("relay forward", resp.StatusCode, string(respBody))
	}
	respBody = bytes.TrimSpace(respBody)
	if !json.Valid(respBody) {
		// relay answered 200 with text; keep it as a JSON string
		quoted, _ := json.Marshal(string(respBody))
		return quoted, nil
	}
	return respBody, nil
}
