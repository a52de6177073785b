package gex

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultPath is the snapshot endpoint on the upstream service.
	DefaultPath = "/api/gex"

	paramDate   = "date"
	paramTicker = "ticker"

	maxErrorBody = 512
)

// Query selects the snapshot to fetch. Empty fields are omitted from the
// request so the server applies its defaults.
type Query struct {
	Ticker string
	Expiry Date
}

// Values encodes the query parameters, skipping empty ones.
func (q Query) Values() url.Values {
	v := url.Values{}
	if !q.Expiry.IsZero() {
		v.Set(paramDate, q.Expiry.String())
	}
	if t := strings.TrimSpace(q.Ticker); t != "" {
		v.Set(paramTicker, t)
	}
	return v
}

type RESTClient struct {
	baseURL    string
	path       string
	httpClient *http.Client
}

func NewRESTClient(baseURL string, timeout time.Duration) *RESTClient {
	return &RESTClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		path:       DefaultPath,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// WithPath overrides the snapshot endpoint path.
func (c *RESTClient) WithPath(p string) *RESTClient {
	if p != "" {
		c.path = "/" + strings.TrimLeft(p, "/")
	}
	return c
}

func (c *RESTClient) HTTPClient() *http.Client {
	return c.httpClient
}

// Endpoint returns the full request URL for q.
func (c *RESTClient) Endpoint(q Query) string {
	endpoint := c.baseURL + c.path
	if enc := q.Values().Encode(); enc != "" {
		endpoint += "?" + enc
	}
	return endpoint
}

// FetchSnapshot issues GET /api/gex. Transport failures and non-2xx statuses
// return *FetchError; bodies that do not decode into a valid Snapshot return
// *ParseError. There is no retry here.
func (c *RESTClient) FetchSnapshot(ctx context.Context, q Query) (*Snapshot, error) {
	// Construct the GET request with context for timeout/cancel support
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint(q), nil)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")

	// Execute the HTTP request
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("making request: %w", err)}
	}
	defer resp.Body.Close()

	// Check HTTP status code
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &FetchError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	// Read response body
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Err: fmt.Errorf("read body: %w", err)}
	}

	return DecodeSnapshot(raw)
}

// DecodeSnapshot parses and validates a snapshot body.
func DecodeSnapshot(raw []byte) (*Snapshot, error) {
	// First pass: error payloads and required fields
	var env snapshotEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if env.Error != "" {
		return nil, &ParseError{Err: fmt.Errorf("upstream error payload: %s", env.Error)}
	}
	if env.Price == nil {
		return nil, &ParseError{Err: errors.New("missing price")}
	}
	if len(env.Strikes) == 0 || bytes.Equal(env.Strikes, []byte("null")) {
		return nil, &ParseError{Err: errors.New("missing strikes")}
	}
	if len(env.Gex) == 0 || bytes.Equal(env.Gex, []byte("null")) {
		return nil, &ParseError{Err: errors.New("missing gex")}
	}

	// Second pass: full decode, then shape checks
	var snap Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, &ParseError{Err: fmt.Errorf("decode snapshot: %w", err)}
	}
	if err := snap.Validate(); err != nil {
		return nil, &ParseError{Err: err}
	}
	return &snap, nil
}
