// Package client is a typed client for the sequencer HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/sequencer/api"
	"github.com/papercomputeco/sequencer/pkg/node"
)

// DefaultURL is where `sequencer serve` listens by default.
const DefaultURL = "http://localhost:8080"

var (
	ErrNotFound    = errors.New("no value at path")
	ErrInvalidPath = errors.New("invalid path")
	ErrUnavailable = errors.New("sequencer unavailable")
	ErrUnexpected  = errors.New("unexpected response")
)

// Client talks to one sequencer.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Submit posts op and returns once the sequencer acknowledged it.
func (c *Client) Submit(ctx context.Context, op []byte) error {
	body, err := json.Marshal(api.OperationRequest{Data: hex.EncodeToString(op)})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, http.MethodPost, "/operations", nil, bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// GetState returns the value at path, ErrNotFound when there is none.
func (c *Client) GetState(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.do(ctx, http.MethodGet, "/state", url.Values{"path": {path}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read state: %w", err)
	}
	value, err := hex.DecodeString(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, fmt.Errorf("%w: state is not hex: %w", ErrUnexpected, err)
	}
	return value, nil
}

func (c *Client) GetSubkeys(ctx context.Context, path string) ([]string, error) {
	var keys []string
	if err := c.getJSON(ctx, "/subkeys", url.Values{"path": {path}}, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}

func (c *Client) StateHash(ctx context.Context, path string) (string, error) {
	var out api.HashResponse
	if err := c.getJSON(ctx, "/state/hash", url.Values{"path": {path}}, &out); err != nil {
		return "", err
	}
	return out.Hash, nil
}

func (c *Client) Status(ctx context.Context) (node.Status, error) {
	var out node.Status
	err := c.getJSON(ctx, "/status", nil, &out)
	return out, err
}

func (c *Client) Debug(ctx context.Context) ([]api.DebugLine, error) {
	var out []api.DebugLine
	err := c.getJSON(ctx, "/debug", nil, &out)
	return out, err
}

func (c *Client) Outbox(ctx context.Context) ([]api.OutboxMessage, error) {
	var out []api.OutboxMessage
	err := c.getJSON(ctx, "/outbox", nil, &out)
	return out, err
}

// Health returns nil when the sequencer answers its health check.
func (c *Client) Health(ctx context.Context) error {
	var out map[string]string
	if err := c.getJSON(ctx, "/health", nil, &out); err != nil {
		return err
	}
	if out["status"] != "ok" {
		return fmt.Errorf("%w: health status %q", ErrUnavailable, out["status"])
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	resp, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnexpected, path, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body io.Reader) (*http.Response, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	msg := http.StatusText(resp.StatusCode)
	var e api.ErrorResponse
	if body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096)); json.Unmarshal(body, &e) == nil && e.Error != "" {
		msg = e.Error
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidPath, msg)
	case http.StatusServiceUnavailable:
		return fmt.Errorf("%w: %s", ErrUnavailable, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnexpected, resp.StatusCode, msg)
	}
}
