// Package injector submits the batches closed by chain headers to a rollup
// node batcher.
package injector

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultEndpoint is the local rollup node RPC.
const DefaultEndpoint = "http://127.0.0.1:8932"

const injectionPath = "/local/batcher/injection"

var ErrInjectionRejected = errors.New("injection rejected")

// Injector hands a batch of operations over to the rollup.
type Injector interface {
	Inject(ctx context.Context, batch [][]byte) error
}

// HTTPInjector posts batches to the batcher injection endpoint of a rollup
// node as a JSON array of hex-encoded operations.
type HTTPInjector struct {
	endpoint   string
	httpClient *http.Client
}

var _ Injector = (*HTTPInjector)(nil)

func NewHTTPInjector(endpoint string) *HTTPInjector {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPInjector{
		endpoint: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Inject is a no-op for an empty batch.
func (i *HTTPInjector) Inject(ctx context.Context, batch [][]byte) error {
	if len(batch) == 0 {
		return nil
	}

	encoded := make([]string, len(batch))
	for n, op := range batch {
		encoded[n] = hex.EncodeToString(op)
	}
	body, err := json.Marshal(encoded)
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.endpoint+injectionPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create injection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("injection request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("%w: status %d: %s", ErrInjectionRejected, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}
