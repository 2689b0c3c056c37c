package listener

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// DefaultEndpoint is the RPC of a local layer 1 node.
const DefaultEndpoint = "http://localhost:18731"

const headsPath = "/monitor/heads/main"

// HTTPSource streams heads from the monitor RPC of a layer 1 node.
type HTTPSource struct {
	endpoint   string
	httpClient *http.Client
}

var _ Source = (*HTTPSource)(nil)

func NewHTTPSource(endpoint string) *HTTPSource {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	return &HTTPSource{
		endpoint: strings.TrimRight(endpoint, "/"),
		// No timeout: the stream is long lived and bounded by the context.
		httpClient: &http.Client{},
	}
}

func (s *HTTPSource) Open(ctx context.Context) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+headsPath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create monitor request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("monitor request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("monitor returned status %d", resp.StatusCode)
	}
	return resp.Body, nil
}
