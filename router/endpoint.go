package router

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/meshgrid/crossregion"
)

// Endpoint executes a routed request against a region. This interface
// allows for mock implementations in tests; the real implementation is
// provided by the serving layer embedding this core.
type Endpoint interface {
	Execute(ctx context.Context, region crossregion.Region, payload []byte) ([]byte, error)
}

// HTTPEndpoint executes requests by POSTing the payload to the region's
// endpoint address.
type HTTPEndpoint struct {
	client *http.Client
}

// NewHTTPEndpoint creates an HTTP endpoint with the given per-request
// timeout.
func NewHTTPEndpoint(timeout time.Duration) *HTTPEndpoint {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &HTTPEndpoint{
		client: &http.Client{Timeout: timeout},
	}
}

// Execute implements the Endpoint interface.
func (e *HTTPEndpoint) Execute(ctx context.Context, region crossregion.Region, payload []byte) ([]byte, error) {
	url := region.Endpoint
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request for region %s: %w", region.ID, err)
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute against region %s: %w", region.ID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("region %s returned status %d", region.ID, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
