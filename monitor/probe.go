package monitor

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/meshgrid/crossregion"
)

// Probe is the health check capability. Production implementations perform
// a real network round trip; test doubles inject deterministic faults
// through the same interface. The returned duration is the measured round
// trip, used to update the region's connection latency.
type Probe interface {
	Probe(ctx context.Context, region crossregion.Region) (time.Duration, error)
}

// HTTPProbe checks a region by issuing a GET to its /health endpoint.
type HTTPProbe struct {
	client *http.Client
}

// NewHTTPProbe creates an HTTP probe with the given per-request timeout.
func NewHTTPProbe(timeout time.Duration) *HTTPProbe {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &HTTPProbe{
		client: &http.Client{Timeout: timeout},
	}
}

// Probe implements the Probe interface.
func (p *HTTPProbe) Probe(ctx context.Context, region crossregion.Region) (time.Duration, error) {
	url := region.Endpoint
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	if !strings.HasSuffix(url, "/health") {
		url = strings.TrimRight(url, "/") + "/health"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("build health request: %w", err)
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return time.Since(start), nil
}
