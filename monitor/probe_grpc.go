package monitor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/meshgrid/crossregion"
)

// GRPCProbe checks a region through the standard gRPC health checking
// service. Connections are cached per endpoint and redialed lazily.
type GRPCProbe struct {
	mu      sync.Mutex
	conns   map[string]*grpc.ClientConn
	timeout time.Duration
}

// NewGRPCProbe creates a gRPC probe with the given per-check timeout.
func NewGRPCProbe(timeout time.Duration) *GRPCProbe {
	if timeout == 0 {
		timeout = 2 * time.Second
	}
	return &GRPCProbe{
		conns:   make(map[string]*grpc.ClientConn),
		timeout: timeout,
	}
}

// Probe implements the Probe interface.
func (p *GRPCProbe) Probe(ctx context.Context, region crossregion.Region) (time.Duration, error) {
	conn, err := p.conn(region.Endpoint)
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{})
	if err != nil {
		return 0, fmt.Errorf("grpc health check failed: %w", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		return 0, fmt.Errorf("grpc health status %s", resp.GetStatus())
	}
	return time.Since(start), nil
}

// Close tears down all cached connections.
func (p *GRPCProbe) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for endpoint, conn := range p.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(p.conns, endpoint)
	}
	return firstErr
}

func (p *GRPCProbe) conn(endpoint string) (*grpc.ClientConn, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if conn, ok := p.conns[endpoint]; ok {
		return conn, nil
	}
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", endpoint, err)
	}
	p.conns[endpoint] = conn
	return conn, nil
}
