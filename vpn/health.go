package vpn

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// HealthState represents the outcome of a connection check.
type HealthState int

const (
	HealthUnknown HealthState = iota
	HealthHealthy
	HealthDegraded
	HealthUnhealthy
)

// String returns a human-readable representation of the health state.
func (h HealthState) String() string {
	switch h {
	case HealthHealthy:
		return "Healthy"
	case HealthDegraded:
		return "Degraded"
	case HealthUnhealthy:
		return "Unhealthy"
	default:
		return "Unknown"
	}
}

// HealthConfig holds configuration for the health checker.
type HealthConfig struct {
	// ConnectTimeout is how long to wait for the client to report Connected.
	ConnectTimeout time.Duration
	// PollInterval is how often the client status is queried.
	PollInterval time.Duration
	// ProbeTimeout bounds each reachability probe.
	ProbeTimeout time.Duration
	// TestHosts are dialed over TCP once connected; one success is enough.
	TestHosts []string
}

// DefaultHealthConfig returns sensible defaults for health checking.
func DefaultHealthConfig() HealthConfig {
	return HealthConfig{
		ConnectTimeout: common.ConnectionTimeout,
		PollInterval:   common.MonitorInterval,
		ProbeTimeout:   5 * time.Second,
		TestHosts: []string{
			"8.8.8.8:53",        // Google DNS
			"1.1.1.1:53",        // Cloudflare DNS
			"208.67.222.222:53", // OpenDNS
		},
	}
}

// StatusSource reports the tunnel state.
type StatusSource interface {
	Status(ctx context.Context) (ConnectionStatus, relay.Location, error)
}

// HealthReport is the result of Verify.
type HealthReport struct {
	State   HealthState
	Relay   relay.Location
	Latency time.Duration
}

// HealthChecker verifies that a reconnect produced a working tunnel.
type HealthChecker struct {
	config HealthConfig
	source StatusSource
	dial   func(ctx context.Context, network, address string) (net.Conn, error)
}

// NewHealthChecker creates a health checker polling source.
func NewHealthChecker(source StatusSource, config HealthConfig) *HealthChecker {
	dialer := &net.Dialer{}
	return &HealthChecker{
		config: config,
		source: source,
		dial:   dialer.DialContext,
	}
}

// WaitConnected polls the client until it reports Connected. It fails
// when the client enters the error state or the connect timeout expires.
func (hc *HealthChecker) WaitConnected(ctx context.Context) (relay.Location, error) {
	ctx, cancel := context.WithTimeout(ctx, hc.config.ConnectTimeout)
	defer cancel()

	ticker := time.NewTicker(hc.config.PollInterval)
	defer ticker.Stop()

	for {
		status, current, err := hc.source.Status(ctx)
		if err != nil {
			return relay.Unknown, err
		}
		switch status {
		case StatusConnected:
			return current, nil
		case StatusError:
			return relay.Unknown, fmt.Errorf("%w: client reports %s", common.ErrConnectionFailed, status)
		}

		select {
		case <-ctx.Done():
			return relay.Unknown, fmt.Errorf("%w: still %s after %v", common.ErrTimeout, status, hc.config.ConnectTimeout)
		case <-ticker.C:
		}
	}
}

// Verify waits for the tunnel and then tests reachability through it.
// A tunnel that is up but cannot reach any test host is Degraded.
func (hc *HealthChecker) Verify(ctx context.Context) (HealthReport, error) {
	current, err := hc.WaitConnected(ctx)
	if err != nil {
		return HealthReport{State: HealthUnhealthy}, err
	}

	latency, err := hc.testConnectivity(ctx)
	if err != nil {
		common.LogWarn("Connected to %s but connectivity test failed: %v", current, err)
		return HealthReport{State: HealthDegraded, Relay: current}, err
	}

	common.LogInfo("Connected to %s (latency %v)", current, latency.Round(time.Millisecond))
	return HealthReport{State: HealthHealthy, Relay: current, Latency: latency}, nil
}

// testConnectivity tests network connectivity through the VPN tunnel.
// Returns latency and error.
func (hc *HealthChecker) testConnectivity(ctx context.Context) (time.Duration, error) {
	// Try each test host until one succeeds
	for _, host := range hc.config.TestHosts {
		probeCtx, cancel := context.WithTimeout(ctx, hc.config.ProbeTimeout)
		start := time.Now()
		conn, err := hc.dial(probeCtx, "tcp", host)
		cancel()
		if err == nil {
			conn.Close()
			return time.Since(start), nil
		}
		common.LogDebug("Connectivity probe to %s failed: %v", host, err)
	}

	return 0, common.ErrConnectionFailed
}
