package vpn

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// ConnectionStatus represents the tunnel state reported by the VPN client.
type ConnectionStatus int

const (
	// StatusDisconnected indicates no active connection.
	StatusDisconnected ConnectionStatus = iota
	// StatusConnecting indicates a connection is being established.
	StatusConnecting
	// StatusConnected indicates an active, established connection.
	StatusConnected
	// StatusDisconnecting indicates the connection is being terminated.
	StatusDisconnecting
	// StatusError indicates the client is blocking traffic after a failure.
	StatusError
	// StatusUnknown indicates the status output could not be parsed.
	StatusUnknown
)

// String returns a human-readable representation of the connection status.
func (s ConnectionStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting..."
	case StatusConnected:
		return "Connected"
	case StatusDisconnecting:
		return "Disconnecting..."
	case StatusError:
		return "Error"
	default:
		return "Unknown"
	}
}

// Runner executes a command and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// Run executes name with args. Standard error is folded into the
// returned error when the command fails.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
				return out, fmt.Errorf("%w: %s", err, msg)
			}
		}
		return out, err
	}
	return out, nil
}

// ClientConfig configures a Client.
type ClientConfig struct {
	// Binary is the VPN client executable.
	Binary string
	// Timeout bounds every call.
	Timeout time.Duration
	// LegacyHostname selects "relay set hostname" for single servers.
	LegacyHostname bool
	// Runner defaults to ExecRunner.
	Runner Runner
}

// Client drives the Mullvad command line client. Every call is a single
// bounded attempt; failures are returned, not retried.
type Client struct {
	binary         string
	timeout        time.Duration
	legacyHostname bool
	runner         Runner
}

// NewClient creates a client for the Mullvad command line tool.
func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		binary:         cfg.Binary,
		timeout:        cfg.Timeout,
		legacyHostname: cfg.LegacyHostname,
		runner:         cfg.Runner,
	}
	if c.binary == "" {
		c.binary = common.DefaultMullvadBinary
	}
	if c.timeout <= 0 {
		c.timeout = common.CommandTimeout
	}
	if c.runner == nil {
		c.runner = ExecRunner{}
	}
	return c
}

// CheckAvailable reports whether the client binary can be found.
func CheckAvailable(binary string) error {
	if _, err := exec.LookPath(binary); err != nil {
		return fmt.Errorf("%w: %s not found in PATH", common.ErrClientUnavailable, binary)
	}
	return nil
}

func (c *Client) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	common.LogDebug("Running %s %s", c.binary, strings.Join(args, " "))
	out, err := c.runner.Run(ctx, c.binary, args...)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s %s: %w", common.ErrClientUnavailable, c.binary, strings.Join(args, " "), common.ErrTimeout)
		}
		return "", fmt.Errorf("%w: %s %s: %w", common.ErrClientUnavailable, c.binary, strings.Join(args, " "), err)
	}
	return string(out), nil
}

// Status returns the tunnel state and, when connected, the relay in use.
func (c *Client) Status(ctx context.Context) (ConnectionStatus, relay.Location, error) {
	out, err := c.run(ctx, "status")
	if err != nil {
		return StatusUnknown, relay.Unknown, err
	}
	status, current := parseStatus(out)
	if status == StatusUnknown {
		common.LogWarn("Could not parse VPN client status output")
	}
	return status, current, nil
}

// CurrentRelay returns the connected relay as a Server location, or
// Unknown when not connected.
func (c *Client) CurrentRelay(ctx context.Context) (relay.Location, error) {
	status, current, err := c.Status(ctx)
	if err != nil {
		return relay.Unknown, err
	}
	if status != StatusConnected {
		return relay.Unknown, nil
	}
	return current, nil
}

// RelayConstraint returns the location constraint configured in the
// client, or Unknown when none is set or it cannot be parsed.
func (c *Client) RelayConstraint(ctx context.Context) (relay.Location, error) {
	out, err := c.run(ctx, "relay", "get")
	if err != nil {
		return relay.Unknown, err
	}
	return parseRelayConstraint(out), nil
}

// SetLocation constrains the client to a country, city or server.
func (c *Client) SetLocation(ctx context.Context, loc relay.Location) error {
	switch loc.Kind() {
	case relay.LocationCountry, relay.LocationCity:
		_, err := c.run(ctx, append([]string{"relay", "set", "location"}, loc.Args()...)...)
		return err
	case relay.LocationServer:
		return c.SetHostname(ctx, loc.Hostname())
	default:
		return fmt.Errorf("%w: cannot set location %s", common.ErrInvalidOption, loc)
	}
}

// SetHostname constrains the client to a single server.
func (c *Client) SetHostname(ctx context.Context, hostname string) error {
	if c.legacyHostname {
		_, err := c.run(ctx, "relay", "set", "hostname", hostname)
		return err
	}
	_, err := c.run(ctx, "relay", "set", "location", hostname)
	return err
}

// Connect asks the client to connect.
func (c *Client) Connect(ctx context.Context) error {
	_, err := c.run(ctx, "connect")
	return err
}

// Disconnect asks the client to disconnect.
func (c *Client) Disconnect(ctx context.Context) error {
	_, err := c.run(ctx, "disconnect")
	return err
}
