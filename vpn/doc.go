// Package vpn drives the Mullvad command line client.
//
// # Client
//
// Client wraps the "mullvad" binary. It reads the tunnel status and the
// configured relay constraint, and issues the relay, connect and
// disconnect commands. Every call runs through a Runner with its own
// timeout, so tests substitute a fake runner for the real binary.
//
// Status output is parsed leniently. Output that cannot be understood
// yields an Unknown location rather than an error; only a failure to run
// the binary is reported as an error.
//
// # Health
//
// HealthChecker polls the client after a reconnect until it reports
// Connected and then dials a set of well-known hosts to confirm that
// traffic flows through the tunnel.
package vpn
