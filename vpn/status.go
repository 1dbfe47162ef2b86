package vpn

import (
	"strings"

	"github.com/yllada/mullvad-rotate/relay"
)

// words that may follow "connected to" before the relay hostname
var protocolWords = map[string]bool{
	"wireguard": true,
	"openvpn":   true,
	"over":      true,
	"udp":       true,
	"tcp":       true,
}

// parseStatus reads the output of "mullvad status". Both the multi-line
// format ("Connected" followed by "Relay: <host>") and the single-line
// format ("Connected to <host> in <city>, <country>") are understood.
func parseStatus(out string) (ConnectionStatus, relay.Location) {
	lines := nonEmptyLines(out)
	if len(lines) == 0 {
		return StatusUnknown, relay.Unknown
	}

	first := strings.ToLower(lines[0])
	first = strings.TrimSpace(strings.TrimPrefix(first, "tunnel status:"))
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return StatusUnknown, relay.Unknown
	}

	var status ConnectionStatus
	switch strings.TrimRight(fields[0], ".:") {
	case "connected":
		status = StatusConnected
	case "connecting":
		status = StatusConnecting
	case "disconnected":
		status = StatusDisconnected
	case "disconnecting":
		status = StatusDisconnecting
	case "blocked", "error":
		status = StatusError
	default:
		return StatusUnknown, relay.Unknown
	}
	if status != StatusConnected && status != StatusConnecting {
		return status, relay.Unknown
	}

	for _, line := range lines[1:] {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && strings.EqualFold(key, "relay") {
			if host := strings.Fields(strings.ToLower(value)); len(host) > 0 {
				return status, relay.Server(host[0])
			}
		}
	}

	for i, field := range fields {
		if field != "to" {
			continue
		}
		for _, candidate := range fields[i+1:] {
			if protocolWords[candidate] || strings.Contains(candidate, ":") {
				continue
			}
			if candidate == "in" {
				break
			}
			return status, relay.Server(strings.TrimRight(candidate, ",."))
		}
		break
	}
	return status, relay.Unknown
}

// parseRelayConstraint reads the location constraint from the output of
// "mullvad relay get". Codes are taken from parentheses when the client
// prints names, e.g. "city Gothenburg (got), Sweden (se)". "any" only
// clears the location when it opens a Location: value; elsewhere it belongs
// to another constraint and is skipped.
func parseRelayConstraint(out string) relay.Location {
	text := ""
	located := false
	for _, line := range nonEmptyLines(out) {
		key, value, ok := strings.Cut(strings.TrimSpace(line), ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), "location") {
			text = value
			located = true
			break
		}
	}
	if !located {
		text = strings.Join(nonEmptyLines(out), " ")
	}

	fields := strings.Fields(strings.ToLower(text))
	for i, field := range fields {
		rest := fields[i+1:]
		switch field {
		case "country":
			codes := parenthesized(rest)
			if len(codes) >= 1 {
				return relay.Country(codes[0])
			}
			if len(rest) >= 1 {
				return relay.Country(trimPunct(rest[0]))
			}
		case "city":
			codes := parenthesized(rest)
			if len(codes) >= 2 {
				return relay.City(codes[1], codes[0])
			}
			if len(rest) >= 2 {
				return relay.City(trimPunct(rest[1]), trimPunct(rest[0]))
			}
		case "hostname":
			if len(rest) >= 1 {
				return relay.Server(trimPunct(rest[0]))
			}
		case "any":
			if located && i == 0 {
				return relay.Unknown
			}
			continue
		default:
			continue
		}
		return relay.Unknown
	}
	return relay.Unknown
}

func parenthesized(fields []string) []string {
	var codes []string
	for _, f := range fields {
		start := strings.IndexByte(f, '(')
		end := strings.IndexByte(f, ')')
		if start >= 0 && end > start+1 {
			codes = append(codes, f[start+1:end])
		}
	}
	return codes
}

func trimPunct(s string) string {
	return strings.Trim(s, ",.()")
}

func nonEmptyLines(s string) []string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
