package vpn

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yllada/mullvad-rotate/relay"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		name       string
		output     string
		wantStatus ConnectionStatus
		wantRelay  relay.Location
	}{
		{
			name:       "multi-line connected",
			output:     "Connected\n    Relay:              se-got-wg-001\n    Visible location:   Sweden, Gothenburg\n",
			wantStatus: StatusConnected,
			wantRelay:  relay.Server("se-got-wg-001"),
		},
		{
			name:       "single-line connected",
			output:     "Connected to us-nyc-wg-301 in New York, NY, USA\n",
			wantStatus: StatusConnected,
			wantRelay:  relay.Server("us-nyc-wg-301"),
		},
		{
			name:       "legacy tunnel status",
			output:     "Tunnel status: Connected to WireGuard 185.213.154.68:51820 over UDP\n",
			wantStatus: StatusConnected,
			wantRelay:  relay.Unknown,
		},
		{
			name:       "uppercase hostname",
			output:     "Connected\n  Relay: DE-FRA-WG-001\n",
			wantStatus: StatusConnected,
			wantRelay:  relay.Server("de-fra-wg-001"),
		},
		{
			name:       "connecting",
			output:     "Connecting to se-sto-wg-002 in Stockholm, Sweden\n",
			wantStatus: StatusConnecting,
			wantRelay:  relay.Server("se-sto-wg-002"),
		},
		{
			name:       "disconnected",
			output:     "Disconnected\n",
			wantStatus: StatusDisconnected,
			wantRelay:  relay.Unknown,
		},
		{
			name:       "blocked",
			output:     "Blocked: device is offline\n",
			wantStatus: StatusError,
			wantRelay:  relay.Unknown,
		},
		{"empty", "", StatusUnknown, relay.Unknown},
		{"garbage", "something unexpected\n", StatusUnknown, relay.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, current := parseStatus(tt.output)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantRelay, current)
		})
	}
}

func TestParseRelayConstraint(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   relay.Location
	}{
		{"short country", "Location: country se\n", relay.Country("se")},
		{"short city", "Location: city got, se\n", relay.City("se", "got")},
		{"hostname", "Location: hostname se-got-wg-001\n", relay.Server("se-got-wg-001")},
		{
			name:   "named country",
			output: "Generic constraints\n    Location:               country Sweden (se)\n    Providers:              any\n",
			want:   relay.Country("se"),
		},
		{
			name:   "named city",
			output: "Generic constraints\n    Location:               city Gothenburg (got), Sweden (se)\n",
			want:   relay.City("se", "got"),
		},
		{"any", "Location: any\n", relay.Unknown},
		{"no location line", "Current constraints: country de\n", relay.Country("de")},
		{"any protocol before country", "Current constraints: any tunnel protocol in country se\n", relay.Country("se")},
		{
			name:   "any port and ownership around country",
			output: "Current constraints: WireGuard over any port, location country se, ownership any\n",
			want:   relay.Country("se"),
		},
		{"any on another line", "Tunnel protocol: any\nLocation: country se\n", relay.Country("se")},
		{"empty location value", "Location:\n", relay.Unknown},
		{"empty", "", relay.Unknown},
		{"truncated city", "Location: city\n", relay.Unknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseRelayConstraint(tt.output))
		})
	}
}
