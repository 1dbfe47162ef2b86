package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/config"
	"github.com/yllada/mullvad-rotate/relay"
	"github.com/yllada/mullvad-rotate/rotator"
	"github.com/yllada/mullvad-rotate/vpn"
)

type staticCatalog []relay.Record

func (s staticCatalog) Records(ctx context.Context) ([]relay.Record, error) {
	return s, nil
}

type fakeClient struct {
	connected relay.Location
	calls     []string
}

func (f *fakeClient) CurrentRelay(ctx context.Context) (relay.Location, error) {
	return f.connected, nil
}

func (f *fakeClient) RelayConstraint(ctx context.Context) (relay.Location, error) {
	return relay.Unknown, nil
}

func (f *fakeClient) SetLocation(ctx context.Context, loc relay.Location) error {
	f.calls = append(f.calls, "location "+loc.String())
	return nil
}

func (f *fakeClient) SetHostname(ctx context.Context, hostname string) error {
	f.calls = append(f.calls, "hostname "+hostname)
	return nil
}

func (f *fakeClient) Connect(ctx context.Context) error {
	f.calls = append(f.calls, "connect")
	return nil
}

func (f *fakeClient) Disconnect(ctx context.Context) error {
	f.calls = append(f.calls, "disconnect")
	return nil
}

type fakeNotifier struct {
	titles, messages []string
	kinds            []string
	err              error
}

func (f *fakeNotifier) record(kind, title, message string) error {
	f.kinds = append(f.kinds, kind)
	f.titles = append(f.titles, title)
	f.messages = append(f.messages, message)
	return f.err
}

func (f *fakeNotifier) Notify(title, message string) error {
	return f.record("info", title, message)
}

func (f *fakeNotifier) NotifyWarning(title, message string) error {
	return f.record("warning", title, message)
}

func (f *fakeNotifier) NotifyError(title, message string) error {
	return f.record("error", title, message)
}

type fakeVerifier struct {
	calls int
	err   error
}

func (f *fakeVerifier) Verify(ctx context.Context) (vpn.HealthReport, error) {
	f.calls++
	return vpn.HealthReport{}, f.err
}

func testRecord(host, country, city string) relay.Record {
	return relay.Record{
		Hostname:    host,
		CountryCode: country,
		CityCode:    city,
		Kind:        relay.KindWireGuard,
		Active:      true,
		Provider:    "acme",
		Bandwidth:   10,
		Present:     relay.AllFields,
	}
}

func testCatalog() staticCatalog {
	return staticCatalog{
		testRecord("us-nyc-wg-001", "us", "nyc"),
		testRecord("se-got-wg-001", "se", "got"),
		testRecord("se-sto-wg-001", "se", "sto"),
	}
}

func newTestCLI(client *fakeClient, out *bytes.Buffer, notifier common.Notifier, verifier Verifier) *CLI {
	r := rotator.New(testCatalog(), client, client, relay.NewSelector(7))
	return New(Config{Rotator: r, Out: out, Notifier: notifier, Verifier: verifier})
}

func configDefaults() config.Defaults { return config.Defaults{} }

func parseConstraints(t *testing.T, args ...string) *relay.ConstraintSet {
	t.Helper()
	inv, err := Parse(argv(args...))
	require.NoError(t, err)
	cs, err := inv.Constraints(configDefaults())
	require.NoError(t, err)
	return cs
}

func TestCLI_Print(t *testing.T) {
	tests := []struct {
		target string
		want   string
	}{
		{PrintCountries, "Available countries:\nus\nse\n"},
		{PrintCities, "Available cities:\nus nyc\nse got\nse sto\n"},
		{PrintServers, "Available servers:\nus-nyc-wg-001\nse-got-wg-001\nse-sto-wg-001\n"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			var out bytes.Buffer
			client := &fakeClient{}
			require.NoError(t, newTestCLI(client, &out, nil, nil).Print(context.Background(), tt.target))
			assert.Equal(t, tt.want, out.String())
			assert.Empty(t, client.calls)
		})
	}
}

func TestCLI_PrintUnknownTarget(t *testing.T) {
	var out bytes.Buffer
	err := newTestCLI(&fakeClient{}, &out, nil, nil).Print(context.Background(), "planets")
	assert.True(t, errors.Is(err, common.ErrInvalidOption))
}

func TestCLI_RotateServer(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{connected: relay.Server("se-got-wg-001")}
	notifier := &fakeNotifier{}

	err := newTestCLI(client, &out, notifier, nil).Rotate(context.Background(),
		parseConstraints(t, "--servers", "se-got-wg-001", "se-sto-wg-001"))
	require.NoError(t, err)

	assert.Equal(t, "Changing server to se-sto-wg-001\n", out.String())
	assert.Equal(t, []string{"hostname se-sto-wg-001"}, client.calls)
	assert.Equal(t, []string{"Changing server to se-sto-wg-001"}, notifier.messages)
}

func TestCLI_RotateNotificationFailureIsIgnored(t *testing.T) {
	var out bytes.Buffer
	notifier := &fakeNotifier{err: errors.New("no session bus")}

	err := newTestCLI(&fakeClient{}, &out, notifier, nil).Rotate(context.Background(),
		parseConstraints(t, "--countries", "se"))
	require.NoError(t, err)
	assert.Equal(t, "Changing location to se\n", out.String())
}

func TestCLI_RotatePickModeVerifies(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{connected: relay.Server("se-got-wg-001")}
	verifier := &fakeVerifier{err: common.ErrConnectionFailed}

	err := newTestCLI(client, &out, nil, verifier).Rotate(context.Background(),
		parseConstraints(t, "--countries", "se", "--pick-city"))
	require.NoError(t, err)

	assert.Equal(t, 1, verifier.calls)
	assert.Equal(t, []string{"disconnect", "location se sto", "connect"}, client.calls)
}

func TestCLI_RotateFailedVerifyWarns(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{connected: relay.Server("se-got-wg-001")}
	notifier := &fakeNotifier{}
	verifier := &fakeVerifier{err: common.ErrConnectionFailed}

	err := newTestCLI(client, &out, notifier, verifier).Rotate(context.Background(),
		parseConstraints(t, "--countries", "se", "--pick-city"))
	require.NoError(t, err)

	assert.Equal(t, []string{"warning", "info"}, notifier.kinds)
	assert.Equal(t, "Mullvad connection check failed", notifier.titles[0])
	assert.Equal(t, common.ErrConnectionFailed.Error(), notifier.messages[0])
	assert.Equal(t, "Changing location to se sto", notifier.messages[1])
}

func TestCLI_RotateVerifiedSendsOnlySuccess(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{connected: relay.Server("se-got-wg-001")}
	notifier := &fakeNotifier{}

	err := newTestCLI(client, &out, notifier, &fakeVerifier{}).Rotate(context.Background(),
		parseConstraints(t, "--countries", "se", "--pick-city"))
	require.NoError(t, err)
	assert.Equal(t, []string{"info"}, notifier.kinds)
}

func TestCLI_RotateWithoutPickSkipsVerify(t *testing.T) {
	var out bytes.Buffer
	verifier := &fakeVerifier{}

	err := newTestCLI(&fakeClient{}, &out, nil, verifier).Rotate(context.Background(),
		parseConstraints(t, "--countries", "se"))
	require.NoError(t, err)
	assert.Zero(t, verifier.calls)
}

func TestCLI_RotateVerbose(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{connected: relay.Server("us-nyc-wg-001")}

	err := newTestCLI(client, &out, nil, nil).Rotate(context.Background(),
		parseConstraints(t, "--countries", "us", "se", "--verbose"))
	require.NoError(t, err)

	lines := strings.Split(out.String(), "\n")
	assert.Equal(t, "Changing location to se", lines[0])
	assert.Equal(t, "", lines[1])
	assert.Equal(t, "Available countries given the current constraints:", lines[2])
	assert.Equal(t, "us se", lines[3])
	assert.Equal(t, "Available servers given the current constraints:", lines[4])
	assert.Equal(t, "All servers in the available countries. No sequential switch", lines[5])
	assert.Contains(t, out.String(), "Selected:")
}

func TestCLI_RotateEmptyCandidates(t *testing.T) {
	var out bytes.Buffer
	client := &fakeClient{}

	err := newTestCLI(client, &out, nil, nil).Rotate(context.Background(),
		parseConstraints(t, "--countries", "de"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrEmptyCandidateSet))
	assert.Equal(t, "no available countries amongst the ones specified", err.Error())
	assert.Empty(t, out.String())
	assert.Empty(t, client.calls)
}

func TestCLI_RotateFailureNotifiesError(t *testing.T) {
	var out bytes.Buffer
	notifier := &fakeNotifier{}

	err := newTestCLI(&fakeClient{}, &out, notifier, nil).Rotate(context.Background(),
		parseConstraints(t, "--countries", "de"))
	require.Error(t, err)

	assert.Equal(t, []string{"error"}, notifier.kinds)
	assert.Equal(t, "Mullvad relay change failed", notifier.titles[0])
	assert.Equal(t, err.Error(), notifier.messages[0])
}
