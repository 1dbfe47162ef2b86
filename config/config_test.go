package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "mullvad", cfg.MullvadBinary)
	assert.Equal(t, common.DefaultCatalogURL, cfg.CatalogURL)
	assert.Equal(t, time.Hour, cfg.CatalogTTL)
	assert.Equal(t, 10*time.Second, cfg.CommandTimeout)
	assert.True(t, cfg.VerifyConnection)
	assert.False(t, cfg.LegacyHostnameCommand)
}

func TestLoadFrom_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.FileExists(t, path)

	again, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoadFrom_ParsesValues(t *testing.T) {
	path := writeConfig(t, `
mullvad_binary: /usr/bin/mullvad
catalog_ttl: 30m
command_timeout: 5s
legacy_hostname_command: true
show_notifications: true
defaults:
  countries: [se, no]
  cities: ["se got"]
  isp_not: [acme]
  tunnel_protocol: wireguard
  min_bandwidth: 10
`)

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, "/usr/bin/mullvad", cfg.MullvadBinary)
	assert.Equal(t, 30*time.Minute, cfg.CatalogTTL)
	assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
	assert.True(t, cfg.LegacyHostnameCommand)
	assert.True(t, cfg.ShowNotifications)
	assert.Equal(t, []string{"se", "no"}, cfg.Defaults.Countries)
	assert.Equal(t, "wireguard", cfg.Defaults.TunnelProtocol)
	assert.Equal(t, 10, cfg.Defaults.MinBandwidth)

	cities, err := cfg.Defaults.CityLocations()
	require.NoError(t, err)
	assert.Equal(t, []relay.Location{relay.City("se", "got")}, cities)
}

func TestLoadFrom_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown field", "theme: dark\n"},
		{"bad protocol", "defaults:\n  tunnel_protocol: ikev2\n"},
		{"bad ownership", "defaults:\n  ownership: leased\n"},
		{"bad stboot", "defaults:\n  stboot: sometimes\n"},
		{"negative bandwidth", "defaults:\n  min_bandwidth: -1\n"},
		{"malformed city", "defaults:\n  cities: [\"se\"]\n"},
		{"negative ttl", "catalog_ttl: -1m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.True(t, errors.Is(err, common.ErrConfigLoad))
		})
	}
}

func TestLoadFrom_FillsEmptyValues(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "mullvad_binary: \"\"\ncommand_timeout: 0s\n"))
	require.NoError(t, err)

	assert.Equal(t, common.DefaultMullvadBinary, cfg.MullvadBinary)
	assert.Equal(t, common.CommandTimeout, cfg.CommandTimeout)
}
