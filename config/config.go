// Package config provides configuration management for mullvad-rotate.
// It handles loading, saving, and validating application settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yllada/mullvad-rotate/common"
	"github.com/yllada/mullvad-rotate/relay"
)

// Config represents the application configuration.
// All settings are persisted to a YAML file in the user's config directory.
type Config struct {
	// MullvadBinary is the VPN client executable, looked up in PATH.
	MullvadBinary string `yaml:"mullvad_binary"`
	// CatalogURL serves the relay list as JSON.
	CatalogURL string `yaml:"catalog_url"`
	// CatalogTTL is how long a cached relay list is used before refetching.
	CatalogTTL time.Duration `yaml:"catalog_ttl"`
	// CommandTimeout bounds every call to the VPN client and the catalog.
	CommandTimeout time.Duration `yaml:"command_timeout"`
	// LegacyHostnameCommand uses "relay set hostname" instead of
	// "relay set location" for single servers (older clients).
	LegacyHostnameCommand bool `yaml:"legacy_hostname_command"`
	// ShowNotifications enables desktop notifications after a switch.
	ShowNotifications bool `yaml:"show_notifications"`
	// VerifyConnection waits for the tunnel after reconnecting in pick modes.
	VerifyConnection bool `yaml:"verify_connection"`
	// LogToFile enables the rotating log file.
	LogToFile bool `yaml:"log_to_file"`
	// Defaults are constraints used when the command line leaves an axis unset.
	Defaults Defaults `yaml:"defaults"`
}

// Defaults mirrors the constraint flags of the command line.
type Defaults struct {
	Countries      []string `yaml:"countries,omitempty"`
	Cities         []string `yaml:"cities,omitempty"` // "<country> <city>"
	Servers        []string `yaml:"servers,omitempty"`
	ISP            []string `yaml:"isp,omitempty"`
	ISPNot         []string `yaml:"isp_not,omitempty"`
	TunnelProtocol string   `yaml:"tunnel_protocol,omitempty"`
	Ownership      string   `yaml:"ownership,omitempty"`
	Stboot         string   `yaml:"stboot,omitempty"`
	MinBandwidth   int      `yaml:"min_bandwidth,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		MullvadBinary:     common.DefaultMullvadBinary,
		CatalogURL:        common.DefaultCatalogURL,
		CatalogTTL:        common.CatalogTTL,
		CommandTimeout:    common.CommandTimeout,
		ShowNotifications: false,
		VerifyConnection:  true,
		LogToFile:         false,
	}
}

// Load loads the configuration from the default config file.
// If the file doesn't exist, it creates one with default values.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom loads the configuration from path, creating it with default
// values if it doesn't exist.
func LoadFrom(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		cfg := DefaultConfig()
		if err := cfg.SaveTo(configPath); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	file, err := os.Open(configPath)
	if err != nil {
		return nil, fmt.Errorf("%w: error opening configuration: %w", common.ErrConfigLoad, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true) // Strict validation: reject unknown fields

	config := DefaultConfig()
	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("%w: error parsing configuration: %w", common.ErrConfigLoad, err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid configuration: %w", common.ErrConfigLoad, err)
	}

	return config, nil
}

// validate verifies that configuration values are valid
func (c *Config) validate() error {
	if c.MullvadBinary == "" {
		c.MullvadBinary = common.DefaultMullvadBinary
	}
	if c.CatalogURL == "" {
		c.CatalogURL = common.DefaultCatalogURL
	}
	if c.CommandTimeout <= 0 {
		c.CommandTimeout = common.CommandTimeout
	}
	if c.CatalogTTL < 0 {
		return fmt.Errorf("%w: catalog_ttl must not be negative", common.ErrInvalidOption)
	}

	d := c.Defaults
	if d.MinBandwidth < 0 {
		return fmt.Errorf("%w: min_bandwidth must not be negative", common.ErrInvalidOption)
	}
	if _, err := relay.ParseProtocol(d.TunnelProtocol); err != nil {
		return err
	}
	if _, err := relay.ParseOwnership(d.Ownership); err != nil {
		return err
	}
	if _, err := relay.ParseStboot(d.Stboot); err != nil {
		return err
	}
	if _, err := d.CityLocations(); err != nil {
		return err
	}
	return nil
}

// CityLocations parses the "<country> <city>" entries of Cities.
func (d Defaults) CityLocations() ([]relay.Location, error) {
	var out []relay.Location
	for _, entry := range d.Cities {
		fields := strings.Fields(entry)
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: city %q must be \"<country> <city>\"", common.ErrInvalidOption, entry)
		}
		out = append(out, relay.City(fields[0], fields[1]))
	}
	return out, nil
}

// SaveTo saves the configuration to path.
func (c *Config) SaveTo(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0700); err != nil {
		return fmt.Errorf("%w: error creating config directory: %w", common.ErrConfigSave, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("%w: error serializing configuration: %w", common.ErrConfigSave, err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("%w: error saving configuration: %w", common.ErrConfigSave, err)
	}

	return nil
}

// DefaultPath returns the path of the configuration file.
func DefaultPath() (string, error) {
	configDir, err := common.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, common.ConfigFileName), nil
}
