// Package common provides shared constants, types, and utilities
// used across mullvad-rotate.
package common

import "time"

// Application metadata.
const (
	// AppName is the display name of the application.
	AppName = "mullvad-rotate"
	// ConfigDirName is the name of the configuration directory.
	ConfigDirName = "mullvad-rotate"
)

// File names used by the application.
const (
	ConfigFileName       = "config.yaml"
	CatalogCacheFileName = "relays.db"
	LogFileName          = "mullvad-rotate.log"
)

// Default timeouts and intervals.
const (
	// CommandTimeout bounds a single call to the VPN client.
	CommandTimeout = 10 * time.Second
	// CatalogTimeout bounds a single catalog download.
	CatalogTimeout = 10 * time.Second
	// CatalogTTL is how long a cached catalog is used without refetching.
	CatalogTTL = 1 * time.Hour
	// ConnectionTimeout is the maximum time to wait for a connection.
	ConnectionTimeout = 30 * time.Second
	// MonitorInterval is how often to check connection status.
	MonitorInterval = 500 * time.Millisecond
)

// External endpoints and binaries.
const (
	// DefaultCatalogURL serves the public relay list.
	DefaultCatalogURL = "https://api.mullvad.net/www/relays/all/"
	// DefaultMullvadBinary is looked up in PATH.
	DefaultMullvadBinary = "mullvad"
)
