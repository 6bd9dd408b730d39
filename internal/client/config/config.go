// Package config handles configuration for the client component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the BizKeeper CLI.
//
// Fields:
//   - ServerEndpointAddr: base URL of the backend HTTP endpoint.
//   - DatabasePath: location of the local SQLite database.
//   - LegacySnapshotPath: location of the legacy flat-state blob, if any.
//   - OnlineCheckInterval: how often the client probes server reachability.
//   - SyncInterval: period of the timer trigger feeding the controller.
//   - SyncStaleness: minimum idle time before automatic triggers resync.
type Config struct {
	ServerEndpointAddr  string
	DatabasePath        string
	LegacySnapshotPath  string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	SyncStaleness       time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "http://127.0.0.1:8080"
	c.DatabasePath = "bizkeeper.db"
	c.LegacySnapshotPath = "legacy-data.json"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 30 * time.Second
	c.SyncStaleness = 60 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
