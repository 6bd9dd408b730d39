package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/bizkeeper/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Intervals are
// given in whole seconds. After parsing, values are copied into the runtime
// Config (which uses time.Duration).
type JsonConfig struct {
	ServerEndpointAddr  string `json:"server_endpoint_addr"`
	DatabasePath        string `json:"database_path"`
	LegacySnapshotPath  string `json:"legacy_snapshot_path"`
	OnlineCheckInterval int    `json:"online_check_interval"`
	SyncInterval        int    `json:"sync_interval"`
	SyncStaleness       int    `json:"sync_staleness"`
}

// parseJson overlays Config with values loaded from a JSON file resolved via
// the -c/-config flags. Missing file path means no overlay. Panics on read
// or unmarshal errors (caller should recover if desired). Intended usage is:
// defaults -> parseJson -> parseFlags, where later stages override earlier ones.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = jc.ServerEndpointAddr
	}
	if jc.DatabasePath != "" {
		cfg.DatabasePath = jc.DatabasePath
	}
	if jc.LegacySnapshotPath != "" {
		cfg.LegacySnapshotPath = jc.LegacySnapshotPath
	}
	if jc.OnlineCheckInterval > 0 {
		cfg.OnlineCheckInterval = time.Duration(jc.OnlineCheckInterval) * time.Second
	}
	if jc.SyncInterval > 0 {
		cfg.SyncInterval = time.Duration(jc.SyncInterval) * time.Second
	}
	if jc.SyncStaleness > 0 {
		cfg.SyncStaleness = time.Duration(jc.SyncStaleness) * time.Second
	}
}
