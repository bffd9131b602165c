package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/daybook/internal/flagx"
	"github.com/dmitrijs2005/daybook/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	AccessToken         string         `json:"access_token"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	SyncInterval        timex.Duration `json:"sync_interval"`
	SyncDebounce        timex.Duration `json:"sync_debounce"`
	RPCTimeout          timex.Duration `json:"rpc_timeout"`
	DatabasePath        string         `json:"database_path"`
	LogFile             string         `json:"log_file"`
	DebugAddr           string         `json:"debug_addr"`
	ForceOffline        bool           `json:"force_offline"`
	Verbose             bool           `json:"verbose"`
}

// parseJson overlays Config with values loaded from a JSON file. Zero values
// in the file leave the current setting alone. Read or unmarshal errors panic.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])
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

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.AccessToken, jc.AccessToken)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.LogFile, jc.LogFile)
	setString(&cfg.DebugAddr, jc.DebugAddr)

	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.SyncInterval.Duration > 0 {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	if jc.SyncDebounce.Duration > 0 {
		cfg.SyncDebounce = jc.SyncDebounce.Duration
	}
	if jc.RPCTimeout.Duration > 0 {
		cfg.RPCTimeout = jc.RPCTimeout.Duration
	}
	cfg.ForceOffline = cfg.ForceOffline || jc.ForceOffline
	cfg.Verbose = cfg.Verbose || jc.Verbose
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
