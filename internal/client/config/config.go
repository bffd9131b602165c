package config

import "time"

// Config holds runtime settings for the daybook client.
type Config struct {
	ServerEndpointAddr  string
	AccessToken         string
	OnlineCheckInterval time.Duration
	SyncInterval        time.Duration
	SyncDebounce        time.Duration
	RPCTimeout          time.Duration
	DatabasePath        string
	LogFile             string
	DebugAddr           string
	ForceOffline        bool
	Verbose             bool
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.SyncInterval = 60 * time.Second
	c.SyncDebounce = time.Second
	c.RPCTimeout = 15 * time.Second
	c.DatabasePath = "daybook.db"
	c.LogFile = "daybook.log"
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
