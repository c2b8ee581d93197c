package config

import "time"

// Config holds runtime settings for the AutoChecks CLI.
//
// Fields:
//   - ServerEndpointURL: base URL of the backend HTTP API.
//   - DatabasePath: path to the device SQLite database.
//   - DebounceInterval: how long to wait after the last local edit before
//     auto-pushing.
//   - OnlineCheckInterval: how often the client probes server reachability.
type Config struct {
	ServerEndpointURL   string
	DatabasePath        string
	DebounceInterval    time.Duration
	OnlineCheckInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointURL = "http://127.0.0.1:8080"
	c.DatabasePath = "autochecks.db"
	c.DebounceInterval = 900 * time.Millisecond
	c.OnlineCheckInterval = 3 * time.Second
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
