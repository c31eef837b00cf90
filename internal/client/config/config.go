package config

import "time"

// Config holds runtime settings for the paaster CLI.
type Config struct {
	ServerURL string
	Timeout   time.Duration

	// HistoryPath is the SQLite file with locally published shares.
	// Empty disables history.
	HistoryPath string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.Timeout = 30 * time.Second
	c.HistoryPath = "paaster.db"
}

// LoadConfig constructs a Config from defaults, the environment and an
// optional JSON file. Flags are applied later by the command tree.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)
	parseJson(cfg)
	return cfg
}
