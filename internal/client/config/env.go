package config

import (
	"os"
	"time"
)

// lookupEnv is a seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

func parseEnv(cfg *Config) {
	if v, ok := lookupEnv("PAASTER_SERVER"); ok && v != "" {
		cfg.ServerURL = v
	}
	if v, ok := lookupEnv("PAASTER_HISTORY"); ok {
		cfg.HistoryPath = v
	}
	if v, ok := lookupEnv("PAASTER_TIMEOUT"); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
}
