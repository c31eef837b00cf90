package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/paaster/internal/flagx"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL   string         `json:"server_url"`
	Timeout     timex.Duration `json:"timeout"`
	HistoryPath string         `json:"history_path"`
}

// parseJson overlays cfg with the non-empty values of the JSON file named
// by -c/-config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.ConfigPath()
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

	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.HistoryPath != "" {
		cfg.HistoryPath = jc.HistoryPath
	}
	if jc.Timeout.Duration != 0 {
		cfg.Timeout = jc.Timeout.Duration
	}
}
