// Package config loads runtime configuration for the paaster CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Environment: PAASTER_SERVER, PAASTER_TIMEOUT, PAASTER_HISTORY.
//  3. Optional JSON file (see parseJson) selected via -c, -config or --config.
//  4. Command-line flags bound with BindFlags (--server, --timeout, --history).
//
// # JSON schema
//
// Durations use timex.Duration, so either "30s" or integer nanoseconds:
//
//	{
//	  "server_url": "https://paaster.example",
//	  "timeout": "30s",
//	  "history_path": "/home/me/.paaster.db"
//	}
package config
