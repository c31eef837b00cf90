package config

import "github.com/spf13/pflag"

// BindFlags registers the persistent CLI flags on fs, defaulting to the
// values already in cfg so flags override every earlier source.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	fs.StringVarP(&cfg.ServerURL, "server", "s", cfg.ServerURL, "paaster server URL")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "request timeout")
	fs.StringVar(&cfg.HistoryPath, "history", cfg.HistoryPath, "local share history database (empty disables)")
}
