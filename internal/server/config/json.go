package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/paaster/internal/flagx"
	"github.com/dmitrijs2005/paaster/internal/timex"
)

// JsonConfig is the on-disk shape of the optional JSON config file.
// Durations accept "90s"-style strings or integer nanoseconds.
type JsonConfig struct {
	EndpointAddrHTTP           string         `json:"endpoint_addr_http"`
	LogLevel                   string         `json:"log_level"`
	StoreDriver                string         `json:"store_driver"`
	DatabaseDSN                string         `json:"database_dsn"`
	SweepSecret                string         `json:"sweep_secret"`
	SweepTokenValidityDuration timex.Duration `json:"sweep_token_validity_duration"`
	SweepInterval              timex.Duration `json:"sweep_interval"`
	UploadPath                 string         `json:"upload_path"`
	MaxAttachmentSize          int64          `json:"max_attachment_size"`
	BlobDriver                 string         `json:"blob_driver"`
	LocalBlobDir               string         `json:"local_blob_dir"`
	PublicBaseURL              string         `json:"public_base_url"`
	S3RootUser                 string         `json:"s3_root_user"`
	S3RootPassword             string         `json:"s3_root_password"`
	S3Bucket                   string         `json:"s3_bucket"`
	S3Region                   string         `json:"s3_region"`
	S3BaseEndpoint             string         `json:"s3_base_endpoint"`
}

// parseJson loads the file named by -c/-config, if any, and copies every
// field that is present (non-zero) into config. An unreadable or invalid
// file is a startup error and panics.
func parseJson(config *Config) {
	path := flagx.ConfigPath()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrHTTP, c.EndpointAddrHTTP)
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.StoreDriver, c.StoreDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SweepSecret, c.SweepSecret)
	if c.SweepTokenValidityDuration.Duration != 0 {
		config.SweepTokenValidityDuration = c.SweepTokenValidityDuration.Duration
	}
	if c.SweepInterval.Duration != 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	setString(&config.UploadPath, c.UploadPath)
	if c.MaxAttachmentSize > 0 {
		config.MaxAttachmentSize = c.MaxAttachmentSize
	}
	setString(&config.BlobDriver, c.BlobDriver)
	setString(&config.LocalBlobDir, c.LocalBlobDir)
	setString(&config.PublicBaseURL, c.PublicBaseURL)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
