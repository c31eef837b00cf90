package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for godotenv.Load. It never overrides variables that
// are already set in the process environment.
var loadDotEnv = func() error { return godotenv.Load() }

// lookupEnv is a seam for os.LookupEnv.
var lookupEnv = os.LookupEnv

// parseEnv overlays values from the environment. A .env file in the working
// directory is loaded first; a missing file is not an error.
//
// Recognised variables:
//
//	PAASTER_ADDR, PAASTER_LOG_LEVEL, PAASTER_STORE, DATABASE_DSN,
//	CRON_SECRET, PAASTER_SWEEP_INTERVAL, UPLOAD_PATH, PAASTER_MAX_ATTACHMENT,
//	PAASTER_BLOB_DRIVER, PAASTER_BLOB_DIR, PAASTER_PUBLIC_URL,
//	S3_ACCESS_KEY, S3_SECRET_KEY, S3_BUCKET, S3_REGION, S3_ENDPOINT
//
// Values that fail to parse are ignored.
func parseEnv(config *Config) {
	_ = loadDotEnv()

	str := func(name string, dst *string) {
		if v, ok := lookupEnv(name); ok && v != "" {
			*dst = v
		}
	}
	dur := func(name string, dst *time.Duration) {
		if v, ok := lookupEnv(name); ok && v != "" {
			if d, err := time.ParseDuration(v); err == nil {
				*dst = d
			}
		}
	}

	str("PAASTER_ADDR", &config.EndpointAddrHTTP)
	str("PAASTER_LOG_LEVEL", &config.LogLevel)
	str("PAASTER_STORE", &config.StoreDriver)
	str("DATABASE_DSN", &config.DatabaseDSN)
	str("CRON_SECRET", &config.SweepSecret)
	dur("PAASTER_SWEEP_INTERVAL", &config.SweepInterval)
	str("UPLOAD_PATH", &config.UploadPath)
	str("PAASTER_BLOB_DRIVER", &config.BlobDriver)
	str("PAASTER_BLOB_DIR", &config.LocalBlobDir)
	str("PAASTER_PUBLIC_URL", &config.PublicBaseURL)
	str("S3_ACCESS_KEY", &config.S3RootUser)
	str("S3_SECRET_KEY", &config.S3RootPassword)
	str("S3_BUCKET", &config.S3Bucket)
	str("S3_REGION", &config.S3Region)
	str("S3_ENDPOINT", &config.S3BaseEndpoint)

	if v, ok := lookupEnv("PAASTER_MAX_ATTACHMENT"); ok && v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			config.MaxAttachmentSize = n
		}
	}
}
