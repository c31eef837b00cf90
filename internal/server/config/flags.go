package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/paaster/internal/flagx"
)

var serverFlags = []string{
	"-a", "-l", "-store", "-d", "-s", "-t", "-i", "-upload", "-m",
	"-blob", "-blobdir", "-public", "-u", "-p", "-b", "-g", "-e",
}

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string        HTTP bind address (e.g., ":8080")
//	-l string        log level (debug, info, warn, error)
//	-store string    object store driver: postgres | memory
//	-d string        PostgreSQL DSN
//	-s string        sweep token HMAC secret
//	-t duration      validity of minted sweep tokens
//	-i duration      in-process sweep interval (0 disables)
//	-upload string   blob path prefix
//	-m int           max attachment size, bytes
//	-blob string     blob driver: s3 | local
//	-blobdir string  local blob directory
//	-public string   public base URL for local blobs
//	-u string        S3 access key
//	-p string        S3 secret key
//	-b string        S3 bucket name
//	-g string        S3 region
//	-e string        S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//
// os.Args is first filtered with flagx.FilterArgs so flags owned by other
// loaders (-c/-config) do not trip the parser.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.StoreDriver, "store", config.StoreDriver, "object store driver (postgres|memory)")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SweepSecret, "s", config.SweepSecret, "sweep token secret")
	fs.DurationVar(&config.SweepTokenValidityDuration, "t", config.SweepTokenValidityDuration, "sweep token validity")
	fs.DurationVar(&config.SweepInterval, "i", config.SweepInterval, "in-process sweep interval, 0 to disable")
	fs.StringVar(&config.UploadPath, "upload", config.UploadPath, "blob path prefix")
	fs.Int64Var(&config.MaxAttachmentSize, "m", config.MaxAttachmentSize, "max attachment size in bytes")
	fs.StringVar(&config.BlobDriver, "blob", config.BlobDriver, "blob driver (s3|local)")
	fs.StringVar(&config.LocalBlobDir, "blobdir", config.LocalBlobDir, "local blob directory")
	fs.StringVar(&config.PublicBaseURL, "public", config.PublicBaseURL, "public base URL for local blobs")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 access key")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 secret key")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}
}
