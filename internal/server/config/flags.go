package config

import (
	"flag"
	"os"
	"time"

	"github.com/eventara/certgen/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-d string   PostgreSQL DSN
//	-o string   public base URL used in verification links
//	-l string   local storage root directory
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-s bool     use path-style S3 addressing (use -s=false to disable)
//	-t int      certificate URL validity, hours
//	-k int      URL clock skew allowance, minutes
//	-z int      compression threshold, bytes
//	-x int      compression level (flate levels, -1..9)
//	-m bool     keep local files after migration (use -m=false to disable)
//	-w int      bulk render concurrency width
//
// Notes:
//   - The function first filters os.Args to only the flags it recognizes using
//     flagx.FilterArgs, avoiding collisions with other components.
//   - Duration flags are accepted as integers and then converted to
//     time.Duration values.
//   - Boolean flags follow the standard flag package convention and take
//     values in the -m=false form.
func parseFlags(config *Config) {
	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], []string{"-d", "-o", "-l", "-u", "-p", "-b", "-g", "-e", "-s", "-t", "-k", "-z", "-x", "-m", "-w"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.PublicBaseURL, "o", config.PublicBaseURL, "public base URL for verification links")
	fs.StringVar(&config.LocalStorageDir, "l", config.LocalStorageDir, "local storage root directory")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 root bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 root region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.BoolVar(&config.S3UsePathStyle, "s", config.S3UsePathStyle, "use path-style S3 addressing")

	certificateURLTTL := fs.Int("t", int(config.CertificateURLTTL.Hours()), "certificate_url_ttl (in hours)")
	urlClockSkew := fs.Int("k", int(config.URLClockSkew.Minutes()), "url_clock_skew (in minutes)")

	fs.IntVar(&config.CompressThreshold, "z", config.CompressThreshold, "compression threshold in bytes")
	fs.IntVar(&config.CompressionLevel, "x", config.CompressionLevel, "flate compression level")
	fs.BoolVar(&config.KeepLocalAfterMigration, "m", config.KeepLocalAfterMigration, "keep local files after migration to blob storage")
	fs.IntVar(&config.BulkRenderWidth, "w", config.BulkRenderWidth, "bulk render concurrency width")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CertificateURLTTL = time.Duration(*certificateURLTTL) * time.Hour
	config.URLClockSkew = time.Duration(*urlClockSkew) * time.Minute
}
