package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/eventara/certgen/internal/flagx"
	"github.com/eventara/certgen/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// This struct is an intermediate DTO (Data Transfer Object) used only for
// reading JSON configuration files. After unmarshalling, its fields are
// copied into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDSN             string         `json:"database_dsn"`
	PublicBaseURL           string         `json:"public_base_url"`
	LocalStorageDir         string         `json:"local_storage_dir"`
	S3RootUser              string         `json:"s3_root_user"`
	S3RootPassword          string         `json:"s3_root_password"`
	S3Bucket                string         `json:"s3_bucket"`
	S3Region                string         `json:"s3_region"`
	S3BaseEndpoint          string         `json:"s3_base_endpoint"`
	S3UsePathStyle          *bool          `json:"s3_use_path_style"`
	CertificateURLTTL       timex.Duration `json:"certificate_url_ttl"`
	URLClockSkew            timex.Duration `json:"url_clock_skew"`
	CompressThreshold       *int           `json:"compress_threshold"`
	CompressionLevel        *int           `json:"compression_level"`
	KeepLocalAfterMigration *bool          `json:"keep_local_after_migration"`
	BulkRenderWidth         *int           `json:"bulk_render_width"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// Only fields present in the file override the current values; absent
// fields keep whatever the earlier layers produced. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.PublicBaseURL != "" {
		config.PublicBaseURL = c.PublicBaseURL
	}
	if c.LocalStorageDir != "" {
		config.LocalStorageDir = c.LocalStorageDir
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
	if c.S3UsePathStyle != nil {
		config.S3UsePathStyle = *c.S3UsePathStyle
	}
	if c.CertificateURLTTL.Duration != 0 {
		config.CertificateURLTTL = time.Duration(c.CertificateURLTTL.Duration)
	}
	if c.URLClockSkew.Duration != 0 {
		config.URLClockSkew = time.Duration(c.URLClockSkew.Duration)
	}
	if c.CompressThreshold != nil {
		config.CompressThreshold = *c.CompressThreshold
	}
	if c.CompressionLevel != nil {
		config.CompressionLevel = *c.CompressionLevel
	}
	if c.KeepLocalAfterMigration != nil {
		config.KeepLocalAfterMigration = *c.KeepLocalAfterMigration
	}
	if c.BulkRenderWidth != nil {
		config.BulkRenderWidth = *c.BulkRenderWidth
	}
}
