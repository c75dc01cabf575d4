package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays Config fields from environment variables, loading an
// optional .env file first. Unset variables leave the current values alone.
func parseEnv(config *Config) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using system environment variables")
	}

	config.DatabaseDSN = getEnv("DATABASE_DSN", config.DatabaseDSN)
	config.PublicBaseURL = getEnv("PUBLIC_BASE_URL", config.PublicBaseURL)
	config.LocalStorageDir = getEnv("LOCAL_STORAGE_DIR", config.LocalStorageDir)
	config.S3RootUser = getEnv("S3_ROOT_USER", config.S3RootUser)
	config.S3RootPassword = getEnv("S3_ROOT_PASSWORD", config.S3RootPassword)
	config.S3Bucket = getEnv("S3_BUCKET", config.S3Bucket)
	config.S3Region = getEnv("S3_REGION", config.S3Region)
	config.S3BaseEndpoint = getEnv("S3_BASE_ENDPOINT", config.S3BaseEndpoint)
	config.S3UsePathStyle = getEnvBool("S3_USE_PATH_STYLE", config.S3UsePathStyle)
	config.CertificateURLTTL = getEnvDuration("CERTIFICATE_URL_TTL", config.CertificateURLTTL)
	config.URLClockSkew = getEnvDuration("URL_CLOCK_SKEW", config.URLClockSkew)
	config.CompressThreshold = getEnvInt("COMPRESS_THRESHOLD", config.CompressThreshold)
	config.CompressionLevel = getEnvInt("COMPRESSION_LEVEL", config.CompressionLevel)
	config.KeepLocalAfterMigration = getEnvBool("KEEP_LOCAL_AFTER_MIGRATION", config.KeepLocalAfterMigration)
	config.BulkRenderWidth = getEnvInt("BULK_RENDER_WIDTH", config.BulkRenderWidth)
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid integer in %s: %q, keeping %d", key, v, fallback)
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("invalid boolean in %s: %q, keeping %v", key, v, fallback)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("invalid duration in %s: %q, keeping %v", key, v, fallback)
		return fallback
	}
	return d
}
