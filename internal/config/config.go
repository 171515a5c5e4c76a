package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	S3      S3Config
	Upload  UploadConfig
	Redis   RedisConfig
	MongoDB MongoDBConfig
	JWT     JWTConfig
	OTEL    OTELConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MaxUploadSizeMB int64
}

// S3Config holds the blob store connection settings.
// Endpoint may point at AWS or any S3-compatible store (SeaweedFS, MinIO, R2).
type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	PublicURL    string // base for returned URLs, defaults to Endpoint
	UsePathStyle bool
	EnsureBucket bool
}

// UploadConfig holds the defaults applied while decoding an upload and naming its object
type UploadConfig struct {
	KeyPrefix          string
	DefaultFilename    string
	DefaultContentType string
	DefaultExtension   string
	Access             string // "public" or "private"
}

// RedisConfig holds Redis connection configuration.
// An empty Addr disables idempotent replays.
type RedisConfig struct {
	Addr           string
	Password       string
	IdempotencyTTL time.Duration
}

// MongoDBConfig holds MongoDB connection configuration.
// An empty URI disables the upload ledger.
type MongoDBConfig struct {
	URI      string
	Database string
}

// JWTConfig holds the optional bearer guard secret
type JWTConfig struct {
	Secret string
}

// OTELConfig holds OpenTelemetry exporter configuration
type OTELConfig struct {
	Enabled        bool
	ServiceName    string
	ServiceVersion string
	Environment    string
	Endpoint       string
	InstanceID     string
	Token          string
}

// Load reads configuration from environment variables
// It attempts to load from .env file first, then falls back to system env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not found)
	_ = godotenv.Load()

	endpoint := getEnv("S3_ENDPOINT", "")

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MaxUploadSizeMB: getEnvAsInt64("MAX_UPLOAD_SIZE_MB", 10),
		},
		S3: S3Config{
			Endpoint:     endpoint,
			Region:       getEnv("S3_REGION", "us-east-1"),
			Bucket:       getEnv("S3_BUCKET", ""),
			AccessKey:    getEnv("S3_ACCESS_KEY", ""),
			SecretKey:    getEnv("S3_SECRET_KEY", ""),
			PublicURL:    getEnv("S3_PUBLIC_URL", endpoint),
			UsePathStyle: getEnvAsBool("S3_USE_PATH_STYLE", true),
			EnsureBucket: getEnvAsBool("S3_ENSURE_BUCKET", false),
		},
		Upload: UploadConfig{
			KeyPrefix:          getEnv("UPLOAD_KEY_PREFIX", "cookbook"),
			DefaultFilename:    getEnv("UPLOAD_DEFAULT_FILENAME", "upload.jpg"),
			DefaultContentType: getEnv("UPLOAD_DEFAULT_CONTENT_TYPE", "application/octet-stream"),
			DefaultExtension:   getEnv("UPLOAD_DEFAULT_EXTENSION", "jpg"),
			Access:             strings.ToLower(getEnv("UPLOAD_ACCESS", "public")),
		},
		Redis: RedisConfig{
			Addr:           getEnv("REDIS_ADDR", ""),
			Password:       getEnv("REDIS_PASSWORD", ""),
			IdempotencyTTL: getEnvAsDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", ""),
			Database: getEnv("MONGODB_DATABASE", "cookbook"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", ""),
		},
		OTEL: OTELConfig{
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "cookbook-upload"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "dev"),
			Environment:    getEnv("OTEL_ENVIRONMENT", "development"),
			Endpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			InstanceID:     getEnv("OTEL_INSTANCE_ID", ""),
			Token:          getEnv("OTEL_TOKEN", ""),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present
func (c *Config) Validate() error {
	if c.S3.Bucket == "" {
		return fmt.Errorf("S3_BUCKET is required")
	}
	if c.S3.Endpoint == "" && c.S3.PublicURL == "" {
		return fmt.Errorf("S3_ENDPOINT or S3_PUBLIC_URL is required")
	}
	if c.Upload.Access != "public" && c.Upload.Access != "private" {
		return fmt.Errorf("UPLOAD_ACCESS must be public or private, got %q", c.Upload.Access)
	}
	if c.Server.MaxUploadSizeMB <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE_MB must be positive")
	}
	if c.OTEL.Enabled && c.OTEL.Endpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is set")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 retrieves an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
