package config

import (
	"os"
	"strconv"
	"time"
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv(cfg *Config) {
	if port := os.Getenv("DCTIP_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if logLevel := os.Getenv("DCTIP_LOG_LEVEL"); logLevel != "" {
		cfg.Server.LogLevel = logLevel
	}
	if logFormat := os.Getenv("DCTIP_LOG_FORMAT"); logFormat != "" {
		cfg.Server.LogFormat = logFormat
	}

	// Store and database
	cfg.Store.Driver = GetEnvOrDefault("DCTIP_STORE_DRIVER", cfg.Store.Driver)
	cfg.Database.Host = GetEnvOrDefault("DCTIP_DB_HOST", cfg.Database.Host)
	if port := os.Getenv("DCTIP_DB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Database.Port = p
		}
	}
	cfg.Database.Name = GetEnvOrDefault("DCTIP_DB_NAME", cfg.Database.Name)
	cfg.Database.User = GetEnvOrDefault("DCTIP_DB_USER", cfg.Database.User)
	cfg.Database.Password = GetEnvOrDefault("DCTIP_DB_PASSWORD", cfg.Database.Password)
	cfg.Database.SSLMode = GetEnvOrDefault("DCTIP_DB_SSLMODE", cfg.Database.SSLMode)

	// Auth
	cfg.Auth.JWTSecret = GetEnvOrDefault("DCTIP_JWT_SECRET", cfg.Auth.JWTSecret)
	if ttl := os.Getenv("DCTIP_TOKEN_TTL"); ttl != "" {
		if d, err := time.ParseDuration(ttl); err == nil {
			cfg.Auth.TokenTTL = d
		}
	}

	// Document storage
	cfg.Blob.Driver = GetEnvOrDefault("DCTIP_BLOB_DRIVER", cfg.Blob.Driver)
	cfg.Blob.LocalPath = GetEnvOrDefault("DCTIP_BLOB_PATH", cfg.Blob.LocalPath)
	cfg.Blob.S3Endpoint = GetEnvOrDefault("DCTIP_S3_ENDPOINT", cfg.Blob.S3Endpoint)
	cfg.Blob.S3Region = GetEnvOrDefault("DCTIP_S3_REGION", cfg.Blob.S3Region)
	cfg.Blob.S3Bucket = GetEnvOrDefault("DCTIP_S3_BUCKET", cfg.Blob.S3Bucket)
	cfg.Blob.S3AccessKey = GetEnvOrDefault("DCTIP_S3_ACCESS_KEY", cfg.Blob.S3AccessKey)
	cfg.Blob.S3SecretKey = GetEnvOrDefault("DCTIP_S3_SECRET_KEY", cfg.Blob.S3SecretKey)

	if rps := os.Getenv("DCTIP_RATE_LIMIT_RPS"); rps != "" {
		if v, err := strconv.Atoi(rps); err == nil {
			cfg.RateLimit.RequestsPerSecond = v
		}
	}

	if v := os.Getenv("DCTIP_ESTIMATE_UNMEASURED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Compliance.EstimateUnmeasured = b
		}
	}
}

// GetEnvOrDefault returns environment variable or default value
func GetEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
