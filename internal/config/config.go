package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Blob drivers
const (
	BlobNone  = "none"
	BlobLocal = "local"
	BlobS3    = "s3"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Auth       AuthConfig       `yaml:"auth"`
	Blob       BlobConfig       `yaml:"blob"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Compliance ComplianceConfig `yaml:"compliance"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"` // memory | postgres
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type BlobConfig struct {
	Driver           string `yaml:"driver"` // none | local | s3
	LocalPath        string `yaml:"local_path"`
	S3Endpoint       string `yaml:"s3_endpoint"`
	S3Region         string `yaml:"s3_region"`
	S3Bucket         string `yaml:"s3_bucket"`
	S3AccessKey      string `yaml:"s3_access_key"`
	S3SecretKey      string `yaml:"s3_secret_key"`
	CompressionLevel int    `yaml:"compression_level"`
}

type RateLimitConfig struct {
	RequestsPerSecond int `yaml:"requests_per_second"`
	Burst             int `yaml:"burst"`
}

type ComplianceConfig struct {
	// EstimateUnmeasured fills standards without controls with a jittered
	// copy of the overall score instead of leaving them null.
	EstimateUnmeasured bool `yaml:"estimate_unmeasured"`
	AuditHistoryLimit  int  `yaml:"audit_history_limit"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8000,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
			LogLevel:     "info",
			LogFormat:    "json",
		},
		Store: StoreConfig{Driver: StoreMemory},
		Database: DatabaseConfig{
			Host:    "localhost",
			Port:    5432,
			Name:    "dctip",
			User:    "dctip",
			SSLMode: "disable",
		},
		Auth: AuthConfig{
			JWTSecret: "change-me-in-production",
			TokenTTL:  24 * time.Hour,
		},
		Blob: BlobConfig{
			Driver:           BlobNone,
			LocalPath:        "/tmp/dctip-documents",
			S3Region:         "us-east-1",
			CompressionLevel: 3,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
		},
		Compliance: ComplianceConfig{
			AuditHistoryLimit: 100,
		},
	}
}

// Load reads a YAML file on top of Default. An empty path returns Default.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path) // #nosec G304 -- operator supplied config path
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port: %d", c.Server.Port)
	}
	switch c.Store.Driver {
	case StoreMemory, StorePostgres:
	default:
		return fmt.Errorf("config: invalid store driver: %q", c.Store.Driver)
	}
	switch c.Blob.Driver {
	case BlobNone, BlobLocal:
	case BlobS3:
		if c.Blob.S3Bucket == "" {
			return errors.New("config: s3 blob driver requires a bucket")
		}
	default:
		return fmt.Errorf("config: invalid blob driver: %q", c.Blob.Driver)
	}
	if c.Auth.JWTSecret == "" {
		return errors.New("config: jwt secret is required")
	}
	if c.RateLimit.RequestsPerSecond <= 0 || c.RateLimit.Burst <= 0 {
		return errors.New("config: rate limit must be positive")
	}
	return nil
}
