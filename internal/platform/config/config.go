// Copyright (c) 2026 Corvid Labs. All rights reserved.
// Author: platform@corvidlabs.io

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, S3) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Corvid API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value store (Redis) — pending upload handles with TTL
	RedisURL string `env:"REDIS_URL,required"`

	// Token signing. The secret is loaded once at startup and immutable for
	// the process generation; the key id is stamped into every token header
	// so a later rotation can distinguish generations.
	TokenSecret string        `env:"TOKEN_SECRET,required"`
	TokenKeyID  string        `env:"TOKEN_KEY_ID"  envDefault:"v1"`
	TokenTTL    time.Duration `env:"TOKEN_TTL"     envDefault:"30m"`

	// Credential hashing bound (hash-cost DoS guard)
	PasswordMaxBytes int `env:"PASSWORD_MAX_BYTES" envDefault:"256"`

	// Default admin bootstrap (created at startup if absent)
	AdminEmail    string `env:"ADMIN_EMAIL"    envDefault:"admin@corvid.local"`
	AdminPassword string `env:"ADMIN_PASSWORD" envDefault:""`

	// Object Storage (MinIO / S3-compatible)
	S3Endpoint  string `env:"S3_ENDPOINT,required"`
	S3Region    string `env:"S3_REGION"     envDefault:"auto"`
	S3Bucket    string `env:"S3_BUCKET,required"`
	S3AccessKey string `env:"S3_ACCESS_KEY,required"`
	S3SecretKey string `env:"S3_SECRET_KEY,required"`
	S3UseSSL    bool   `env:"S3_USE_SSL"    envDefault:"false"`

	// Attachment policy
	MaxObjectBytes      int64         `env:"MAX_OBJECT_BYTES"      envDefault:"10485760"`
	OwnerQuotaBytes     int64         `env:"OWNER_QUOTA_BYTES"     envDefault:"104857600"`
	AllowedContentTypes []string      `env:"ALLOWED_CONTENT_TYPES" envSeparator:"," envDefault:"image/png,image/jpeg,image/webp,application/pdf"`
	UploadHandleTTL     time.Duration `env:"UPLOAD_HANDLE_TTL"     envDefault:"15m"`
	DownloadURLExpiry   time.Duration `env:"DOWNLOAD_URL_EXPIRY"   envDefault:"5m"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
