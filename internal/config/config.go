// Package config loads the runtime configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"vaultdrop-backend/pkg/constants"
	"vaultdrop-backend/pkg/env"
)

// Config holds all environment-driven settings
type Config struct {
	Env  string
	Port string

	// Postgres
	DBHost    string
	DBPort    string
	DBUser    string
	DBPass    string
	DBName    string
	DBSSLMode string

	// Redis
	RedisAddr     string
	RedisPassword string

	// MinIO
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Secrets
	JWTSecret            string
	FileEncryptionSecret string

	// Token lifetimes
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	ProvisionalTokenTTL time.Duration

	// Cookies
	CookieDomain   string
	CookieSecure   bool
	CookieSameSite string

	// Share links
	MaxLinkHours int

	// Browser clients allowed by CORS
	CORSOrigins []string
}

// Load reads configuration from the environment, applying defaults suitable
// for local development. Secrets support the *_FILE Docker-secret form.
func Load() *Config {
	isProd := env.GetString("ENV", "development") == "production"

	return &Config{
		Env:  env.GetString("ENV", "development"),
		Port: env.GetString("PORT", "8080"),

		DBHost:    env.GetString("DB_HOST", "localhost"),
		DBPort:    env.GetString("DB_PORT", "5432"),
		DBUser:    env.GetString("DB_USER", "vaultdrop"),
		DBPass:    env.GetStringFromFile("DB_PASSWORD", "vaultdrop"),
		DBName:    env.GetString("DB_NAME", "vaultdrop"),
		DBSSLMode: env.GetString("DB_SSLMODE", "disable"),

		RedisAddr:     env.GetString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: env.GetStringFromFile("REDIS_PASSWORD", ""),

		MinIOEndpoint:  env.GetString("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: env.GetStringFromFile("MINIO_ACCESS_KEY", "minioadmin"),
		MinIOSecretKey: env.GetStringFromFile("MINIO_SECRET_KEY", "minioadmin"),
		MinIOBucket:    env.GetString("MINIO_BUCKET", "vaultdrop-files"),
		MinIOUseSSL:    env.GetBool("MINIO_USE_SSL", false),

		JWTSecret:            env.GetStringFromFile("JWT_SECRET", "change-me-in-production"),
		FileEncryptionSecret: env.GetStringFromFile("FILE_ENCRYPTION_SECRET", "change-me-in-production"),

		AccessTokenTTL:      env.GetDuration("ACCESS_TOKEN_TTL", constants.AccessTokenExpiry),
		RefreshTokenTTL:     env.GetDuration("REFRESH_TOKEN_TTL", constants.RefreshTokenExpiry),
		ProvisionalTokenTTL: env.GetDuration("PROVISIONAL_TOKEN_TTL", constants.ProvisionalTokenExpiry),

		CookieDomain: env.GetString("COOKIE_DOMAIN", ""),
		// Cookies are always httponly; secure cannot be disabled in production
		CookieSecure:   isProd || env.GetBool("COOKIE_SECURE", false),
		CookieSameSite: env.GetString("COOKIE_SAMESITE", "lax"),

		MaxLinkHours: env.GetInt("MAX_LINK_HOURS", constants.DefaultMaxLinkHours),

		CORSOrigins: strings.Split(env.GetString("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173"), ","),
	}
}

// DBConnString returns the Postgres connection string
func (c *Config) DBConnString() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName, c.DBSSLMode)
}
