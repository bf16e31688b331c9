// Package constants defines application-wide constants for timeouts, limits, and durations.
package constants

import "time"

// Time-related constants
const (
	// DefaultTimeout is the default timeout for most operations
	DefaultTimeout = 30 * time.Second

	// GracefulShutdownTimeout is the timeout for graceful server shutdown
	GracefulShutdownTimeout = 30 * time.Second
)

// Token-related constants
const (
	// AccessTokenExpiry is the default access token lifetime
	AccessTokenExpiry = 15 * time.Minute

	// RefreshTokenExpiry is the default refresh token lifetime
	RefreshTokenExpiry = 7 * 24 * time.Hour

	// ProvisionalTokenExpiry is the lifetime of the temporary token issued
	// between password check and MFA completion
	ProvisionalTokenExpiry = 10 * time.Minute
)

// Security and lockout constants
const (
	// MaxFailedAttempts is the number of failed password or TOTP attempts
	// allowed before lockout
	MaxFailedAttempts = 5

	// LockoutDuration is how long an identity remains locked after too many failures
	LockoutDuration = 15 * time.Minute

	// MinPasswordLength is the minimum accepted password length
	MinPasswordLength = 8
)

// Share link constants
const (
	// DefaultMaxLinkHours bounds the expiry window of anonymous share links
	DefaultMaxLinkHours = 24
)

// Storage constants
const (
	// MaxUploadSize is the maximum accepted upload size in bytes
	MaxUploadSize = 100 * 1024 * 1024 // 100 MB

	// DeleteRetryAttempts bounds retries of transient object-delete failures
	DeleteRetryAttempts = 3

	// DeleteRetryInterval is the initial backoff between delete retries
	DeleteRetryInterval = 200 * time.Millisecond
)
