// Package lockout tracks failed authentication attempts per identity and
// enforces a temporary lock once the limit is reached. Counters live in
// Redis so the lock holds across workers.
package lockout

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Manager enforces attempt-based account lockout
type Manager struct {
	client       *redis.Client
	maxAttempts  int
	lockDuration time.Duration
}

// NewManager creates a lockout manager
func NewManager(client *redis.Client, maxAttempts int, lockDuration time.Duration) *Manager {
	return &Manager{
		client:       client,
		maxAttempts:  maxAttempts,
		lockDuration: lockDuration,
	}
}

// RecordFailure increments the failed-attempt counter for an identifier.
// Failed password and TOTP submissions feed the same counter.
func (m *Manager) RecordFailure(ctx context.Context, identifier string) error {
	key := failureKey(identifier)

	pipe := m.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, m.lockDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record failed attempt: %w", err)
	}

	return nil
}

// IsLocked reports whether the identifier has exhausted its attempt budget
func (m *Manager) IsLocked(ctx context.Context, identifier string) (bool, error) {
	count, err := m.client.Get(ctx, failureKey(identifier)).Int()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, fmt.Errorf("failed to check lockout status: %w", err)
	}

	return count >= m.maxAttempts, nil
}

// Clear resets the failure counter after a successful authentication
func (m *Manager) Clear(ctx context.Context, identifier string) error {
	if err := m.client.Del(ctx, failureKey(identifier)).Err(); err != nil {
		return fmt.Errorf("failed to clear failed attempts: %w", err)
	}
	return nil
}

func failureKey(identifier string) string {
	return fmt.Sprintf("lockout:failed:%s", identifier)
}
