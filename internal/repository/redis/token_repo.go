// Package redis contains the Redis-backed token blacklist consumed at
// logout.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TokenRepository tracks invalidated refresh tokens by JTI. Entries expire
// with the token itself, so the blacklist never outgrows the live token set.
type TokenRepository struct {
	client *redis.Client
}

// NewTokenRepository creates a new TokenRepository
func NewTokenRepository(client *redis.Client) *TokenRepository {
	return &TokenRepository{client: client}
}

// BlacklistToken records a token's JTI until its natural expiry
func (r *TokenRepository) BlacklistToken(ctx context.Context, jti string, expiresIn time.Duration) error {
	key := blacklistKey(jti)

	if err := r.client.Set(ctx, key, "1", expiresIn).Err(); err != nil {
		return fmt.Errorf("failed to blacklist token: %w", err)
	}

	return nil
}

// IsTokenBlacklisted reports whether a JTI has been invalidated
func (r *TokenRepository) IsTokenBlacklisted(ctx context.Context, jti string) (bool, error) {
	result, err := r.client.Exists(ctx, blacklistKey(jti)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token blacklist: %w", err)
	}

	return result > 0, nil
}

func blacklistKey(jti string) string {
	return fmt.Sprintf("token:blacklist:%s", jti)
}
