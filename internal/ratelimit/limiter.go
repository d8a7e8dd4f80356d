package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter throttles failed logins per email and client IP using Redis
type Limiter struct {
	client          *redis.Client
	window          time.Duration // Time window for counting failures
	maxAttempts     int           // Failures allowed in window
	lockoutDuration time.Duration // How long to block after exceeding limit
}

// NewLimiter creates a new login limiter
func NewLimiter(client *redis.Client, window time.Duration, maxAttempts int, lockoutDuration time.Duration) *Limiter {
	return &Limiter{
		client:          client,
		window:          window,
		maxAttempts:     maxAttempts,
		lockoutDuration: lockoutDuration,
	}
}

// AttemptKey returns the Redis key counting failed logins
func AttemptKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:login:%s:%s", ipAddress, strings.ToLower(email))
}

// LockoutKey returns the Redis key marking a lockout
func LockoutKey(email, ipAddress string) string {
	return fmt.Sprintf("ratelimit:lockout:%s:%s", ipAddress, strings.ToLower(email))
}

// Allow reports whether a login attempt may proceed. When it may not, the
// remaining lockout is returned.
func (l *Limiter) Allow(ctx context.Context, email, ipAddress string) (bool, time.Duration, error) {
	lockoutKey := LockoutKey(email, ipAddress)

	ttl, err := l.client.TTL(ctx, lockoutKey).Result()
	if err != nil && err != redis.Nil {
		return false, 0, fmt.Errorf("failed to check lockout status: %w", err)
	}
	if ttl > 0 {
		return false, ttl, nil
	}

	attemptKey := AttemptKey(email, ipAddress)
	count, err := l.client.Get(ctx, attemptKey).Int()
	if err != nil && err != redis.Nil {
		return false, 0, fmt.Errorf("failed to get attempt count: %w", err)
	}

	if count < l.maxAttempts {
		return true, 0, nil
	}

	// Exceeded: swap the counter for a lockout
	pipe := l.client.TxPipeline()
	pipe.Set(ctx, lockoutKey, "1", l.lockoutDuration)
	pipe.Del(ctx, attemptKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("failed to set lockout: %w", err)
	}
	return false, l.lockoutDuration, nil
}

// Failed records a failed login attempt
func (l *Limiter) Failed(ctx context.Context, email, ipAddress string) error {
	attemptKey := AttemptKey(email, ipAddress)

	count, err := l.client.Incr(ctx, attemptKey).Result()
	if err != nil {
		return fmt.Errorf("failed to increment attempt counter: %w", err)
	}

	// Window starts at the first failure
	if count == 1 {
		if err := l.client.Expire(ctx, attemptKey, l.window).Err(); err != nil {
			return fmt.Errorf("failed to set expiry: %w", err)
		}
	}

	return nil
}

// Succeeded clears the failure counter after a successful login
func (l *Limiter) Succeeded(ctx context.Context, email, ipAddress string) error {
	if err := l.client.Del(ctx, AttemptKey(email, ipAddress)).Err(); err != nil {
		return fmt.Errorf("failed to clear attempt counter: %w", err)
	}
	return nil
}
