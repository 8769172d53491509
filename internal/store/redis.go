package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient creates and pings a Redis client with optional password auth.
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

// LoginLimiter counts failed logins per username in a fixed window.
// Once maxFailures is reached the username is blocked until the window ends.
type LoginLimiter struct {
	rdb         *redis.Client
	maxFailures int
	window      time.Duration
	timeout     time.Duration
}

func NewLoginLimiter(rdb *redis.Client, maxFailures int, window, timeout time.Duration) *LoginLimiter {
	return &LoginLimiter{rdb: rdb, maxFailures: maxFailures, window: window, timeout: timeout}
}

func loginKey(username string) string {
	return "login_failures:" + strings.ToLower(username)
}

// Blocked reports whether username has used up its failures for the window.
func (l *LoginLimiter) Blocked(ctx context.Context, username string) (bool, error) {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	n, err := l.rdb.Get(ctx, loginKey(username)).Int()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get login failures: %w", err)
	}
	return n >= l.maxFailures, nil
}

// RecordFailure increments the counter, starting the window on the first failure.
func (l *LoginLimiter) RecordFailure(ctx context.Context, username string) error {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	key := loginKey(username)
	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis record login failure: %w", err)
	}
	if n == 1 {
		if err := l.rdb.Expire(ctx, key, l.window).Err(); err != nil {
			return fmt.Errorf("redis expire login failures: %w", err)
		}
	}
	return nil
}

// Reset clears the counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, username string) error {
	ctx, cancel := withTimeout(ctx, l.timeout)
	defer cancel()

	if err := l.rdb.Del(ctx, loginKey(username)).Err(); err != nil {
		return fmt.Errorf("redis reset login failures: %w", err)
	}
	return nil
}
