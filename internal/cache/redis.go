// Package cache owns the Redis client and the key layout of the store.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hearth/internal/observability"

	"github.com/redis/go-redis/v9"
	"github.com/redis/go-redis/v9/maintnotifications"
)

var client *redis.Client

type metricsHook struct{}

func (h metricsHook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

func (h metricsHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		if countable(err) {
			observability.RedisErrorRate.WithLabelValues(cmd.Name()).Inc()
		}
		return err
	}
}

func (h metricsHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		if countable(err) {
			observability.RedisErrorRate.WithLabelValues("pipeline").Inc()
		}
		return err
	}
}

// A lost WATCH race is an expected outcome, not a store error.
func countable(err error) bool {
	return err != nil && !errors.Is(err, redis.Nil) && !errors.Is(err, redis.TxFailedErr)
}

// Options parses addr as either a redis:// URL or a bare host:port.
func Options(addr string) (*redis.Options, error) {
	var opts *redis.Options
	switch {
	case strings.Contains(addr, "://"):
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL %q: %w", addr, err)
		}
		opts = parsed
	case addr == "":
		return nil, errors.New("redis address is empty")
	default:
		opts = &redis.Options{Addr: addr}
	}
	// Disable maintenance notifications handshake; single-node servers reject it.
	opts.MaintNotificationsConfig = &maintnotifications.Config{Mode: maintnotifications.ModeDisabled}
	return opts, nil
}

// NewClient builds an instrumented client for addr without connecting.
func NewClient(addr string) (*redis.Client, error) {
	opts, err := Options(addr)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)
	c.AddHook(metricsHook{})
	return c, nil
}

// InitRedis connects the shared client and verifies it with PING.
// A failed connection is returned to the caller.
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	c, err := NewClient(addr)
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	observability.GlobalLogger.Info("Redis connected successfully")
	client = c
	return c, nil
}

// GetClient returns the current Redis client instance.
func GetClient() *redis.Client {
	return client
}
