// Package bootstrap wires process-wide runtime dependencies for the commands.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"hearth/internal/cache"
	"hearth/internal/config"
	"hearth/internal/observability"
	"hearth/internal/seed"

	"github.com/redis/go-redis/v9"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates an empty development store.
	SeedDemoData bool
}

// Runtime holds the initialized dependencies and their teardown.
type Runtime struct {
	Redis           *redis.Client
	shutdownTracing func(context.Context) error
}

// InitRuntime configures tracing, connects to Redis and optionally seeds demo data.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "hearth-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	rdb, err := cache.InitRedis(ctx, cfg.RedisURL)
	if err != nil {
		_ = shutdownTracing(ctx)
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	if opts.SeedDemoData && !cfg.IsProduction() {
		if err := seedIfEmpty(ctx, rdb); err != nil {
			_ = rdb.Close()
			_ = shutdownTracing(ctx)
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{Redis: rdb, shutdownTracing: shutdownTracing}, nil
}

// Close flushes traces. The Redis client is owned by the server once handed over.
func (r *Runtime) Close(ctx context.Context) error {
	if r.shutdownTracing == nil {
		return nil
	}
	return r.shutdownTracing(ctx)
}

func seedIfEmpty(ctx context.Context, rdb *redis.Client) error {
	iter := rdb.Scan(ctx, 0, "user:*", 100).Iterator()
	if iter.Next(ctx) {
		return nil
	}
	if err := iter.Err(); err != nil {
		return err
	}
	summary, err := seed.NewSeeder(rdb, seed.Options{
		NumUsers:        10,
		FriendsPerUser:  2,
		PendingRequests: 1,
		MessagesPerChat: 5,
	}).Run(ctx)
	if err != nil {
		return err
	}
	observability.GlobalLogger.Info("seeded demo data", slog.Int("users", summary.Users))
	return nil
}
