// Package bootstrap wires process-wide dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"threadline/internal/cache"
	"threadline/internal/config"
	"threadline/internal/database"
	"threadline/internal/middleware"
	"threadline/internal/models"
	"threadline/internal/observability"
	"threadline/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty development database with demo data.
	SeedDemo bool
}

// Runtime holds the initialized dependencies and how to release them.
type Runtime struct {
	DB            *gorm.DB
	Redis         *redis.Client
	shutdownTrace func(context.Context) error
}

// InitRuntime connects to DB and Redis, installs tracing and optionally seeds.
// Redis may be nil when unreachable; callers degrade accordingly.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTrace, err := observability.InitTracing(ctx, observability.TracingConfig{
		ServiceName:    "threadline-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTrace(ctx)
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)

	rt := &Runtime{DB: db, Redis: cache.GetClient(), shutdownTrace: shutdownTrace}

	if opts.SeedDemo && !cfg.IsProduction() {
		if err := seedIfEmpty(ctx, db); err != nil {
			rt.Close(ctx)
			return nil, fmt.Errorf("demo seeding failed: %w", err)
		}
	}
	return rt, nil
}

func seedIfEmpty(ctx context.Context, db *gorm.DB) error {
	var count int64
	if err := db.WithContext(ctx).Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	_, err := seed.NewSeeder(db, seed.DefaultOptions()).Run(ctx)
	return err
}

// Close flushes traces and closes the connections.
func (r *Runtime) Close(ctx context.Context) {
	if err := database.Close(); err != nil {
		middleware.Logger.Error("error closing database", "error", err)
	}
	if r.Redis != nil {
		_ = r.Redis.Close()
	}
	r.FlushTraces(ctx)
}

// FlushTraces exports buffered spans. Use it alone when the server already closed
// the connections.
func (r *Runtime) FlushTraces(ctx context.Context) {
	if r.shutdownTrace == nil {
		return
	}
	if err := r.shutdownTrace(ctx); err != nil {
		middleware.Logger.Error("error flushing traces", "error", err)
	}
}
