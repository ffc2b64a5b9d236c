package queuestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/yardline-app/yardline/internal/config"
	"github.com/yardline-app/yardline/pkg/logger"
)

// Module provides the queue Store. Uses Redis when configured, otherwise
// falls back to the in-process store.
var Module = fx.Module("queuestore",
	fx.Provide(NewStore),
)

// NewStore creates the queue store from configuration
func NewStore(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (Store, error) {
	log = log.With(logger.Scope("queuestore"))

	if !cfg.Redis.IsConfigured() {
		log.Warn("redis not configured, using in-memory queue store (queued jobs will not survive restarts)")
		return NewMemoryStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connect: %w", err)
	}

	log.Info("redis queue store connected",
		slog.String("addr", cfg.Redis.Addr),
		slog.String("key_prefix", cfg.Redis.KeyPrefix))

	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Info("closing redis client")
			return client.Close()
		},
	})

	return NewRedisStore(client, cfg.Redis.KeyPrefix), nil
}
