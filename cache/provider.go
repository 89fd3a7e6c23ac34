package cache

import (
	"context"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

var Module = fx.Options(
	fx.Provide(ProvideStore),
)

// ProvideStore selects the driver once at startup: redis when configured and
// reachable, the in-process store otherwise. Requests never wait on a
// flapping redis connection mid-flight.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) Store {
	store := New(cfg, logger)

	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return store.Close()
		},
	})

	return store
}

func New(cfg *config.Config, logger *logging.Service) Store {
	if cfg.Redis.Host == "" {
		logger.Info("no redis host configured, using in-memory cache store")
		return NewMemoryStore(cfg.LoginGate.AttemptWindow)
	}

	rs := NewRedisStore(RedisConfig{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rs.Ping(ctx); err != nil {
		logger.Warn("redis unreachable, falling back to in-memory cache store",
			zap.String("addr", cfg.Redis.Addr()),
			zap.Error(err))
		_ = rs.Close()
		return NewMemoryStore(cfg.LoginGate.AttemptWindow)
	}

	logger.Info("connected to redis cache", zap.String("addr", cfg.Redis.Addr()))
	return rs
}
