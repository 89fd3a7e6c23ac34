package server

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideServer(lc fx.Lifecycle, cfg *config.Config, logger *logging.Service) *Server {
	srv := New(cfg, logger)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.Start(); err != nil && logger != nil {
					logger.Error("server stopped unexpectedly", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

var Options = fx.Options(
	fx.Provide(ProvideServer),
)
