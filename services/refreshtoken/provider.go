package refreshtoken

import (
	"context"

	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideRefreshTokenService(lc fx.Lifecycle, db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	service := NewService(db, cfg, logger)

	if cfg.RefreshToken.CleanupInterval > 0 {
		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				service.StartCleanupWorker()
				return nil
			},
			OnStop: func(context.Context) error {
				service.StopCleanupWorker()
				return nil
			},
		})
	}

	return service
}

var Options = fx.Options(
	fx.Provide(ProvideRefreshTokenService),
)
