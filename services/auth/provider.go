package auth

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideAuthService(cfg *config.Config, db *gorm.DB, logger *logging.Service) *Service {
	return NewService(cfg, db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideAuthService),
)
