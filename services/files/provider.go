package files

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideFileService(db *gorm.DB, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideFileService),
)
