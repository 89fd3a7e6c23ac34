package activitylog

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideActivityLogService(db *gorm.DB, logger *logging.Service) *Service {
	return NewService(db, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideActivityLogService),
)
