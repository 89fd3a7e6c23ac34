package importexport

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideImportExportService(db *gorm.DB, authSvc *auth.Service, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, authSvc, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideImportExportService),
)
