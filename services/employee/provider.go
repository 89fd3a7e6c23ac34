package employee

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/logging"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
)

func ProvideEmployeeService(db *gorm.DB, authSvc *auth.Service, tokens *refreshtoken.Service, store cache.Store, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(db, authSvc, tokens, store, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideEmployeeService),
)
