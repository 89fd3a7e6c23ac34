package jwt

import (
	"go.uber.org/fx"

	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func NewJWTService(cfg *config.Config, logger *logging.Service) *Service {
	return NewService(cfg, logger)
}

var Options = fx.Options(
	fx.Provide(NewJWTService),
)
