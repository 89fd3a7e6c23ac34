package logingate

import (
	"go.uber.org/fx"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/services/logging"
)

func ProvideLoginGate(store cache.Store, cfg *config.Config, logger *logging.Service) *Service {
	return NewService(store, cfg, logger)
}

var Options = fx.Options(
	fx.Provide(ProvideLoginGate),
)
