package auth

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/services/jwt"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
)

func ProvideAuthMiddleware(jwtService *jwt.Service, tokens *refreshtoken.Service, db *gorm.DB) *Middleware {
	return NewMiddleware(jwtService, tokens, db)
}

var Options = fx.Options(
	fx.Provide(ProvideAuthMiddleware),
)
