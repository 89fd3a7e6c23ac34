package handlers

import (
	"go.uber.org/fx"
)

var Options = fx.Options(
	fx.Provide(
		NewAuthHandler,
		NewEmployeeHandler,
		NewRoleHandler,
		NewFileHandler,
		NewImportExportHandler,
		NewActivityHandler,
		NewHealthHandler,
		NewHandlers,
	),
)
