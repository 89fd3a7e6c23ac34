package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/metrics"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/middleware/ratelimit"
	"github.com/qore-hq/qore-backend/services/logging"
)

// Role sets per guard level.
var (
	readRoles  = []string{"admin", "hr", "manager"}
	writeRoles = []string{"admin", "hr"}
	adminRoles = []string{"admin"}
)

type Handlers struct {
	Auth         *AuthHandler
	Employee     *EmployeeHandler
	Role         *RoleHandler
	File         *FileHandler
	ImportExport *ImportExportHandler
	Activity     *ActivityHandler
	Health       *HealthHandler
}

func NewHandlers(
	auth *AuthHandler,
	employee *EmployeeHandler,
	role *RoleHandler,
	file *FileHandler,
	importExport *ImportExportHandler,
	activity *ActivityHandler,
	health *HealthHandler,
) *Handlers {
	return &Handlers{
		Auth:         auth,
		Employee:     employee,
		Role:         role,
		File:         file,
		ImportExport: importExport,
		Activity:     activity,
		Health:       health,
	}
}

func RegisterRoutes(
	e *echo.Echo,
	h *Handlers,
	mw *authmw.Middleware,
	m *metrics.Metrics,
	store cache.Store,
	cfg *config.Config,
	logger *logging.Service,
) {
	e.Use(m.HTTPMiddleware())

	apiLimit := ratelimit.Middleware(&ratelimit.Config{
		Store:     store,
		Rate:      cfg.RateLimit.Requests,
		Period:    cfg.RateLimit.Period,
		Prefix:    "api",
		CountMode: cfg.RateLimit.CountMode,
		Logger:    logger,
	})
	uploadLimit := ratelimit.Middleware(&ratelimit.Config{
		Store:     store,
		Rate:      cfg.RateLimit.UploadRequests,
		Period:    cfg.RateLimit.UploadPeriod,
		Prefix:    "upload",
		CountMode: cfg.RateLimit.CountMode,
		Logger:    logger,
	})

	e.GET("/metrics", m.Handler())

	api := e.Group("/api", apiLimit)

	api.GET("/health", h.Health.Health)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout, mw.RequireAuth())
	authGroup.GET("/me", h.Auth.Me, mw.RequireAuth())
	authGroup.POST("/change-password", h.Auth.ChangePassword, mw.RequireAuth())

	employees := api.Group("/employees", mw.RequireAuth())
	employees.GET("", h.Employee.List, mw.RequireRole(readRoles...))
	employees.GET("/statistics", h.Employee.Statistics, mw.RequireRole(readRoles...))
	employees.GET("/:id", h.Employee.Get, mw.RequireRole(readRoles...))
	employees.GET("/:id/subordinates", h.Employee.Subordinates, mw.RequireRole(readRoles...))
	employees.GET("/:id/manager", h.Employee.Manager, mw.RequireRole(readRoles...))
	employees.POST("", h.Employee.Create, mw.RequireRole(writeRoles...))
	employees.PUT("/:id", h.Employee.Update, mw.RequireRole(writeRoles...))
	employees.DELETE("/:id", h.Employee.Delete, mw.RequireRole(adminRoles...))
	employees.POST("/:id/restore", h.Employee.Restore, mw.RequireRole(adminRoles...))

	roles := api.Group("/roles", mw.RequireAuth())
	roles.GET("", h.Role.List, mw.RequireRole(readRoles...))
	roles.GET("/active", h.Role.ListActive, mw.RequireRole(readRoles...))
	roles.GET("/:id", h.Role.Get, mw.RequireRole(readRoles...))
	roles.POST("", h.Role.Create, mw.RequireRole(adminRoles...))
	roles.PUT("/:id", h.Role.Update, mw.RequireRole(adminRoles...))
	roles.DELETE("/:id", h.Role.Delete, mw.RequireRole(adminRoles...))

	files := api.Group("/files", mw.RequireAuth())
	files.POST("/upload/photo", h.File.UploadPhoto, uploadLimit, mw.RequireRole(writeRoles...))
	files.POST("/upload/documents", h.File.UploadDocuments, uploadLimit, mw.RequireRole(writeRoles...))
	files.GET("/download/:filename", h.File.Download, mw.RequireRole(readRoles...))
	files.DELETE("/:filename", h.File.Delete, mw.RequireRole(adminRoles...))
	files.GET("/employee/:id", h.File.ListForEmployee, mw.RequireRole(readRoles...))

	importExport := api.Group("/import-export", mw.RequireAuth())
	importExport.POST("/employees", h.ImportExport.Import, uploadLimit, mw.RequireRole(writeRoles...))
	importExport.GET("/employees/csv", h.ImportExport.ExportCSV, mw.RequireRole(writeRoles...))
	importExport.GET("/history", h.ImportExport.History, mw.RequireRole(writeRoles...))

	api.GET("/activity", h.Activity.List, mw.RequireAuth(), mw.RequireRole(adminRoles...))
}
