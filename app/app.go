package app

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/fx"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/database"
	"github.com/qore-hq/qore-backend/handlers"
	"github.com/qore-hq/qore-backend/metrics"
	authmw "github.com/qore-hq/qore-backend/middleware/auth"
	"github.com/qore-hq/qore-backend/models"
	"github.com/qore-hq/qore-backend/server"
	"github.com/qore-hq/qore-backend/services/activitylog"
	"github.com/qore-hq/qore-backend/services/auth"
	"github.com/qore-hq/qore-backend/services/employee"
	"github.com/qore-hq/qore-backend/services/files"
	"github.com/qore-hq/qore-backend/services/importexport"
	"github.com/qore-hq/qore-backend/services/jwt"
	"github.com/qore-hq/qore-backend/services/logging"
	"github.com/qore-hq/qore-backend/services/logingate"
	"github.com/qore-hq/qore-backend/services/refreshtoken"
	"github.com/qore-hq/qore-backend/services/role"
)

// App wraps the fx application and owns its lifecycle.
type App struct {
	fx     *fx.App
	logger *logging.Service
}

// New assembles the full application graph. Pass a non-nil config to
// override environment-based loading, which tests rely on.
func New(customConfig *config.Config, extra ...fx.Option) *App {
	app := &App{}

	options := []fx.Option{
		fx.NopLogger,
		config.NewProvider(customConfig),
		logging.Module,
		fx.Supply(database.WithModels(
			&models.Employee{},
			&models.Role{},
			&models.EmployeeRole{},
			&models.ActivityLog{},
			&models.EmployeeFile{},
			&refreshtoken.RefreshToken{},
		)),
		database.Module,
		cache.Module,
		jwt.Options,
		refreshtoken.Options,
		auth.Options,
		logingate.Options,
		activitylog.Options,
		employee.Options,
		role.Options,
		files.Options,
		importexport.Options,
		authmw.Options,
		metrics.Options,
		handlers.Options,
		server.Options,
		fx.Populate(&app.logger),
		fx.Invoke(registerRoutes),
	}
	options = append(options, extra...)

	app.fx = fx.New(options...)
	return app
}

func registerRoutes(
	srv *server.Server,
	h *handlers.Handlers,
	mw *authmw.Middleware,
	m *metrics.Metrics,
	store cache.Store,
	cfg *config.Config,
	logger *logging.Service,
) {
	handlers.RegisterRoutes(srv.Echo(), h, mw, m, store, cfg, logger)
}

func (a *App) Start(ctx context.Context) error {
	return a.fx.Start(ctx)
}

func (a *App) Stop(ctx context.Context) error {
	return a.fx.Stop(ctx)
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() {
	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := a.Start(startCtx); err != nil {
		log.Fatalf("failed to start application: %v", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	if a.logger != nil {
		a.logger.Info("received shutdown signal, stopping gracefully")
	} else {
		log.Printf("received signal %v, shutting down gracefully", sig)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	if err := a.Stop(stopCtx); err != nil {
		if a.logger != nil {
			a.logger.Error("failed to stop application gracefully")
		} else {
			log.Printf("failed to stop application gracefully: %v", err)
		}
	}
}
