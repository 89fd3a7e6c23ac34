package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/qore-hq/qore-backend/cache"
)

type HealthHandler struct {
	db    *gorm.DB
	store cache.Store
}

func NewHealthHandler(db *gorm.DB, store cache.Store) *HealthHandler {
	return &HealthHandler{db: db, store: store}
}

func (h *HealthHandler) Health(c echo.Context) error {
	ctx := c.Request().Context()

	dbState := "up"
	if sqlDB, err := h.db.DB(); err != nil {
		dbState = "down"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbState = "down"
	}

	cacheState := "up"
	if err := h.store.Ping(ctx); err != nil {
		cacheState = "down"
	}

	status := http.StatusOK
	if dbState == "down" {
		status = http.StatusServiceUnavailable
	}

	return c.JSON(status, map[string]any{
		"success":   dbState == "up",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"database":  dbState,
		"cache": map[string]string{
			"driver": h.store.Driver(),
			"state":  cacheState,
		},
	})
}
