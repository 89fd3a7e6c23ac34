package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/cache"
	"github.com/qore-hq/qore-backend/config"
	"github.com/qore-hq/qore-backend/httperr"
	"github.com/qore-hq/qore-backend/services/logging"
)

type Config struct {
	Store  cache.Store
	Rate   int
	Period time.Duration
	// Prefix separates buckets, e.g. "api" and "upload".
	Prefix string
	// CountMode selects which responses consume a slot: every request,
	// failures only, or successes only.
	CountMode    config.CountingMode
	KeyGenerator func(c echo.Context) string
	Logger       *logging.Service
}

func DefaultKeyGenerator(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	return ip
}

// Middleware enforces a fixed-window limit per key. The counter lives in the
// shared cache; when the cache errors the request is allowed through.
func Middleware(cfg *Config) echo.MiddlewareFunc {
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	if cfg.Period <= 0 {
		cfg.Period = time.Minute
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "api"
	}
	if cfg.CountMode == "" {
		cfg.CountMode = config.CountAll
	}
	if cfg.KeyGenerator == nil {
		cfg.KeyGenerator = DefaultKeyGenerator
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()
			key := fmt.Sprintf("ratelimit:%s:%s", cfg.Prefix, cfg.KeyGenerator(c))

			if cfg.CountMode == config.CountAll {
				count, err := cfg.Store.Incr(ctx, key)
				if err != nil {
					return cfg.degrade(c, next, key, err)
				}
				if count == 1 {
					cfg.startWindow(ctx, key)
				}

				cfg.setHeaders(c, int(count))
				if int(count) > cfg.Rate {
					return cfg.reject()
				}
				return next(c)
			}

			// Deferred accounting: read the window, serve, then consume a
			// slot only when the response matches the mode.
			count, err := cfg.currentCount(ctx, key)
			if err != nil {
				return cfg.degrade(c, next, key, err)
			}

			cfg.setHeaders(c, count+1)
			if count >= cfg.Rate {
				return cfg.reject()
			}

			handlerErr := next(c)

			status := responseStatus(c, handlerErr)
			shouldCount := false
			switch cfg.CountMode {
			case config.CountFailures:
				shouldCount = status >= 400
			case config.CountSuccess:
				shouldCount = status < 400
			}
			if shouldCount {
				if newCount, err := cfg.Store.Incr(ctx, key); err == nil && newCount == 1 {
					cfg.startWindow(ctx, key)
				}
			}

			return handlerErr
		}
	}
}

func (cfg *Config) currentCount(ctx context.Context, key string) (int, error) {
	raw, err := cfg.Store.Get(ctx, key)
	if errors.Is(err, cache.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (cfg *Config) startWindow(ctx context.Context, key string) {
	if err := cfg.Store.Expire(ctx, key, cfg.Period); err != nil && cfg.Logger != nil {
		cfg.Logger.Warn("failed to set rate limit window",
			zap.String("key", key), zap.Error(err))
	}
}

func (cfg *Config) setHeaders(c echo.Context, count int) {
	remaining := cfg.Rate - count
	if remaining < 0 {
		remaining = 0
	}
	resetTime := time.Now().Add(cfg.Period)

	c.Response().Header().Set("X-RateLimit-Limit", strconv.Itoa(cfg.Rate))
	c.Response().Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	c.Response().Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime.Unix(), 10))
}

func (cfg *Config) reject() error {
	return httperr.RateLimitExceeded(map[string]any{
		"limit":      cfg.Rate,
		"windowMs":   cfg.Period.Milliseconds(),
		"remaining":  0,
		"resetTime":  time.Now().Add(cfg.Period).UTC().Format(time.RFC3339),
		"retryAfter": int(cfg.Period.Seconds()),
	})
}

func (cfg *Config) degrade(c echo.Context, next echo.HandlerFunc, key string, err error) error {
	if cfg.Logger != nil {
		cfg.Logger.Warn("rate limiter degraded to allow",
			zap.String("key", key), zap.Error(err))
	}
	return next(c)
}

// responseStatus resolves the status a returned error will render with,
// since the error handler has not run yet when the middleware unwinds.
func responseStatus(c echo.Context, err error) int {
	if err == nil {
		return c.Response().Status
	}
	var appErr *httperr.AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return http.StatusInternalServerError
}
