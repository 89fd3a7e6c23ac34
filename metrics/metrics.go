package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qore-hq/qore-backend/httperr"
)

type Metrics struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	loginsTotal     *prometheus.CounterVec
	lockoutsTotal   prometheus.Counter
	tokenRefreshes  *prometheus.CounterVec
	activeSessions  prometheus.Gauge
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qore",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "qore",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path"}),
		loginsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qore",
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts by outcome",
		}, []string{"outcome"}),
		lockoutsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qore",
			Subsystem: "auth",
			Name:      "lockouts_total",
			Help:      "Accounts locked after repeated login failures",
		}),
		tokenRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qore",
			Subsystem: "auth",
			Name:      "token_refreshes_total",
			Help:      "Refresh token rotations by outcome",
		}, []string{"outcome"}),
		activeSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qore",
			Subsystem: "auth",
			Name:      "active_sessions",
			Help:      "Refresh sessions currently active",
		}),
	}

	registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.loginsTotal,
		m.lockoutsTotal,
		m.tokenRefreshes,
		m.activeSessions,
	)
	return m
}

func (m *Metrics) RecordLogin(outcome string) {
	m.loginsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordLockout() {
	m.lockoutsTotal.Inc()
}

func (m *Metrics) RecordTokenRefresh(outcome string) {
	m.tokenRefreshes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetActiveSessions(n float64) {
	m.activeSessions.Set(n)
}

// HTTPMiddleware observes every request, labeled by the registered route
// path so parameterized routes do not explode cardinality.
func (m *Metrics) HTTPMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			status := c.Response().Status
			if err != nil {
				var appErr *httperr.AppError
				var httpErr *echo.HTTPError
				switch {
				case errors.As(err, &appErr):
					status = appErr.Status
				case errors.As(err, &httpErr):
					status = httpErr.Code
				default:
					status = http.StatusInternalServerError
				}
			}

			m.requestsTotal.WithLabelValues(c.Request().Method, path, strconv.Itoa(status)).Inc()
			m.requestDuration.WithLabelValues(c.Request().Method, path).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry for GET /metrics.
func (m *Metrics) Handler() echo.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return echo.WrapHandler(h)
}
