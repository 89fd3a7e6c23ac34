package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/qore-hq/qore-backend/httperr"
)

func serve(t *testing.T, m *Metrics, handler echo.HandlerFunc) {
	t.Helper()
	e := echo.New()
	e.Use(m.HTTPMiddleware())
	e.GET("/guarded", handler)

	req := httptest.NewRequest(http.MethodGet, "/guarded", nil)
	e.ServeHTTP(httptest.NewRecorder(), req)
}

func TestHTTPMiddleware_StatusLabels(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		m := New()
		serve(t, m, func(c echo.Context) error {
			return c.NoContent(http.StatusNoContent)
		})

		counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/guarded", "204")
		assert.Equal(t, float64(1), testutil.ToFloat64(counter))
	})

	t.Run("app error carries its own status", func(t *testing.T) {
		m := New()
		serve(t, m, func(c echo.Context) error {
			return httperr.InvalidCredentials()
		})

		counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/guarded", "401")
		assert.Equal(t, float64(1), testutil.ToFloat64(counter))

		ok := m.requestsTotal.WithLabelValues(http.MethodGet, "/guarded", "200")
		assert.Equal(t, float64(0), testutil.ToFloat64(ok))
	})

	t.Run("echo http error", func(t *testing.T) {
		m := New()
		serve(t, m, func(c echo.Context) error {
			return echo.NewHTTPError(http.StatusTeapot)
		})

		counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/guarded", "418")
		assert.Equal(t, float64(1), testutil.ToFloat64(counter))
	})

	t.Run("untyped error counts as 500", func(t *testing.T) {
		m := New()
		serve(t, m, func(c echo.Context) error {
			return errors.New("boom")
		})

		counter := m.requestsTotal.WithLabelValues(http.MethodGet, "/guarded", "500")
		assert.Equal(t, float64(1), testutil.ToFloat64(counter))
	})
}
