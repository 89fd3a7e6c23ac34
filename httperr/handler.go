package httperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/qore-hq/qore-backend/services/logging"
)

type envelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// NewHTTPErrorHandler translates AppError, echo.HTTPError and anything else
// into the response envelope. Unknown errors become INTERNAL_ERROR; the cause
// is logged and, in debug mode only, echoed back in details.
func NewHTTPErrorHandler(logger *logging.Service, debug bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var appErr *AppError
		if !errors.As(err, &appErr) {
			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				msg := http.StatusText(httpErr.Code)
				if s, ok := httpErr.Message.(string); ok {
					msg = s
				}
				appErr = &AppError{
					Status:  httpErr.Code,
					Code:    "HTTP_ERROR",
					Message: msg,
				}
			} else {
				appErr = Internal(err)
			}
		}

		if appErr.Status >= http.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Path()),
				zap.String("code", appErr.Code),
				zap.Error(err))
		}

		body := envelope{
			Success: false,
			Error:   appErr.Message,
			Code:    appErr.Code,
			Details: appErr.Details,
		}
		if debug && appErr.Internal != nil {
			body.Details = map[string]any{"cause": appErr.Internal.Error()}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(appErr.Status)
			return
		}
		_ = c.JSON(appErr.Status, body)
	}
}
