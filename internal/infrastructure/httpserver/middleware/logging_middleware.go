package middleware

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type LoggingMiddleware struct {
	logger *logrus.Logger
}

func NewLoggingMiddleware(logger *logrus.Logger) *LoggingMiddleware {
	return &LoggingMiddleware{logger: logger}
}

func (m *LoggingMiddleware) RequestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if m.logger != nil {
				m.logger.WithFields(logrus.Fields{
					"method":     c.Request().Method,
					"path":       c.Path(),
					"status":     c.Response().Status,
					"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
					"elapsed":    time.Since(start).String(),
				}).Debug("ops request")
			}
			return err
		}
	}
}
