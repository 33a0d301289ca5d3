package middleware

import (
	"github.com/sirupsen/logrus"

	"github.com/exterafans/efans-avatars/internal/infrastructure/metrics"
)

// MiddlewareCollection holds all middleware instances
type MiddlewareCollection struct {
	Logging *LoggingMiddleware
	Metrics *MetricsMiddleware
}

// NewMiddlewareCollection creates the ops server middleware. Nil httpMetrics builds unregistered collectors.
func NewMiddlewareCollection(logger *logrus.Logger, httpMetrics *metrics.HTTPMetrics) *MiddlewareCollection {
	if httpMetrics == nil {
		httpMetrics = metrics.NewHTTPMetrics(nil)
	}
	return &MiddlewareCollection{
		Logging: NewLoggingMiddleware(logger),
		Metrics: NewMetricsMiddleware(httpMetrics.RequestsTotal, httpMetrics.RequestDuration),
	}
}
