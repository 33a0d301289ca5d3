package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// LogMetricsInitialization logs what /metrics exposes.
func (s *Server) LogMetricsInitialization() {
	if s.logger != nil {
		s.logger.WithFields(map[string]interface{}{
			"efans_avatar_cache_lookups_total":   "Counter for cache lookups by result",
			"efans_avatar_resolutions_total":     "Counter for resolutions by source",
			"efans_avatar_remote_attempts_total": "Counter for proxy attempts by endpoint, outcome",
			"http_requests_total":                "Counter for ops requests by method, endpoint, status",
			"metrics_endpoint":                   "/metrics",
		}).Debug("Available Prometheus metrics")
	}
}

// metricsEndpoint wraps the metrics handler with logging
func (s *Server) metricsEndpoint(c echo.Context) error {
	if s.logger != nil {
		s.logger.Debug("Serving Prometheus metrics")
	}
	handler := promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})
	handler.ServeHTTP(c.Response(), c.Request())
	return nil
}
