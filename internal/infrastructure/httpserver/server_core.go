package httpserver

import (
	"time"

	"github.com/exterafans/efans-avatars/internal/core/ports"
	customMiddleware "github.com/exterafans/efans-avatars/internal/infrastructure/httpserver/middleware"
	"github.com/exterafans/efans-avatars/internal/infrastructure/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

const serviceName = "efans-avatars"

// ServerConfig configures the ops listener.
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	Version      string
}

type ServerDeps struct {
	HealthCheckers []ports.HealthChecker
	// Gatherer backs /metrics; nil serves the default registry.
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics
}

// Server exposes /health and /metrics for the warm daemon. It serves no avatar data.
type Server struct {
	echo           *echo.Echo
	config         *ServerConfig
	logger         *logrus.Logger
	gatherer       prometheus.Gatherer
	middleware     *customMiddleware.MiddlewareCollection
	healthCheckers []ports.HealthChecker
}

func NewServer(serverConfig *ServerConfig, logger *logrus.Logger, deps ServerDeps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	gatherer := deps.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	server := &Server{
		echo:           e,
		config:         serverConfig,
		logger:         logger,
		gatherer:       gatherer,
		healthCheckers: deps.HealthCheckers,
		middleware:     customMiddleware.NewMiddlewareCollection(logger, deps.HTTPMetrics),
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}
