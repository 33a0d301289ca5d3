package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	config "github.com/exterafans/efans-avatars/configs"
	"github.com/exterafans/efans-avatars/internal/application/services"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/exterafans/efans-avatars/internal/infrastructure/health"
	"github.com/exterafans/efans-avatars/internal/infrastructure/lookup"
	"github.com/exterafans/efans-avatars/internal/infrastructure/metrics"
	"github.com/exterafans/efans-avatars/internal/infrastructure/redis"
	"github.com/exterafans/efans-avatars/internal/infrastructure/repositories"
	"github.com/exterafans/efans-avatars/internal/infrastructure/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// app holds the wired resolver for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *logrus.Logger
	registry *prometheus.Registry
	http     *metrics.HTTPMetrics

	slot     ports.Slot
	cache    *repositories.AvatarCacheRepository
	avatars  *services.AvatarService
	credits  *services.CreditsService
	checkers []ports.HealthChecker

	closers []io.Closer
}

func newLogger(cfg config.LogConfig, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(level)
	}
	return logger
}

// newApp opens the durable slot, loads the cache mirror and wires the services.
func newApp(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger, registry: prometheus.NewRegistry()}
	a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.http = metrics.NewHTTPMetrics(a.registry)
	avatarMetrics := metrics.NewAvatarMetrics(a.registry)

	if err := a.openSlot(); err != nil {
		a.Close()
		return nil, err
	}
	a.checkers = append(a.checkers, health.NewSlotHealthChecker(a.slot))

	a.cache = repositories.NewAvatarCacheRepository(a.slot, cfg.Avatar.CacheTTL, logger)
	a.cache.Load(ctx)

	remote := lookup.NewProxyLookup(
		&http.Client{Timeout: cfg.Avatar.HTTPTimeout},
		&lookup.ProxyLookupConfig{
			ProfileBaseURL: cfg.Avatar.ProfileBaseURL,
			Endpoints:      cfg.Avatar.ProxyEndpoints,
			MaxBodyBytes:   cfg.Avatar.MaxBodyBytes,
		},
		avatarMetrics,
		logger,
	)
	a.avatars = services.NewAvatarService(a.cache, remote, avatarMetrics, &services.AvatarServiceConfig{
		DefaultSize: cfg.Avatar.DefaultSize,
		Coalesce:    cfg.Avatar.Coalesce,
	}, logger)
	a.credits = services.NewCreditsService(a.avatars, nil, logger)
	return a, nil
}

func (a *app) openSlot() error {
	switch a.cfg.Storage.Driver {
	case config.StorageDriverRedis:
		client, err := redis.NewRedisClient(&a.cfg.Redis)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, client)
		a.checkers = append(a.checkers, health.NewRedisHealthChecker(client))
		a.slot = redis.NewSlot(client, a.cfg.Redis.KeyPrefix, a.cfg.Storage.Slot)
		a.logger.WithField("slot", a.cfg.Storage.Slot).Debug("using redis slot")
	case config.StorageDriverFile:
		slot, err := storage.NewFileSlot(afero.NewOsFs(), a.cfg.Storage.FileDir, a.cfg.Storage.Slot)
		if err != nil {
			return err
		}
		a.slot = slot
		a.logger.WithField("path", slot.Path()).Debug("using file slot")
	default:
		return fmt.Errorf("unsupported storage driver %q", a.cfg.Storage.Driver)
	}
	return nil
}

func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.logger.WithError(err).Warn("failed to close resource")
		}
	}
}

func stderrLogger(cfg *config.Config) *logrus.Logger {
	return newLogger(cfg.Log, os.Stderr)
}
