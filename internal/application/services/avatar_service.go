package services

import (
	"context"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// AvatarService resolves handles to image URLs: cache, then remote lookup, then placeholder.
type AvatarService struct {
	cache       ports.AvatarCache
	lookup      ports.AvatarLookup
	metrics     ports.AvatarMetrics
	logger      *logrus.Logger
	defaultSize int
	coalesce    bool
	sf          singleflight.Group
}

// AvatarServiceConfig groups configuration parameters for the avatar service.
type AvatarServiceConfig struct {
	DefaultSize int
	// Coalesce shares one lookup between concurrent misses for the same key.
	Coalesce bool
}

// NewAvatarService wires the resolver. A nil lookup resolves every miss to a placeholder.
func NewAvatarService(cache ports.AvatarCache, lookup ports.AvatarLookup, metrics ports.AvatarMetrics, cfg *AvatarServiceConfig, logger *logrus.Logger) *AvatarService {
	size := avatar.DefaultSize
	coalesce := false
	if cfg != nil {
		if cfg.DefaultSize > 0 {
			size = cfg.DefaultSize
		}
		coalesce = cfg.Coalesce
	}
	return &AvatarService{
		cache:       cache,
		lookup:      lookup,
		metrics:     metrics,
		logger:      logger,
		defaultSize: size,
		coalesce:    coalesce,
	}
}

// ResolveAvatar always returns a usable image URL.
func (s *AvatarService) ResolveAvatar(ctx context.Context, handle string, size int) string {
	return s.Resolve(ctx, handle, size).URL
}

// Resolve is ResolveAvatar with the cache key and the source of the URL.
// Once started it runs to completion; caller cancellation does not abort the lookup.
func (s *AvatarService) Resolve(ctx context.Context, handle string, size int) avatar.Resolution {
	if size <= 0 {
		size = s.defaultSize
	}
	req := avatar.NewRequest(handle, size)
	key := req.CacheKey()

	if entry, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.ObserveCacheLookup(true)
			s.metrics.ObserveResolution(avatar.SourceCache)
		}
		return avatar.Resolution{Key: key, Handle: req.Handle, Size: req.Size, URL: entry.URL, Source: avatar.SourceCache}
	}
	if s.metrics != nil {
		s.metrics.ObserveCacheLookup(false)
	}

	ctx = context.WithoutCancel(ctx)
	if !s.coalesce {
		return s.resolveMiss(ctx, req)
	}
	v, _, shared := s.sf.Do(key, func() (any, error) {
		return s.resolveMiss(ctx, req), nil
	})
	if shared && s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key}).Debug("avatar miss coalesced")
	}
	return v.(avatar.Resolution)
}

func (s *AvatarService) resolveMiss(ctx context.Context, req avatar.Request) avatar.Resolution {
	key := req.CacheKey()
	res := avatar.Resolution{Key: key, Handle: req.Handle, Size: req.Size, Source: avatar.SourceRemote}

	var err error
	if s.lookup != nil {
		res.URL, err = s.lookup.Fetch(ctx, req.Handle)
	}
	if s.lookup == nil || err != nil || res.URL == "" {
		if err != nil && s.logger != nil {
			s.logger.WithFields(logrus.Fields{"handle": req.Handle, "key": key}).WithError(err).Warn("avatar lookup failed; using placeholder")
		}
		res.URL = avatar.Placeholder(req.Handle, req.Size)
		res.Source = avatar.SourcePlaceholder
	}

	s.cache.Put(ctx, key, res.URL)
	if s.metrics != nil {
		s.metrics.ObserveResolution(res.Source)
	}
	if s.logger != nil {
		s.logger.WithFields(logrus.Fields{"key": key, "source": res.Source}).Debug("avatar resolved")
	}
	return res
}

// GeneratePlaceholder returns the deterministic fallback image for handle.
func (s *AvatarService) GeneratePlaceholder(handle string, size int) string {
	if size <= 0 {
		size = s.defaultSize
	}
	return avatar.Placeholder(handle, size)
}

var _ ports.AvatarService = (*AvatarService)(nil)
