package lookup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/exterafans/efans-avatars/internal/utils"
	"github.com/sirupsen/logrus"
)

const (
	DefaultProfileBaseURL = "https://t.me/"
	defaultMaxBodyBytes   = 2 << 20

	endpointPrimary  = "primary"
	endpointFallback = "fallback"
)

// DefaultProxyEndpoints are prefixes; the URL-encoded profile address is appended.
var DefaultProxyEndpoints = []string{
	"https://api.allorigins.win/raw?url=",
	"https://corsproxy.io/?",
}

// ProxyLookupConfig groups configuration parameters for the proxy lookup.
type ProxyLookupConfig struct {
	ProfileBaseURL string
	// Endpoints[0] is the primary proxy, Endpoints[1] the single fallback; extra entries are ignored.
	Endpoints          []string
	MaxBodyBytes       int64
	PrimaryExtractors  []Extractor
	FallbackExtractors []Extractor
}

// ProxyLookup scrapes a public profile page through CORS-style proxies.
type ProxyLookup struct {
	client  *http.Client
	cfg     ProxyLookupConfig
	metrics ports.AvatarMetrics
	logger  *logrus.Logger
}

// NewProxyLookup applies defaults to every zero field of cfg. A nil client uses http.DefaultClient.
func NewProxyLookup(client *http.Client, cfg *ProxyLookupConfig, metrics ports.AvatarMetrics, logger *logrus.Logger) *ProxyLookup {
	c := ProxyLookupConfig{}
	if cfg != nil {
		c = *cfg
	}
	if c.ProfileBaseURL == "" {
		c.ProfileBaseURL = DefaultProfileBaseURL
	}
	if c.Endpoints == nil {
		c.Endpoints = DefaultProxyEndpoints
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	if c.PrimaryExtractors == nil {
		c.PrimaryExtractors = DefaultPrimaryExtractors()
	}
	if c.FallbackExtractors == nil {
		c.FallbackExtractors = DefaultFallbackExtractors()
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &ProxyLookup{client: client, cfg: c, metrics: metrics, logger: logger}
}

// ProfileURL is the canonical public page for handle.
func (l *ProxyLookup) ProfileURL(handle string) string {
	return l.cfg.ProfileBaseURL + handle
}

// Fetch tries the primary proxy with every primary extractor, then the fallback proxy
// once with the fallback extractors. There are no other retries.
func (l *ProxyLookup) Fetch(ctx context.Context, handle string) (string, error) {
	if len(l.cfg.Endpoints) == 0 {
		return "", &avatar.LookupError{Handle: handle, Cause: avatar.ErrNoEndpoints}
	}
	target := l.ProfileURL(handle)

	url, err := l.attempt(ctx, endpointPrimary, l.cfg.Endpoints[0], target, true, l.cfg.PrimaryExtractors)
	if err == nil {
		return url, nil
	}
	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{"handle": handle, "endpoint": endpointPrimary}).WithError(err).Debug("avatar lookup attempt failed")
	}
	if len(l.cfg.Endpoints) < 2 {
		return "", &avatar.LookupError{Handle: handle, Cause: err}
	}

	url, ferr := l.attempt(ctx, endpointFallback, l.cfg.Endpoints[1], target, false, l.cfg.FallbackExtractors)
	if ferr == nil {
		return url, nil
	}
	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{"handle": handle, "endpoint": endpointFallback}).WithError(ferr).Debug("avatar lookup attempt failed")
	}
	return "", &avatar.LookupError{Handle: handle, Cause: err, Fallback: ferr}
}

func (l *ProxyLookup) attempt(ctx context.Context, label, endpoint, target string, acceptHTML bool, extractors []Extractor) (string, error) {
	start := time.Now()
	url, by, err := l.fetchAndExtract(ctx, endpoint+utils.EncodeURIComponent(target), acceptHTML, extractors)
	if l.metrics != nil {
		l.metrics.ObserveRemoteAttempt(label, err == nil, time.Since(start))
	}
	if err != nil {
		return "", fmt.Errorf("%s proxy: %w", label, err)
	}
	if l.logger != nil {
		l.logger.WithFields(logrus.Fields{"endpoint": label, "extractor": by}).Debug("avatar url extracted")
	}
	return url, nil
}

func (l *ProxyLookup) fetchAndExtract(ctx context.Context, proxied string, acceptHTML bool, extractors []Extractor) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, proxied, nil)
	if err != nil {
		return "", "", fmt.Errorf("failed to build request: %w", err)
	}
	if acceptHTML {
		req.Header.Set("Accept", "text/html")
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", "", fmt.Errorf("%w: HTTP %d", avatar.ErrUnexpectedStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, l.cfg.MaxBodyBytes))
	if err != nil {
		return "", "", fmt.Errorf("failed to read body: %w", err)
	}

	url, by, ok := extractFirst(body, extractors)
	if !ok {
		return "", "", avatar.ErrNoImageFound
	}
	return url, by, nil
}

var _ ports.AvatarLookup = (*ProxyLookup)(nil)
