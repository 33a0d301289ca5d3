package metrics

import (
	"time"

	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "efans"

// AvatarMetrics implements ports.AvatarMetrics with Prometheus collectors.
type AvatarMetrics struct {
	cacheLookups   *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	remoteAttempts *prometheus.CounterVec
	remoteDuration *prometheus.HistogramVec
}

// NewAvatarMetrics creates the resolver collectors and registers them with reg.
func NewAvatarMetrics(reg prometheus.Registerer) *AvatarMetrics {
	m := &AvatarMetrics{
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "avatar_cache_lookups_total",
				Help:      "Avatar cache lookups by result (hit or miss)",
			},
			[]string{"result"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "avatar_resolutions_total",
				Help:      "Resolved avatars by source (cache, remote, placeholder)",
			},
			[]string{"source"},
		),
		remoteAttempts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "avatar_remote_attempts_total",
				Help:      "Proxy lookup attempts by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		remoteDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "avatar_remote_lookup_duration_seconds",
				Help:      "Proxy lookup attempt latencies in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.cacheLookups, m.resolutions, m.remoteAttempts, m.remoteDuration)
	}
	return m
}

func (m *AvatarMetrics) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

func (m *AvatarMetrics) ObserveResolution(source avatar.Source) {
	m.resolutions.WithLabelValues(string(source)).Inc()
}

func (m *AvatarMetrics) ObserveRemoteAttempt(endpoint string, success bool, elapsed time.Duration) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.remoteAttempts.WithLabelValues(endpoint, outcome).Inc()
	m.remoteDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

var _ ports.AvatarMetrics = (*AvatarMetrics)(nil)

// HTTPMetrics holds the ops server request collectors.
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewHTTPMetrics creates the request collectors and registers them with reg.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "The total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "http_request_duration_seconds",
				Help: "The HTTP request latencies in seconds",
			},
			[]string{"method", "endpoint"},
		),
	}
	if reg != nil {
		reg.MustRegister(m.RequestsTotal, m.RequestDuration)
	}
	return m
}
