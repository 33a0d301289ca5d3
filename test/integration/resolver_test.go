package integration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/exterafans/efans-avatars/internal/application/services"
	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/exterafans/efans-avatars/internal/infrastructure/lookup"
	"github.com/exterafans/efans-avatars/internal/infrastructure/metrics"
	"github.com/exterafans/efans-avatars/internal/infrastructure/repositories"
	"github.com/exterafans/efans-avatars/internal/infrastructure/storage"
	tmocks "github.com/exterafans/efans-avatars/test/mocks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"
)

// ResolverTestSuite runs the real resolver stack: file slot, cache mirror,
// proxy lookup over HTTP and the placeholder fallback.
type ResolverTestSuite struct {
	suite.Suite
	fs       afero.Fs
	clock    *tmocks.FakeClock
	primary  *httptest.Server
	fallback *httptest.Server

	primaryStatus atomic.Int64
	primaryHits   atomic.Int64
	fallbackHits  atomic.Int64
	fallbackBody  atomic.Value
}

func (s *ResolverTestSuite) SetupTest() {
	s.fs = afero.NewMemMapFs()
	s.clock = tmocks.NewFakeClock(time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC))
	s.primaryStatus.Store(http.StatusOK)
	s.primaryHits.Store(0)
	s.fallbackHits.Store(0)
	s.fallbackBody.Store(`<meta property="og:image" content="https://cdn5.telesco.pe/file/from-fallback.jpg">`)

	s.primary = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.primaryHits.Add(1)
		w.WriteHeader(int(s.primaryStatus.Load()))
		_, _ = w.Write([]byte(`<img src="https://cdn1.telesco.pe/file/from-primary.jpg">`))
	}))
	s.fallback = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.fallbackHits.Add(1)
		_, _ = w.Write([]byte(s.fallbackBody.Load().(string)))
	}))
}

func (s *ResolverTestSuite) TearDownTest() {
	s.primary.Close()
	s.fallback.Close()
}

type stack struct {
	cache    *repositories.AvatarCacheRepository
	avatars  *services.AvatarService
	registry *prometheus.Registry
}

// newStack wires a fresh process against the shared filesystem, as a page reload would.
func (s *ResolverTestSuite) newStack(endpoints ...string) *stack {
	slot, err := storage.NewFileSlot(s.fs, "/var/efans", "avatarCache")
	s.Require().NoError(err)
	reg := prometheus.NewRegistry()
	m := metrics.NewAvatarMetrics(reg)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	cache := repositories.NewAvatarCacheRepository(slot, avatar.DefaultTTL, logger, repositories.WithClock(s.clock.Now))
	cache.Load(context.Background())
	if endpoints == nil {
		endpoints = []string{s.primary.URL + "/raw?url=", s.fallback.URL + "/?"}
	}
	remote := lookup.NewProxyLookup(s.primary.Client(), &lookup.ProxyLookupConfig{Endpoints: endpoints}, m, logger)
	return &stack{
		cache:    cache,
		avatars:  services.NewAvatarService(cache, remote, m, nil, logger),
		registry: reg,
	}
}

func (s *ResolverTestSuite) TestPrimarySuccessUsesCDNPattern() {
	st := s.newStack()
	res := st.avatars.Resolve(context.Background(), "@alice", 160)

	s.Equal(avatar.SourceRemote, res.Source)
	s.Equal("https://cdn1.telesco.pe/file/from-primary.jpg", res.URL)
	s.EqualValues(0, s.fallbackHits.Load())
}

func (s *ResolverTestSuite) TestPrimaryErrorFallsBackToMetaTag() {
	s.primaryStatus.Store(http.StatusBadGateway)
	st := s.newStack()

	url := st.avatars.ResolveAvatar(context.Background(), "alice", 160)

	s.Equal("https://cdn5.telesco.pe/file/from-fallback.jpg", url)
	s.EqualValues(1, s.primaryHits.Load())
	s.EqualValues(1, s.fallbackHits.Load())
	s.NoError(testutil.GatherAndCompare(st.registry, strings.NewReader(`
# HELP efans_avatar_remote_attempts_total Proxy lookup attempts by endpoint and outcome
# TYPE efans_avatar_remote_attempts_total counter
efans_avatar_remote_attempts_total{endpoint="fallback",outcome="success"} 1
efans_avatar_remote_attempts_total{endpoint="primary",outcome="failure"} 1
`), "efans_avatar_remote_attempts_total"))
}

func (s *ResolverTestSuite) TestBothProxiesFailingCachesPlaceholder() {
	s.primaryStatus.Store(http.StatusInternalServerError)
	s.fallbackBody.Store(`<html><head><title>no preview</title></head></html>`)
	st := s.newStack()
	ctx := context.Background()

	url := st.avatars.ResolveAvatar(ctx, "alice", 160)
	s.Equal(avatar.Placeholder("alice", 160), url)

	s.Equal(url, st.avatars.ResolveAvatar(ctx, "alice", 160))
	s.EqualValues(1, s.primaryHits.Load(), "second call is served from cache")
}

func (s *ResolverTestSuite) TestUnreachableNetworkCachesPlaceholder() {
	st := s.newStack("http://127.0.0.1:1/raw?url=", "http://127.0.0.1:1/?")
	url := st.avatars.ResolveAvatar(context.Background(), "alice", 160)
	s.Equal(avatar.Placeholder("alice", 160), url)
}

func (s *ResolverTestSuite) TestReloadServesFromDurableSlot() {
	ctx := context.Background()
	first := s.newStack().avatars.ResolveAvatar(ctx, "bob", 48)

	reloaded := s.newStack()
	res := reloaded.avatars.Resolve(ctx, "@bob", 48)
	s.Equal(first, res.URL)
	s.Equal(avatar.SourceCache, res.Source)
	s.EqualValues(1, s.primaryHits.Load())
}

func (s *ResolverTestSuite) TestExpiryAfterTTLRefetches() {
	ctx := context.Background()
	st := s.newStack()
	st.avatars.ResolveAvatar(ctx, "carol", 160)

	s.clock.Advance(24*time.Hour + time.Second)
	res := s.newStack().avatars.Resolve(ctx, "carol", 160)
	s.Equal(avatar.SourceRemote, res.Source)
	s.EqualValues(2, s.primaryHits.Load())
}

func (s *ResolverTestSuite) TestExternallyClearedSlotIsTolerated() {
	ctx := context.Background()
	s.newStack().avatars.ResolveAvatar(ctx, "dave", 160)
	s.Require().NoError(s.fs.RemoveAll("/var/efans"))

	res := s.newStack().avatars.Resolve(ctx, "dave", 160)
	s.Equal(avatar.SourceRemote, res.Source)
}

func TestResolverTestSuite(t *testing.T) {
	suite.Run(t, new(ResolverTestSuite))
}
