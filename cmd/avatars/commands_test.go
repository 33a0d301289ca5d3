package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	config "github.com/exterafans/efans-avatars/configs"
	"github.com/exterafans/efans-avatars/internal/core/domain/avatar"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, endpoints ...string) *config.Config {
	t.Helper()
	return &config.Config{
		Avatar: config.AvatarConfig{
			DefaultSize:    160,
			CacheTTL:       24 * time.Hour,
			ProfileBaseURL: "https://t.me/",
			ProxyEndpoints: endpoints,
			MaxBodyBytes:   1 << 20,
		},
		Storage: config.StorageConfig{Driver: config.StorageDriverFile, Slot: "avatarCache", FileDir: t.TempDir()},
		Ops:     config.OpsConfig{ShutdownTimeout: time.Second},
		Log:     config.LogConfig{Level: "error", Format: "text"},
	}
}

func quietLogger() *logrus.Logger {
	return newLogger(config.LogConfig{Level: "panic"}, io.Discard)
}

func profileProxy(t *testing.T) (*httptest.Server, *atomic.Int64) {
	t.Helper()
	hits := &atomic.Int64{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, `<html><head><meta property="og:image" content="https://cdn4.telesco.pe/file/alice.jpg"></head></html>`)
	}))
	t.Cleanup(srv.Close)
	return srv, hits
}

func decodeLines[T any](t *testing.T, out *bytes.Buffer) []T {
	t.Helper()
	var rows []T
	sc := bufio.NewScanner(out)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		var row T
		require.NoError(t, json.Unmarshal(sc.Bytes(), &row))
		rows = append(rows, row)
	}
	return rows
}

func TestRun_ResolveThenCacheList(t *testing.T) {
	proxy, hits := profileProxy(t)
	cfg := testConfig(t, proxy.URL+"/raw?url=")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"resolve", "-size", "64", "@alice", "alice"}, &out))
	res := decodeLines[avatar.Resolution](t, &out)
	require.Len(t, res, 2)
	assert.Equal(t, "https://cdn4.telesco.pe/file/alice.jpg", res[0].URL)
	assert.Equal(t, avatar.SourceRemote, res[0].Source)
	assert.Equal(t, avatar.SourceCache, res[1].Source)
	assert.EqualValues(t, 1, hits.Load())

	out.Reset()
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"cache", "list"}, &out))
	rows := decodeLines[cacheRow](t, &out)
	require.Len(t, rows, 1)
	assert.Equal(t, "alice_64", rows[0].Key)
	assert.True(t, rows[0].Valid)

	out.Reset()
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"cache", "clear"}, &out))
	out.Reset()
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"cache", "list"}, &out))
	assert.Empty(t, out.String())
}

func TestRun_ResolveWithoutEndpointsFallsBackToPlaceholder(t *testing.T) {
	cfg := testConfig(t)
	cfg.Avatar.ProxyEndpoints = []string{}

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), cfg, quietLogger(), []string{"resolve", "bob"}, &out))
	res := decodeLines[avatar.Resolution](t, &out)
	require.Len(t, res, 1)
	assert.Equal(t, avatar.SourcePlaceholder, res[0].Source)
	assert.Equal(t, avatar.Placeholder("bob", 160), res[0].URL)
}

func TestRun_Placeholder(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), testConfig(t), quietLogger(), []string{"placeholder", "-size", "48", "qidok"}, &out))
	assert.Equal(t, avatar.Placeholder("qidok", 48), strings.TrimSpace(out.String()))
}

func TestRun_CreditsAndWarm(t *testing.T) {
	proxy, _ := profileProxy(t)
	cfg := testConfig(t, proxy.URL+"/raw?url=")
	ctx := context.Background()

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"warm", "-sizes", "48,160"}, &out))
	var warmed map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &warmed))
	assert.EqualValues(t, 4, warmed["warmed"])

	out.Reset()
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"credits"}, &out))
	cards := decodeLines[map[string]any](t, &out)
	require.Len(t, cards, 2)
	assert.Equal(t, "mkultra69", cards[0]["name"])
	assert.Equal(t, "https://mk69.su", cards[0]["websiteUrl"])
	assert.Equal(t, "https://cdn4.telesco.pe/file/alice.jpg", cards[0]["avatarUrl"])
}

func TestRun_WarmLoopStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.Avatar.ProxyEndpoints = []string{}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	require.NoError(t, run(ctx, cfg, quietLogger(), []string{"warm", "-interval", "10ms", "-listen", ""}, &out))
	assert.GreaterOrEqual(t, strings.Count(out.String(), "warmed"), 1)
}

func TestRun_UsageErrors(t *testing.T) {
	cfg := testConfig(t)
	for _, args := range [][]string{
		nil,
		{"frobnicate"},
		{"resolve"},
		{"placeholder"},
		{"cache"},
		{"cache", "vacuum"},
		{"warm", "-sizes", "big"},
	} {
		err := run(context.Background(), cfg, quietLogger(), args, io.Discard)
		assert.ErrorIs(t, err, errUsage, "%v", args)
	}
}

func TestParseSizes(t *testing.T) {
	sizes, err := parseSizes(" 48, ,160 ")
	require.NoError(t, err)
	assert.Equal(t, []int{48, 160}, sizes)

	_, err = parseSizes("0")
	assert.ErrorIs(t, err, errUsage)
}
