package configs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 160, cfg.Avatar.DefaultSize)
	assert.Equal(t, 24*time.Hour, cfg.Avatar.CacheTTL)
	assert.Equal(t, "https://t.me/", cfg.Avatar.ProfileBaseURL)
	assert.Equal(t, []string{"https://api.allorigins.win/raw?url=", "https://corsproxy.io/?"}, cfg.Avatar.ProxyEndpoints)
	assert.Zero(t, cfg.Avatar.HTTPTimeout)
	assert.EqualValues(t, 2097152, cfg.Avatar.MaxBodyBytes)
	assert.False(t, cfg.Avatar.Coalesce)
	assert.Equal(t, StorageDriverFile, cfg.Storage.Driver)
	assert.Equal(t, "avatarCache", cfg.Storage.Slot)
	assert.Equal(t, "", cfg.Ops.Addr())
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("AVATAR_DEFAULT_SIZE", "64")
	t.Setenv("AVATAR_CACHE_TTL", "1h")
	t.Setenv("AVATAR_PROXY_ENDPOINTS", " https://a.example/?u= , ,https://b.example/raw?url=")
	t.Setenv("AVATAR_COALESCE", "true")
	t.Setenv("STORAGE_DRIVER", "REDIS")
	t.Setenv("OPS_PORT", "9102")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 64, cfg.Avatar.DefaultSize)
	assert.Equal(t, time.Hour, cfg.Avatar.CacheTTL)
	assert.Equal(t, []string{"https://a.example/?u=", "https://b.example/raw?url="}, cfg.Avatar.ProxyEndpoints)
	assert.True(t, cfg.Avatar.Coalesce)
	assert.Equal(t, StorageDriverRedis, cfg.Storage.Driver)
	assert.Equal(t, "127.0.0.1:9102", cfg.Ops.Addr())
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("AVATAR_DEFAULT_SIZE", "big")
	t.Setenv("AVATAR_CACHE_TTL", "a day")
	t.Setenv("AVATAR_COALESCE", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 160, cfg.Avatar.DefaultSize)
	assert.Equal(t, 24*time.Hour, cfg.Avatar.CacheTTL)
	assert.False(t, cfg.Avatar.Coalesce)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	_, err := Load()
	assert.ErrorContains(t, err, "STORAGE_DRIVER")
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Avatar:  AvatarConfig{DefaultSize: 160, CacheTTL: time.Hour},
		Storage: StorageConfig{Driver: StorageDriverFile, Slot: "avatarCache"},
	}
	require.NoError(t, cfg.Validate())

	cfg.Avatar.DefaultSize = 0
	assert.Error(t, cfg.Validate())
	cfg.Avatar.DefaultSize = 160
	cfg.Storage.Slot = ""
	assert.Error(t, cfg.Validate())
}
