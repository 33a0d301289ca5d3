package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverFile  = "file"
	StorageDriverRedis = "redis"
)

type Config struct {
	Avatar  AvatarConfig
	Storage StorageConfig
	Redis   RedisConfig
	Ops     OpsConfig
	Log     LogConfig
}

type AvatarConfig struct {
	DefaultSize    int
	CacheTTL       time.Duration
	ProfileBaseURL string
	// Proxy prefixes; the first is primary, the second the single fallback.
	ProxyEndpoints []string
	HTTPTimeout    time.Duration // 0 means the client never times out
	MaxBodyBytes   int64
	Coalesce       bool
}

type StorageConfig struct {
	Driver  string // file or redis
	Slot    string
	FileDir string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
	// Pool and timeout settings
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolTimeout  time.Duration
	IdleTimeout  time.Duration
}

// OpsConfig configures the health/metrics listener of the warm daemon.
type OpsConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level  string
	Format string // json or text
}

// Addr is empty when no ops port is configured.
func (o OpsConfig) Addr() string {
	if o.Port == "" {
		return ""
	}
	return o.Host + ":" + o.Port
}

func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Avatar: AvatarConfig{
			DefaultSize:    getIntEnv("AVATAR_DEFAULT_SIZE", 160),
			CacheTTL:       getDurationEnv("AVATAR_CACHE_TTL", 24*time.Hour),
			ProfileBaseURL: getEnv("AVATAR_PROFILE_BASE_URL", "https://t.me/"),
			ProxyEndpoints: getListEnv("AVATAR_PROXY_ENDPOINTS", []string{
				"https://api.allorigins.win/raw?url=",
				"https://corsproxy.io/?",
			}),
			HTTPTimeout:  getDurationEnv("AVATAR_HTTP_TIMEOUT", 0),
			MaxBodyBytes: int64(getIntEnv("AVATAR_MAX_BODY_BYTES", 2<<20)),
			Coalesce:     getBoolEnv("AVATAR_COALESCE", false),
		},
		Storage: StorageConfig{
			Driver:  strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverFile)),
			Slot:    getEnv("STORAGE_SLOT", "avatarCache"),
			FileDir: getEnv("STORAGE_FILE_DIR", ".efans"),
		},
		Redis: RedisConfig{
			Host:         getEnv("REDIS_HOST", "localhost"),
			Port:         getEnv("REDIS_PORT", "6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getIntEnv("REDIS_DB", 0),
			KeyPrefix:    getEnv("REDIS_KEY_PREFIX", "efans"),
			PoolSize:     getIntEnv("REDIS_POOL_SIZE", 10),
			MinIdleConns: getIntEnv("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDurationEnv("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDurationEnv("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDurationEnv("REDIS_WRITE_TIMEOUT", 3*time.Second),
			PoolTimeout:  getDurationEnv("REDIS_POOL_TIMEOUT", 4*time.Second),
			IdleTimeout:  getDurationEnv("REDIS_IDLE_TIMEOUT", 5*time.Minute),
		},
		Ops: OpsConfig{
			Host:            getEnv("OPS_HOST", "127.0.0.1"),
			Port:            getEnv("OPS_PORT", ""),
			ReadTimeout:     getDurationEnv("OPS_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("OPS_WRITE_TIMEOUT", 10*time.Second),
			IdleTimeout:     getDurationEnv("OPS_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getDurationEnv("OPS_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverRedis:
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q (want %s or %s)", c.Storage.Driver, StorageDriverFile, StorageDriverRedis)
	}
	if c.Storage.Slot == "" {
		return fmt.Errorf("STORAGE_SLOT must not be empty")
	}
	if c.Avatar.DefaultSize <= 0 {
		return fmt.Errorf("AVATAR_DEFAULT_SIZE must be positive, got %d", c.Avatar.DefaultSize)
	}
	if c.Avatar.CacheTTL <= 0 {
		return fmt.Errorf("AVATAR_CACHE_TTL must be positive, got %s", c.Avatar.CacheTTL)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getListEnv splits a comma separated value, dropping blanks.
func getListEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
