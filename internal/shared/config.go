package shared

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	HTTPAddr       string
	MetricsAddr    string
	MySQLDSN       string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	AssetsBase     string
	AssetsKey      string
	AssetsRPS      int
	ImportWorkers  int
	MaxUploadBytes int64
	CacheTTL       time.Duration
}

func Load() Config {
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ":9100"),
		MySQLDSN:       env("MYSQL_DSN", "root:root@tcp(localhost:3306)/listings?parseTime=true&charset=utf8mb4,utf8&loc=UTC"),
		RedisAddr:      env("REDIS_ADDR", "localhost:6379"),
		RedisDB:        atoi("REDIS_DB", 0),
		RedisPass:      env("REDIS_PASSWORD", ""),
		AssetsBase:     env("ASSETS_BASE_URL", ""),
		AssetsKey:      env("ASSETS_API_KEY", ""),
		AssetsRPS:      atoi("ASSETS_RPS", 5),
		ImportWorkers:  atoi("IMPORT_WORKERS", 8),
		MaxUploadBytes: int64(atoi("MAX_UPLOAD_MB", 10)) << 20,
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 900)) * time.Second,
	}
	if c.AssetsBase == "" || c.AssetsKey == "" {
		log.Warn().Msg("ASSETS_BASE_URL or ASSETS_API_KEY is empty; menu PDF uploads are disabled")
	}
	if c.ImportWorkers <= 0 {
		c.ImportWorkers = 1
	}
	return c
}

// AssetsEnabled reports whether the asset store is configured.
func (c Config) AssetsEnabled() bool { return c.AssetsBase != "" && c.AssetsKey != "" }

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func atoi(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Warn().Str("key", k).Str("value", v).Msg("not an integer, using default")
	}
	return def
}
