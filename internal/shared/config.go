package shared

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv         string
	AppDebug       bool
	LogLevel       string
	HTTPAddr       string
	MetricsAddr    string
	DBDriver       string
	DBDSN          string
	AutoMigrate    bool
	StorageDir     string
	RedisAddr      string
	RedisDB        int
	RedisPass      string
	CacheTTL       time.Duration
	HTTPTimeout    time.Duration
	MaxUploadBytes int64

	SeedHotels      int
	SeedWorkers     int
	PlaceholderBase string
	PlaceholderRPS  int
}

func Load() Config {
	// .env is optional; real env vars win over it
	if err := godotenv.Load(); err == nil {
		log.Debug().Msg("loaded .env")
	}

	atoi := func(k string, def int) int {
		if v := os.Getenv(k); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				return n
			}
		}
		return def
	}
	driver := strings.ToLower(env("DB_DRIVER", "mysql"))
	c := Config{
		AppEnv:         env("APP_ENV", "prod"),
		AppDebug:       boolEnv("APP_DEBUG", false),
		LogLevel:       env("LOG_LEVEL", "info"),
		HTTPAddr:       env("HTTP_ADDR", ":8080"),
		MetricsAddr:    env("METRICS_ADDR", ""),
		DBDriver:       driver,
		DBDSN:          env("DB_DSN", defaultDSN(driver)),
		AutoMigrate:    boolEnv("DB_AUTO_MIGRATE", true),
		StorageDir:     env("STORAGE_DIR", "./storage/app/public"),
		RedisAddr:      env("REDIS_ADDR", ""),
		RedisPass:      env("REDIS_PASSWORD", ""),
		RedisDB:        atoi("REDIS_DB", 0),
		CacheTTL:       time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
		HTTPTimeout:    time.Duration(atoi("HTTP_TIMEOUT_SECONDS", 15)) * time.Second,
		MaxUploadBytes: int64(atoi("MAX_UPLOAD_MB", 64)) << 20,

		SeedHotels:      atoi("SEED_HOTELS", 10),
		SeedWorkers:     atoi("SEED_WORKERS", 4),
		PlaceholderBase: env("PLACEHOLDER_BASE_URL", "https://placehold.co"),
		PlaceholderRPS:  atoi("PLACEHOLDER_RPS", 5),
	}
	if c.AppDebug && c.AppEnv == "prod" {
		log.Warn().Msg("APP_DEBUG is on in prod: internal error messages reach clients")
	}
	return c
}

func defaultDSN(driver string) string {
	if driver == "sqlite" {
		return "file:hotels.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}
	return env("MYSQL_DSN", "root:root@tcp(localhost:3306)/hotels?parseTime=true&charset=utf8mb4&loc=UTC")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func boolEnv(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
