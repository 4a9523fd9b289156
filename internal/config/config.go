// Package config reads the service and CLI settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	geometa "github.com/tingold/orb-geometa"
)

// Cache backends.
const (
	CacheNone  = "none"
	CacheLRU   = "lru"
	CacheRedis = "redis"
)

type Config struct {
	Addr      string
	LogLevel  string
	LogFormat string

	Cache     string
	CacheSize int
	CacheTTL  time.Duration
	RedisAddr string

	// GDAL enables the GDAL engine. Without it only FlatGeobuf, Shapefile,
	// PostGIS and world-file sources open, and only Web Mercator reprojects.
	GDAL bool

	PG geometa.Connection
}

func FromEnv() Config {
	return Config{
		Addr:      getenv("GEOMETA_ADDR", ":8080"),
		LogLevel:  getenv("GEOMETA_LOG_LEVEL", "info"),
		LogFormat: getenv("GEOMETA_LOG_FORMAT", "text"),
		Cache:     strings.ToLower(getenv("GEOMETA_CACHE", CacheLRU)),
		CacheSize: getint("GEOMETA_CACHE_SIZE", 512),
		CacheTTL:  getduration("GEOMETA_CACHE_TTL", 10*time.Minute),
		RedisAddr: getenv("GEOMETA_REDIS_ADDR", "localhost:6379"),
		GDAL:      getbool("GEOMETA_GDAL", true),
		PG: geometa.Connection{
			Host:     getenv("GEOMETA_PG_HOST", ""),
			Port:     getint("GEOMETA_PG_PORT", 5432),
			Database: getenv("GEOMETA_PG_DB", ""),
			User:     getenv("GEOMETA_PG_USER", ""),
			Password: getenv("GEOMETA_PG_PASSWORD", ""),
		},
	}
}

// Validate checks the values FromEnv and flags produced.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q", c.LogFormat)
	}
	switch c.Cache {
	case CacheNone:
	case CacheLRU:
		if c.CacheSize <= 0 {
			return fmt.Errorf("cache size must be positive, got %d", c.CacheSize)
		}
	case CacheRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("redis cache needs GEOMETA_REDIS_ADDR")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache)
	}
	if c.Cache != CacheNone && c.CacheTTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL)
	}
	if c.PG.Port < 0 || c.PG.Port > 65535 {
		return fmt.Errorf("invalid postgres port %d", c.PG.Port)
	}
	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getint(k string, def int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v := os.Getenv(k); v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "t", "true", "y", "yes":
			return true
		case "0", "f", "false", "n", "no":
			return false
		}
	}
	return def
}

func getduration(k string, def time.Duration) time.Duration {
	if v := os.Getenv(k); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
