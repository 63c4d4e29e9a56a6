package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultDSN = "host=localhost user=postgres password=postgres dbname=realestate port=5432 sslmode=disable"

type Config struct {
	HTTPPort    string
	CORSOrigins string

	DatabaseDSN       string
	DBMaxOpenConns    int
	DBMaxIdleConns    int
	DBConnMaxLifetime time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	SearchBackend   string // "opensearch" or "memory"
	SearchAddresses []string
	SearchUsername  string
	SearchPassword  string
	SearchInsecure  bool
	IndexRefresh    string
	SupplyIndex     string
	DemandIndex     string

	CrossMatchSize  int
	DefaultListSize int
	MaxListSize     int

	IDStrategy    string
	SnowflakeNode int64

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheTTL      time.Duration

	LogLevel  string
	LogFormat string

	// Warnings are non-fatal findings for the caller to log.
	Warnings []string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

func FromEnv() (*Config, error) {
	var errs []error
	p := parser{errs: &errs}

	cfg := &Config{
		HTTPPort:    getEnv("HTTP_PORT", "8080"),
		CORSOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),

		DatabaseDSN:       getEnv("DATABASE_DSN", defaultDSN),
		DBMaxOpenConns:    p.int("DB_MAX_OPEN_CONNS", 20),
		DBMaxIdleConns:    p.int("DB_MAX_IDLE_CONNS", 5),
		DBConnMaxLifetime: p.duration("DB_CONN_MAX_LIFETIME", 30*time.Minute),

		JWTSecret: getEnv("JWT_SECRET", ""),
		TokenTTL:  p.duration("TOKEN_TTL", 30*24*time.Hour),

		SearchBackend:   getEnv("SEARCH_BACKEND", "opensearch"),
		SearchAddresses: splitList(getEnv("OPENSEARCH_ADDRESSES", "https://localhost:9200")),
		SearchUsername:  getEnv("OPENSEARCH_USERNAME", "admin"),
		SearchPassword:  getEnv("OPENSEARCH_PASSWORD", ""),
		SearchInsecure:  p.bool("OPENSEARCH_INSECURE_TLS", false),
		IndexRefresh:    getEnv("INDEX_REFRESH", "wait_for"),
		SupplyIndex:     getEnv("SUPPLY_INDEX", "supply_properties"),
		DemandIndex:     getEnv("DEMAND_INDEX", "demand_requests"),

		CrossMatchSize:  p.int("CROSS_MATCH_SIZE", 10),
		DefaultListSize: p.int("DEFAULT_LIST_SIZE", 10),
		MaxListSize:     p.int("MAX_LIST_SIZE", 100),

		IDStrategy:    getEnv("ID_STRATEGY", "uuid"),
		SnowflakeNode: int64(p.int("SNOWFLAKE_NODE", 1)),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       p.int("REDIS_DB", 0),
		CacheTTL:      p.duration("CACHE_TTL", time.Minute),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if cfg.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	} else if len(cfg.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 characters"))
	}
	switch cfg.SearchBackend {
	case "opensearch":
		if len(cfg.SearchAddresses) == 0 {
			errs = append(errs, errors.New("OPENSEARCH_ADDRESSES must list at least one address"))
		}
	case "memory":
		cfg.Warnings = append(cfg.Warnings, "SEARCH_BACKEND=memory keeps the index in process memory; use it for development only")
	default:
		errs = append(errs, fmt.Errorf("SEARCH_BACKEND must be opensearch or memory, got %q", cfg.SearchBackend))
	}
	if cfg.SupplyIndex == cfg.DemandIndex {
		errs = append(errs, errors.New("SUPPLY_INDEX and DEMAND_INDEX must differ"))
	}
	if cfg.CrossMatchSize <= 0 {
		errs = append(errs, errors.New("CROSS_MATCH_SIZE must be positive"))
	}
	if cfg.DefaultListSize <= 0 || cfg.MaxListSize < cfg.DefaultListSize {
		errs = append(errs, errors.New("DEFAULT_LIST_SIZE must be positive and not exceed MAX_LIST_SIZE"))
	}
	if cfg.DatabaseDSN == defaultDSN {
		cfg.Warnings = append(cfg.Warnings, "DATABASE_DSN is using the default local value")
	}
	if cfg.CORSOrigins == "http://localhost:5173" {
		cfg.Warnings = append(cfg.Warnings, "CORS_ALLOWED_ORIGINS is using the default development origin")
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

type parser struct {
	errs *[]error
}

func (p parser) int(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return def
	}
	return n
}

func (p parser) bool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %q is not a boolean", key, v))
		return def
	}
	return b
}

func (p parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s: %q is not a duration", key, v))
		return def
	}
	return d
}
