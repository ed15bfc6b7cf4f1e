package infra

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// User directory backends.
const (
	UserStoreMemory   = "memory"
	UserStorePostgres = "postgres"
	UserStoreRedis    = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DemoMode    bool
	CORSOrigins []string

	UserStore   string
	DatabaseURL string
	RedisURL    string

	JWTSecret  string
	JWKSURL    string
	AuthIssuer string

	GeoIPDBPath   string
	DefaultLocale string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int

	GenerationDelay       time.Duration
	GenerationJitter      time.Duration
	ConnectionDelay       time.Duration
	DemoSessionTTL        time.Duration
	UpstreamRetryAttempts int
	CatalogPath           string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:                getEnv("APP_ENV", "development"),
		Port:                  getEnv("PORT", "10000"),
		DemoMode:              getEnvBool("DEMO_MODE", false),
		CORSOrigins:           getEnvList("CORS_ORIGIN", []string{"http://localhost:5173"}),
		UserStore:             strings.ToLower(os.Getenv("USER_STORE")),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisURL:              os.Getenv("REDIS_URL"),
		JWTSecret:             os.Getenv("AUTH_JWT_SECRET"),
		JWKSURL:               os.Getenv("AUTH_JWKS_URL"),
		AuthIssuer:            os.Getenv("AUTH_ISSUER"),
		GeoIPDBPath:           os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale:         getEnv("DEFAULT_LOCALE", "en"),
		HTTPReadTimeout:       time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:      time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:       time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:       getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		GenerationDelay:       time.Millisecond * time.Duration(getEnvInt("GENERATION_DELAY_MS", 2000)),
		GenerationJitter:      time.Millisecond * time.Duration(getEnvInt("GENERATION_JITTER_MS", 0)),
		ConnectionDelay:       time.Millisecond * time.Duration(getEnvInt("CONNECTION_DELAY_MS", 1500)),
		DemoSessionTTL:        time.Minute * time.Duration(getEnvInt("DEMO_SESSION_TTL_MINUTES", 30)),
		UpstreamRetryAttempts: getEnvInt("UPSTREAM_RETRY_ATTEMPTS", 3),
		CatalogPath:           os.Getenv("CATALOG_PATH"),
	}

	if cfg.UserStore == "" {
		switch {
		case cfg.DatabaseURL != "":
			cfg.UserStore = UserStorePostgres
		case cfg.RedisURL != "":
			cfg.UserStore = UserStoreRedis
		default:
			cfg.UserStore = UserStoreMemory
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.UserStore {
	case UserStoreMemory:
	case UserStorePostgres:
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required when USER_STORE=postgres"))
		}
	case UserStoreRedis:
		if c.RedisURL == "" {
			errs = append(errs, errors.New("REDIS_URL is required when USER_STORE=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported USER_STORE %q", c.UserStore))
	}

	if !c.DemoMode && c.JWTSecret == "" && c.JWKSURL == "" {
		errs = append(errs, errors.New("AUTH_JWT_SECRET or AUTH_JWKS_URL is required outside demo mode"))
	}
	if c.UpstreamRetryAttempts < 1 {
		errs = append(errs, errors.New("UPSTREAM_RETRY_ATTEMPTS must be at least 1"))
	}
	if c.RateLimitPerMin < 1 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be at least 1"))
	}
	return errors.Join(errs...)
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
