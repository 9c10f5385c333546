package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string

	HTTPAddr string

	OTLPEndpoint string

	Site SiteConfig

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	RateLimit RateLimitConfig

	AutoMigrate bool
	SeedDemo    bool
}

// SiteConfig identifies this installation to the center's monitoring
// federation and controls the accounting metrics push.
type SiteConfig struct {
	ID      string
	Name    string
	Metrics SiteMetricsConfig
}

type SiteMetricsConfig struct {
	Enabled   bool
	Exporter  string
	Endpoint  string
	AuthToken string
}

// RateLimitConfig guards the usage/trend query endpoints.
type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	QueryRate     float64
	QueryBurst    int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")

	cfg := Config{
		AppName:      getenv("APP_SERVICE", "corebank"),
		AppVersion:   getenv("APP_VERSION", "0.1.0"),
		Environment:  environment,
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		OTLPEndpoint: getenv("OTLP_ENDPOINT", "localhost:4317"),
		Site: SiteConfig{
			ID:   strings.TrimSpace(getenv("SITE_ID", "")),
			Name: getenv("SITE_NAME", ""),
			Metrics: SiteMetricsConfig{
				Enabled:   getenvBool("SITE_METRICS_ENABLED", false),
				Exporter:  strings.ToLower(getenv("SITE_METRICS_EXPORTER", "")),
				Endpoint:  strings.TrimSpace(getenv("SITE_METRICS_ENDPOINT", "")),
				AuthToken: strings.TrimSpace(getenv("SITE_METRICS_AUTH_TOKEN", "")),
			},
		},
		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "corebank"),
		DBUser:            getenv("DATABASE_USER", "corebank"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 25),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 3600),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 600),
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			QueryRate:     getenvFloat("RATE_LIMIT_QUERY_RATE", 25),
			QueryBurst:    getenvInt("RATE_LIMIT_QUERY_BURST", 50),
		},
		AutoMigrate: getenvBool("AUTO_MIGRATE", true),
		SeedDemo:    getenvBool("SEED_DEMO", false),
	}

	return cfg
}

// IsFederated reports whether this installation pushes accounting metrics
// to a central federation endpoint.
func (c Config) IsFederated() bool {
	return c.Site.ID != "" && c.Site.Metrics.Enabled
}

var Module = fx.Module("config",
	fx.Provide(Load),
	fx.Provide(NewThresholdHolder),
)

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}
