package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const DefaultSiteID int64 = 1000000

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Multisite MultisiteConfig
	Tracing   TracingConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	EventTopic         string // in-process site change topic
}

type DatabaseConfig struct {
	Connection string
}

type AuthConfig struct {
	JwtSecret string
}

type TracingConfig struct {
	Enabled  bool
	Endpoint string
}

type MultisiteConfig struct {
	DefaultSiteID    int64
	DefaultSiteTitle string
	// FixtureMode creates the default site on demand. Test and seed environments only.
	FixtureMode bool
	HomeSegment string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			EventTopic:         getEnv("SITE_EVENT_TOPIC_NAME", "SITE_REASSIGNED"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Auth: AuthConfig{
			JwtSecret: getEnv("JWT_SECRET", ""),
		},
		Multisite: MultisiteConfig{
			DefaultSiteID:    getEnvAsInt64("MULTISITE_DEFAULT_SITE_ID", DefaultSiteID),
			DefaultSiteTitle: getEnv("MULTISITE_DEFAULT_SITE_TITLE", "Default Site"),
			FixtureMode:      getEnvAsBool("MULTISITE_FIXTURE_MODE", false),
			HomeSegment:      getEnv("MULTISITE_HOME_SEGMENT", "home"),
		},
		Tracing: TracingConfig{
			Enabled:  getEnvAsBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseInt(strValue, 10, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := strings.TrimSpace(getEnv(key, ""))
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
