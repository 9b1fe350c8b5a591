// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"kitchenops/internal/logger"
)

const devJWTSecret = "kitchenops-dev-secret"

// Config is the full runtime configuration, built once at startup and passed down.
type Config struct {
	Environment    string
	Host           string
	Port           string
	DatabaseDriver string
	DatabaseURL    string
	JWTSecret      []byte
	TokenTTL       time.Duration
	AllowedOrigins []string
	RequestTimeout time.Duration
	RetentionDays  int
	Logger         logger.Config
}

//
// --- Utility Helpers ---
//

// Environment returns ENVIRONMENT, defaulting to dev.
func Environment() string {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "dev"
	}
	return env
}

// Helper: get a setting based on ENVIRONMENT (dev or prod)
func GetEnvBasedSetting(base string) string {
	return os.Getenv(fmt.Sprintf("%s_%s", base, strings.ToUpper(Environment())))
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logger.LogWarn("Invalid %s: %q, using default %d", key, raw, defaultValue)
		return defaultValue
	}
	return n
}

// Helper: log which environment is running
func LogCurrentEnvironment(cfg Config) {
	if cfg.Environment == "dev" {
		logger.LogInfo("Running in development environment")
	} else {
		logger.LogInfo("Running in %s environment", cfg.Environment)
	}
	logger.LogInfo("Database driver: %s", cfg.DatabaseDriver)
}

//
// --- Loaders ---
//

// LoadEnv reads .env file
func LoadEnv() {
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("Could not determine working directory: %v", err)
	}

	if err := godotenv.Load(".env"); err != nil {
		log.Printf("No .env file found in %s. Using system environment variables.", wd)
	} else {
		log.Printf("Loaded environment variables from .env file in %s", wd)
	}
}

// LoggerConfig returns a logger.Config struct populated from environment
func LoggerConfig() logger.Config {
	logDir := GetEnvBasedSetting("LOGS_DIRECTORY")
	if logDir == "" {
		logDir = "./logs"
	}

	logFormat := GetEnvBasedSetting("LOG_FILE_FORMAT")
	if logFormat == "" {
		logFormat = "server_%s.log"
	}

	return logger.Config{
		LogsDirectory: logDir,
		LogFileFormat: logFormat,
		TimeZone:      getEnvOrDefault("TIME_ZONE", "Local"),
		Level:         getEnvOrDefault("LOG_LEVEL", "info"),
	}
}

// Load assembles the Config from the environment. Call LoadEnv first.
func Load() (Config, error) {
	cfg := Config{
		Environment:    Environment(),
		Host:           getEnvOrDefault("SERVER_HOST", "127.0.0.1"),
		Port:           getEnvOrDefault("SERVER_PORT", "5051"),
		DatabaseDriver: strings.ToLower(getEnvOrDefault("DATABASE_DRIVER", "sqlite")),
		DatabaseURL:    GetEnvBasedSetting("DATABASE_URL"),
		TokenTTL:       time.Duration(getIntOrDefault("TOKEN_TTL_HOURS", 720)) * time.Hour,
		RequestTimeout: time.Duration(getIntOrDefault("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second,
		RetentionDays:  getIntOrDefault("PREP_RETENTION_DAYS", 0),
		Logger:         LoggerConfig(),
	}

	switch cfg.DatabaseDriver {
	case "sqlite", "postgres":
	default:
		return cfg, fmt.Errorf("unsupported DATABASE_DRIVER %q (want sqlite or postgres)", cfg.DatabaseDriver)
	}

	if cfg.DatabaseURL == "" {
		if cfg.DatabaseDriver == "postgres" {
			return cfg, fmt.Errorf("DATABASE_URL_%s is required for postgres", strings.ToUpper(cfg.Environment))
		}
		cfg.DatabaseURL = "./data/kitchenops.db"
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		if cfg.Environment != "dev" {
			return cfg, fmt.Errorf("JWT_SECRET is required outside the dev environment")
		}
		logger.LogWarn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	cfg.JWTSecret = []byte(secret)

	origins := GetEnvBasedSetting("ALLOWED_ORIGIN")
	if origins == "" {
		logger.LogWarn("ALLOWED_ORIGIN not set, using '*' (allow all origins)")
		cfg.AllowedOrigins = []string{"*"}
	} else {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
			}
		}
	}

	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return c.Host + ":" + c.Port
}
