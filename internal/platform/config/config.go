// Package config loads runtime settings from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	AppEnv   string
	LogLevel string
	Port     string

	StorageDriver string
	DatabaseURL   string
	MongoURI      string
	MongoDB       string
	CatalogSource string

	APIURL         string
	HTTPTimeout    time.Duration
	TracingEnabled bool
}

// Load reads a .env file when one is present and then the process environment.
// A missing .env file is not an error.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),
		Port:     getEnv("APP_PORT", "8080"),

		StorageDriver: strings.ToLower(getEnv("STORAGE_DRIVER", DriverMemory)),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		MongoURI:      getEnv("MONGODB_URI", ""),
		MongoDB:       getEnv("MONGODB_DB", "saas-training"),
		CatalogSource: strings.ToLower(getEnv("CATALOG_SOURCE", "static")),

		APIURL:         strings.TrimRight(getEnv("POS_API_URL", "http://localhost:8080"), "/"),
		HTTPTimeout:    time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
