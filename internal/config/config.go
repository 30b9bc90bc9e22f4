package config

import (
	"fmt"
	"os"
)

// RegistryKind selects where job state lives.
const (
	RegistryMemory = "memory"
	RegistrySQLite = "sqlite"
)

type Config struct {
	DatabaseURL    string
	APIPort        string
	DataDir        string
	JobRegistry    string
	JobRegistryDSN string
}

func New() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	cfg := &Config{
		DatabaseURL:    databaseURL,
		APIPort:        getEnv("API_PORT", "8080"),
		DataDir:        getEnv("DATA_DIR", "/app/data"),
		JobRegistry:    getEnv("JOB_REGISTRY", RegistryMemory),
		JobRegistryDSN: getEnv("JOB_REGISTRY_DSN", "jobs.db"),
	}

	if cfg.JobRegistry != RegistryMemory && cfg.JobRegistry != RegistrySQLite {
		return nil, fmt.Errorf("invalid value for JOB_REGISTRY: expected %q or %q, got %q",
			RegistryMemory, RegistrySQLite, cfg.JobRegistry)
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
