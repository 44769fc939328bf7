package config

import (
	"fmt"

	"github.com/shareit-rental/service-shareit/internal/common/config"
)

// Storage drivers.
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// ServiceConfig holds all configuration for the ShareIt service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	StorageDriver string
	MigrationsDir string
	CORSOrigins   []string
	DBConfig      config.DatabaseConfig
	KafkaConfig   config.KafkaConfig
	RedisConfig   config.RedisConfig
}

// Load reads configuration from SHAREIT_* environment variables and an optional config.yaml.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("SHAREIT")
	if err != nil {
		return nil, err
	}
	v.SetDefault("DB_NAME", "shareit")
	v.SetDefault("STORAGE_DRIVER", StoragePostgres)
	v.SetDefault("MIGRATIONS_DIR", "migrations")

	cfg := &ServiceConfig{
		Port:          config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:        config.GetAppEnv(v),
		StorageDriver: v.GetString("STORAGE_DRIVER"),
		MigrationsDir: v.GetString("MIGRATIONS_DIR"),
		CORSOrigins:   config.GetStringList(v, "CORS_ALLOW_ORIGINS"),
		DBConfig:      config.LoadDatabaseConfig(v, "DB_NAME"),
		KafkaConfig:   config.LoadKafkaConfig(v),
		RedisConfig:   config.LoadRedisConfig(v),
	}

	switch cfg.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
	return cfg, nil
}
