package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Port)
	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, StoragePostgres, cfg.StorageDriver)
	assert.Equal(t, "shareit", cfg.DBConfig.DBName)
	assert.Equal(t, "booking.events", cfg.KafkaConfig.Topic)
	assert.False(t, cfg.KafkaConfig.Enabled())
	assert.False(t, cfg.RedisConfig.Enabled())
	assert.Equal(t, 5*time.Minute, cfg.RedisConfig.TTL)
	assert.Empty(t, cfg.CORSOrigins)
}

func TestLoadFromEnv(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHAREIT_SERVICE_PORT", "8080")
	t.Setenv("SHAREIT_STORAGE_DRIVER", "memory")
	t.Setenv("SHAREIT_KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092")
	t.Setenv("SHAREIT_REDIS_ADDR", "redis:6379")
	t.Setenv("SHAREIT_ITEM_CACHE_TTL", "30s")
	t.Setenv("SHAREIT_CORS_ALLOW_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Port)
	assert.Equal(t, StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaConfig.Brokers)
	assert.True(t, cfg.KafkaConfig.Enabled())
	assert.Equal(t, "redis:6379", cfg.RedisConfig.Addr)
	assert.Equal(t, 30*time.Second, cfg.RedisConfig.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SHAREIT_STORAGE_DRIVER", "mongo")

	_, err := Load()
	require.Error(t, err)
}
