package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "localhost")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTPConfig.Addr)
	assert.Equal(t, 5*time.Second, cfg.HTTPConfig.RequestTimeout)
	assert.Empty(t, cfg.KafkaConfig.Brokers)
	assert.False(t, cfg.PublishEvents())
	assert.Error(t, cfg.RequireKafka())
	assert.Equal(t, "note-events", cfg.KafkaConfig.Topic)
	assert.Equal(t, 1, cfg.KafkaConfig.NumPartitions)
	assert.Empty(t, cfg.AuthConfig.StaticTokens)
	assert.Equal(t, "postgres", cfg.Storage)
	assert.Equal(t, "Europe/Moscow", cfg.TimeZone)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")
	t.Setenv("HTTP_REQUEST_TIMEOUT", "2s")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("AUTH_STATIC_TOKENS", "abc:u1,def:u2")
	t.Setenv("POSTGRES_USER", "ledger")
	t.Setenv("POSTGRES_PASSWORD", "secret")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "5433")
	t.Setenv("POSTGRES_DB", "notes")
	t.Setenv("POSTGRES_SSLMODE", "require")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.HTTPConfig.Addr)
	assert.Equal(t, 2*time.Second, cfg.HTTPConfig.RequestTimeout)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaConfig.Brokers)
	assert.True(t, cfg.PublishEvents())
	assert.NoError(t, cfg.RequireKafka())
	assert.Equal(t, 3, cfg.RedisConfig.DB)
	assert.Equal(t, map[string]string{"abc": "u1", "def": "u2"}, cfg.AuthConfig.StaticTokens)
	assert.Equal(t, "postgres://ledger:secret@db:5433/notes?sslmode=require", cfg.PostgresConfig.DSN())
}

func TestLoadConfig_Invalid(t *testing.T) {
	cases := map[string]string{
		"REDIS_DB":             "zero",
		"HTTP_REQUEST_TIMEOUT": "soon",
		"AUTH_STATIC_TOKENS":   "no-user",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestRequireBots(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.RequireWriteBot())
	assert.Error(t, cfg.RequireNotifyBot())

	cfg.TelegramConfig = TelegramConfig{TokenWriteBot: "w", TokenNotifyBot: "n"}
	assert.NoError(t, cfg.RequireWriteBot())
	assert.NoError(t, cfg.RequireNotifyBot())
}
