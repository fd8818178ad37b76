package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "APP_ENV", "MONGO_DB", "JWT_TTL", "EVENT_BROKER", "KAFKA_BROKERS", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "5000", cfg.Port)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.False(t, cfg.IsProduction())
	assert.Equal(t, "qayyim", cfg.MongoDB)
	assert.Equal(t, 720*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "", cfg.EventBroker)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_TTL", "2h")
	t.Setenv("EVENT_BROKER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("CORS_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "kafka", cfg.EventBroker)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
}

func TestBlankListsFallBack(t *testing.T) {
	t.Setenv("CORS_ORIGINS", " , ")
	t.Setenv("KAFKA_BROKERS", ",")

	cfg := Load()

	assert.Equal(t, []string{"http://localhost:5173"}, cfg.CORSOrigins)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestInvalidDurationFallsBack(t *testing.T) {
	t.Setenv("JWT_TTL", "thirty days")

	assert.Equal(t, 720*time.Hour, Load().JWTTTL)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("QAYYIM_TEST_VALUE=from-file\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("QAYYIM_TEST_VALUE") })

	LoadEnv(path)

	assert.Equal(t, "from-file", getEnv("QAYYIM_TEST_VALUE", "fallback"))
}
