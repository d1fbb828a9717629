package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	env := "PORT=9090\n" +
		"APP_ENV=production\n" +
		"PING_INTERVAL=2s\n" +
		"CLIENT_TIMEOUT=4s\n" +
		"REDIS_HOST=redis.internal\n" +
		"REDIS_PORT_CHAT=6380\n" +
		"MONGO_DB_URL=mongodb://localhost:27017\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte(env), 0o644))

	cfg, err := Get(dir)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, 2*time.Second, cfg.PingInterval)
	assert.Equal(t, 4*time.Second, cfg.ClientTimeout)
	assert.Equal(t, "redis.internal", cfg.RedisHost)
	assert.Equal(t, "6380", cfg.RedisPortChat)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoDbUrl)
}

func TestGetDefaultsWithoutEnvFile(t *testing.T) {
	cfg, err := Get(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 5*time.Second, cfg.PingInterval)
	assert.Equal(t, 10*time.Second, cfg.ClientTimeout)
}
