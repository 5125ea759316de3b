package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	t.Parallel()

	content := `
server:
  host: "127.0.0.1"
  port: 8080
  max_connections: 5000

redis:
  addr: "redis:6379"
  password: "secret"
  db: 1

storage:
  backend: memory

game:
  auto_play_delay_ms: 800
  room_timeout: 15
  default_auto_play: true

security:
  allowed_origins:
    - "http://localhost:3000"
    - "https://example.com"
  message_limit:
    max_per_second: 50

log:
  file: /tmp/judgment.log
`
	cfg, err := Load(writeConfig(t, content))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 5000, cfg.Server.MaxConnections)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, "secret", cfg.Redis.Password)
	assert.Equal(t, 1, cfg.Redis.DB)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 800, cfg.Game.AutoPlayDelay)
	assert.Equal(t, 15, cfg.Game.RoomTimeout)
	assert.True(t, cfg.Game.DefaultAutoPlay)
	assert.Len(t, cfg.Security.AllowedOrigins, 2)
	assert.Equal(t, 50, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, "/tmp/judgment.log", cfg.Log.File)
}

func TestLoad_FileNotFound(t *testing.T) {
	t.Parallel()

	cfg, err := Load("/nonexistent/path/config.yaml")
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, "invalid: yaml: :::"))
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `{}`))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultMaxConnections, cfg.Server.MaxConnections)
	assert.Equal(t, defaultRedisAddr, cfg.Redis.Addr)
	assert.Equal(t, BackendRedis, cfg.Storage.Backend)
	assert.Equal(t, defaultAutoPlayDelay, cfg.Game.AutoPlayDelay)
	assert.Equal(t, defaultRoomTimeout, cfg.Game.RoomTimeout)
	assert.Equal(t, []string{"*"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, defaultMessagesPerSec, cfg.Security.MessageLimit.MaxPerSecond)
	assert.Equal(t, defaultConnsPerSec, cfg.Security.RateLimit.MaxPerSecond)
	assert.Equal(t, time.Duration(defaultBanDuration)*time.Second, cfg.Security.RateLimit.BanDurationTime())
	assert.Empty(t, cfg.Log.File)
}

func TestDefault(t *testing.T) {
	// Not parallel: other tests set environment variables

	cfg := Default()
	require.NotNil(t, cfg)
	assert.Equal(t, defaultHost, cfg.Server.Host)
	assert.Equal(t, defaultPort, cfg.Server.Port)
	assert.Equal(t, defaultAutoPlayDelay, cfg.Game.AutoPlayDelay)
}

func TestGameConfig_DurationMethods(t *testing.T) {
	t.Parallel()

	cfg := &GameConfig{AutoPlayDelay: 1500, RoomTimeout: 10}
	assert.Equal(t, 1500*time.Millisecond, cfg.AutoPlayDelayDuration())
	assert.Equal(t, 10*time.Minute, cfg.RoomTimeoutDuration())
}

func TestLoadFromEnv(t *testing.T) {
	// Not parallel because it modifies environment variables

	t.Setenv("SERVER_HOST", "env-host")
	t.Setenv("SERVER_PORT", "9999")
	t.Setenv("REDIS_ADDR", "env-redis:6380")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("GAME_AUTO_PLAY_DELAY", "250")
	t.Setenv("GAME_ROOM_TIMEOUT", "not-a-number")
	t.Setenv("SECURITY_ALLOWED_ORIGINS", "http://a.com, http://b.com,")
	t.Setenv("LOG_FILE", "/var/log/judgment.log")

	cfg, err := Load(writeConfig(t, "server:\n  port: 1234\ngame:\n  room_timeout: 5\n"))
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "env-host", cfg.Server.Host)
	assert.Equal(t, 9999, cfg.Server.Port, "env wins over the file")
	assert.Equal(t, "env-redis:6380", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, BackendMemory, cfg.Storage.Backend)
	assert.Equal(t, 250, cfg.Game.AutoPlayDelay)
	assert.Equal(t, 5, cfg.Game.RoomTimeout, "invalid numbers are ignored")
	assert.Equal(t, []string{"http://a.com", "http://b.com"}, cfg.Security.AllowedOrigins)
	assert.Equal(t, "/var/log/judgment.log", cfg.Log.File)
}
