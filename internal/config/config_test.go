package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
app:
  env: production
  port: "8080"
mongo:
  uri: mongodb://localhost:27017
  database: chatdb
  timeout_seconds: 5
redis:
  addr: localhost:6379
  presence_ttl_seconds: 30
kafka:
  brokers: ["localhost:9092"]
  topic: chat.messages
jwt:
  algorithm: HS256
  hs_secret: s3cret
ws:
  ping_interval_seconds: 15
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "production", cfg.App.Env)
	require.Equal(t, "8080", cfg.App.Port)
	require.Equal(t, "chatdb", cfg.Mongo.Database)
	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "s3cret", cfg.JWT.HSSecret)

	require.Equal(t, 5*time.Second, cfg.MongoTimeout)
	require.Equal(t, 30*time.Second, cfg.PresenceTTL)
	require.Equal(t, 15*time.Second, cfg.PingInterval)
	// untouched fields pick up defaults
	require.Equal(t, 10*time.Second, cfg.WriteDeadline)
	require.Equal(t, int64(64*1024), cfg.WS.MaxMessageSizeBytes)
	require.Equal(t, 20, cfg.WS.RateLimitPerSec)
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
jwt:
  hs_secret: s3cret
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "5000", cfg.App.Port)
	require.Equal(t, "zameer", cfg.Mongo.Database)
	require.Equal(t, "HS256", cfg.JWT.Algorithm)
	require.Equal(t, "chat", cfg.Redis.Prefix)
	require.Equal(t, 60*time.Second, cfg.PresenceTTL)
	require.Equal(t, 25*time.Second, cfg.PingInterval)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
