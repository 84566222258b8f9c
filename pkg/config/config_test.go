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

func TestLoad_AppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "env: test\n"))
	require.NoError(t, err)

	require.Equal(t, "test", cfg.Env)
	require.Equal(t, ":3000", cfg.HTTP.Port)
	require.Equal(t, ":9091", cfg.Metrics.Port)
	require.Equal(t, "degrade", cfg.Cart.FallbackPolicy)
	require.Equal(t, 5*time.Second, cfg.Cart.RemoteOpTimeout)
	require.Equal(t, 0.08, cfg.Pricing.TaxRate)
	require.Equal(t, 5.99, cfg.Pricing.FlatShipping)
	require.Equal(t, 50.0, cfg.Pricing.FreeShippingThreshold)
	require.Equal(t, "cart:local:", cfg.LocalStore.KeyPrefix)
	require.False(t, cfg.Kafka.Enabled)
}

func TestLoad_ReadsFile(t *testing.T) {
	path := writeConfig(t, `
env: prod
kafka:
  brokers: ["a:9092", "b:9092"]
  enabled: true
cart:
  fallback_policy: local
  remote_op_timeout: 2s
local_store:
  driver: postgres
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, "prod", cfg.Env)
	require.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	require.True(t, cfg.Kafka.Enabled)
	require.Equal(t, "local", cfg.Cart.FallbackPolicy)
	require.Equal(t, 2*time.Second, cfg.Cart.RemoteOpTimeout)
	require.Equal(t, "postgres", cfg.LocalStore.Driver)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggerConfig{Level: "debug", Env: "prod"})
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLogger(LoggerConfig{Level: "loud"})
	require.Error(t, err)
}
