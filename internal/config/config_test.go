package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, "Europe/Istanbul", cfg.Business.Timezone)
	assert.Equal(t, 60*time.Second, cfg.Business.OrderWindowTTL)
	assert.Equal(t, 2, cfg.Notify.Workers)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte("server:\n  port: \"9090\"\nbusiness:\n  order_window_ttl: 30s\nkafka:\n  brokers: [\"k1:9092\"]\n")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	t.Setenv("GROCERY_DATABASE_NAME", "from_env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Business.OrderWindowTTL)
	assert.Equal(t, []string{"k1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "from_env", cfg.Database.Name)
	assert.Contains(t, cfg.DSN(), "dbname=from_env")
}

func TestLoad_RejectsBadTimezone(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("GROCERY_BUSINESS_TIMEZONE", "Mars/Olympus")

	_, err := Load("")
	assert.Error(t, err)
}
