package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: "9090"
database:
  driver: "sqlite"
  redis:
    addr: "127.0.0.1:6379"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "cms.db", cfg.Database.SQLite.Path)
	assert.Equal(t, 300, cfg.Cache.MenuTTLSeconds)
	assert.Equal(t, "cms-index-events", cfg.Kafka.Topic)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, 60, cfg.MinIO.URLExpireMinute)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `
jwt:
  secret: "from-file"
bootstrap:
  admin_password: "file-password"
`)
	t.Setenv("CMS_JWT_SECRET", "from-env")
	t.Setenv("CMS_BOOTSTRAP_ADMIN_PASSWORD", "env-password")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
	assert.Equal(t, "env-password", cfg.Bootstrap.AdminPassword)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}
