package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetViper clears viper's global state between tests.
// Note: environment variables are read at runtime via AutomaticEnv,
// so we also unset any vars we set in tests to avoid cross-test pollution.
func resetViper() {
	viper.Reset()
}

// unsetEnvKeys unsets provided environment variable keys.
func unsetEnvKeys(keys ...string) {
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}

// writeTempYAML writes a temporary YAML file with given content and returns its path.
func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)
	return path
}

func TestLoadConfigFromEnv_Defaults(t *testing.T) {
	resetViper()
	unsetEnvKeys(
		"SERVER_PORT", "SERVER_HOST",
		"DATABASE_HOST", "DATABASE_PORT", "DATABASE_DATABASE",
		"DATABASE_USERNAME", "DATABASE_PASSWORD",
		"PLATFORM_ENVIRONMENT", "PLATFORM_PRODUCTION",
		"STORAGE_BACKEND",
	)

	cfg, err := LoadConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "development", cfg.PlatformSettings.Environment)
	assert.False(t, cfg.PlatformSettings.Production)
	assert.Equal(t, StorageBackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, ProfileLite, cfg.Profile)
	assert.Equal(t, 600, cfg.RateLimit.RequestsPerMinute)
}

func TestLoadConfig_File(t *testing.T) {
	resetViper()
	unsetEnvKeys("SERVER_PORT", "DATABASE_HOST", "PLATFORM_ENVIRONMENT", "STORAGE_BACKEND")

	yaml := `
profile: standard
platform:
  environment: "production"
  production: true
server:
  port: 9090
  host: "127.0.0.1"
storage:
  backend: "postgres"
database:
  host: "db.local"
  port: 5433
  database: "testdb"
  username: "user"
  password: "pass"
  ssl_mode: "disable"
log:
  level: "debug"
tenants:
  - code: "acme"
    description: "Acme Corp"
resources:
  - name: "primary-db"
    type: "postgres"
    public_properties:
      host: "db.local"
`
	path := writeTempYAML(t, yaml)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.PlatformSettings.Environment)
	assert.True(t, cfg.PlatformSettings.Production)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)

	assert.Equal(t, "db.local", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "testdb", cfg.Database.Database)
	assert.Equal(t, "user", cfg.Database.Username)
	assert.Equal(t, "pass", cfg.Database.Password)

	assert.Equal(t, "debug", cfg.Log.Level)

	require.Len(t, cfg.TenantList, 1)
	assert.Equal(t, "acme", cfg.TenantList[0].Code)

	require.Len(t, cfg.ResourceList, 1)
	assert.Equal(t, "db.local", cfg.ResourceList[0].PublicProperties["host"])
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	resetViper()
	yaml := `
server:
  port: 8080
database:
  host: "file-db.local"
platform:
  environment: "development"
`
	path := writeTempYAML(t, yaml)

	require.NoError(t, os.Setenv("SERVER_PORT", "9091"))
	require.NoError(t, os.Setenv("DATABASE_HOST", "env-db.local"))
	require.NoError(t, os.Setenv("PLATFORM_ENVIRONMENT", "production"))
	t.Cleanup(func() {
		unsetEnvKeys("SERVER_PORT", "DATABASE_HOST", "PLATFORM_ENVIRONMENT")
	})

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9091, cfg.Server.Port, "env should override file")
	assert.Equal(t, "env-db.local", cfg.Database.Host, "env should override file")
	assert.Equal(t, "production", cfg.PlatformSettings.Environment, "env should override file")
}

func TestLoadConfig_InvalidYAML(t *testing.T) {
	resetViper()
	unsetEnvKeys("SERVER_PORT")

	invalid := `
server:
  port: : invalid
`
	path := writeTempYAML(t, invalid)

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_ValidationError(t *testing.T) {
	resetViper()
	unsetEnvKeys("SERVER_PORT")

	yaml := `
server:
  port: -1
`
	path := writeTempYAML(t, yaml)

	cfg, err := LoadConfig(path)
	require.Error(t, err, "validation should fail for invalid server.port")
	assert.Nil(t, cfg)
}

func TestLoadConfig_LiteProfileRejectsPostgresBackend(t *testing.T) {
	resetViper()
	unsetEnvKeys("SERVER_PORT", "STORAGE_BACKEND")

	yaml := `
profile: lite
storage:
  backend: postgres
`
	path := writeTempYAML(t, yaml)

	cfg, err := LoadConfig(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}
