package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func setRequiredEnv(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_DBNAME", "coreadability")
	t.Setenv("DATABASE_USER", "app")
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 60*time.Second, cfg.ScreenTime.PollInterval)
	assert.Equal(t, "0 0 * * *", cfg.ScreenTime.RolloverSpec)
	assert.Equal(t, 2, cfg.Recommend.UncertaintyThreshold)
	assert.Equal(t, 3, cfg.Recommend.RandomGenreCount)
	assert.Equal(t, "single", cfg.Redis.Mode)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9090")

	path := writeConfig(t, `
server:
  port: "8000"
screentime:
  poll_interval: 30s
recommend:
  uncertainty_threshold: 3
chat:
  base_url: http://chat.internal
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port, "env var must win over file")
	assert.Equal(t, 30*time.Second, cfg.ScreenTime.PollInterval)
	assert.Equal(t, 3, cfg.Recommend.UncertaintyThreshold)
	assert.Equal(t, "http://chat.internal", cfg.Chat.BaseURL)
}

func TestLoad_MissingSecretFails(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_DBNAME", "coreadability")
	t.Setenv("DATABASE_USER", "app")
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AUTH_JWT_SECRET")
}

func TestValidate_EmailRequiresFrom(t *testing.T) {
	cfg := &Config{
		Auth:       AuthConfig{JWTSecret: "s"},
		Database:   DatabaseConfig{Host: "h", DBName: "d", User: "u"},
		ScreenTime: ScreenTimeConfig{PollInterval: time.Minute},
		Recommend:  RecommendConfig{UncertaintyThreshold: 2, RandomGenreCount: 3},
		Email:      EmailConfig{ResendAPIKey: "re_123"},
	}
	assert.Error(t, cfg.Validate())

	cfg.Email.From = "noreply@coreadability.app"
	assert.NoError(t, cfg.Validate())
}

func TestDatabaseConfig_ConnectionStrings(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", d.PostgresConnectionString())
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", d.PostgresURL())
}
