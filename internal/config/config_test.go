package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_USER", "selftest")
	t.Setenv("DATABASE_DBNAME", "selftest")
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
}

func TestLoad_EnvAndDefaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, "5432", cfg.Database.Port)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 24, cfg.JWT.ExpirationHrs)
	assert.Equal(t, 600, cfg.Tracking.ThrottleSeconds)
	assert.Equal(t, 300, cfg.Cache.LatestRecordTTLSeconds)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.False(t, cfg.Email.Enabled())
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	setRequiredEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: \"9090\"\ntracking:\n  throttle_seconds: 60\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 60, cfg.Tracking.ThrottleSeconds)
}

func TestLoad_MissingFileIsNotFatal(t *testing.T) {
	setRequiredEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
}

func TestLoadDatabase_DoesNotRequireSecret(t *testing.T) {
	t.Setenv("DATABASE_HOST", "db")
	t.Setenv("DATABASE_USER", "selftest")
	t.Setenv("DATABASE_DBNAME", "selftest")
	t.Setenv("DATABASE_PASSWORD", "")
	t.Setenv("DATABASE_PORT", "")
	t.Setenv("DATABASE_SSLMODE", "")
	t.Setenv("JWT_SECRET", "")

	db, err := LoadDatabase("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://selftest:@db:5432/selftest?sslmode=disable", db.PostgresURL())

	t.Setenv("DATABASE_HOST", "")
	_, err = LoadDatabase("")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := Config{
		Database: DatabaseConfig{Host: "h", User: "u", DBName: "d"},
		JWT:      JWTConfig{Secret: "0123456789abcdef"},
	}
	assert.NoError(t, valid.Validate())

	noDB := valid
	noDB.Database.Host = ""
	assert.Error(t, noDB.Validate())

	shortSecret := valid
	shortSecret.JWT.Secret = "short"
	assert.Error(t, shortSecret.Validate())

	weakAdmin := valid
	weakAdmin.Admin = AdminConfig{Username: "root", Password: "123"}
	assert.Error(t, weakAdmin.Validate())
}

func TestEmailEnabled(t *testing.T) {
	assert.True(t, EmailConfig{ResendAPIKey: "k", From: "a@b.c", NotifyTo: "d@e.f"}.Enabled())
	assert.False(t, EmailConfig{ResendAPIKey: "k", From: "a@b.c"}.Enabled())
}

func TestPostgresURL(t *testing.T) {
	d := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d", SSLMode: "disable"}
	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", d.PostgresURL())
	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", d.PostgresConnectionString())
}
