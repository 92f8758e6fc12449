package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	cfg := Default()
	cfg.Store.DataPath = "/some/path"
	return cfg
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_AllEnvironments(t *testing.T) {
	tests := []struct {
		env   string
		valid bool
	}{
		{"development", true},
		{"staging", true},
		{"production", true},
		{"test", false},
		{"", false},
		{"DEVELOPMENT", false}, // case sensitive
	}

	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			cfg := validConfig()
			cfg.App.Environment = tt.env

			err := cfg.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"log level", func(c *Config) { c.Logger.Level = "verbose" }},
		{"driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"data path", func(c *Config) { c.Store.DataPath = "" }},
		{"zero default limit", func(c *Config) { c.Paging.DefaultLimit = 0 }},
		{"max below default", func(c *Config) { c.Paging.MaxLimit = 10 }},
		{"no create attempts", func(c *Config) { c.Chapters.MaxCreateAttempts = 0 }},
		{"negative max connections", func(c *Config) { c.Server.MaxConnections = -1 }},
		{"zero rps", func(c *Config) { c.RateLimit.RequestsPerSecond = 0 }},
		{"zero burst", func(c *Config) { c.RateLimit.Burst = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoad_Defaults(t *testing.T) {
	dataDir := t.TempDir()
	t.Setenv("DATA_PATH", dataDir)

	cfg, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "missing.env")})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)
	assert.Equal(t, dataDir, cfg.Store.DataPath)
	assert.Equal(t, 20, cfg.Paging.DefaultLimit)
	assert.Equal(t, 100, cfg.Paging.MaxLimit)
	assert.Equal(t, 3, cfg.Chapters.MaxCreateAttempts)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.Server.IdleTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "# catalog settings\nSTORE_DRIVER=badger\nPAGE_MAX_LIMIT=\"50\"\nSERVER_PORT=9000\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))

	t.Setenv("DATA_PATH", dir)
	t.Setenv("SERVER_PORT", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("PAGE_MAX_LIMIT", "")
	t.Setenv("CHAPTER_CREATE_ATTEMPTS", "5")

	cfg, err := Load([]string{"-env-file", envFile, "-port", "7000"})
	require.NoError(t, err)

	assert.Equal(t, "7000", cfg.Server.Port, "flag wins over .env")
	assert.Equal(t, DriverBadger, cfg.Store.Driver, ".env wins over default")
	assert.Equal(t, 50, cfg.Paging.MaxLimit)
	assert.Equal(t, 5, cfg.Chapters.MaxCreateAttempts, "env wins over default")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("DATA_PATH", t.TempDir())
	t.Setenv("SERVER_READ_TIMEOUT", "soon")

	_, err := Load([]string{"-env-file", filepath.Join(t.TempDir(), "none")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	got, err := expandPath("~/novels", "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "novels"), got)

	got, err = expandPath("", "/default")
	require.NoError(t, err)
	assert.Equal(t, "/default", got)

	got, err = expandPath("/a/b/../c", "")
	require.NoError(t, err)
	assert.Equal(t, "/a/c", got)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a, ,http://b "))
	assert.Nil(t, splitList(""))
}
