package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "memory")

	cfg, err := Load("station-sync")
	require.NoError(t, err)

	assert.Equal(t, "station-sync", cfg.Service.Name)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.Equal(t, "public/data/stations", cfg.Store.StationsDir)
	assert.Equal(t, "index.json", cfg.Store.ManifestName)
	assert.Equal(t, "main", cfg.GitHub.Branch)
	assert.Equal(t, 10*time.Second, cfg.Rebuild.Timeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Database.Enabled)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "github")
	t.Setenv("GITHUB_TOKEN", "ghp_test")
	t.Setenv("GITHUB_BRANCH", "staging")
	t.Setenv("PORT", "9000")
	t.Setenv("REBUILD_TIMEOUT", "3s")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "5")

	cfg, err := Load("station-sync")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Service.Port)
	assert.Equal(t, "staging", cfg.GitHub.Branch)
	assert.Equal(t, 3*time.Second, cfg.Rebuild.Timeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, int64(5), cfg.Redis.RateLimitPerMinute)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("BLOB_BACKEND", "memory")
	t.Setenv("PORT", "not-a-number")
	t.Setenv("REDIS_ENABLED", "maybe")

	cfg, err := Load("station-sync")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Service.Port)
	assert.False(t, cfg.Redis.Enabled)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Service: ServiceConfig{Port: 8080},
			Store:   StoreConfig{Backend: "memory", StationsDir: "public/data/stations", ManifestName: "index.json"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Service.Port = 0 }, "invalid port"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "s3" }, "unknown blob backend"},
		{"github without token", func(c *Config) {
			c.Store.Backend = "github"
			c.GitHub = GitHubConfig{Owner: "o", Repo: "r"}
		}, "GITHUB_TOKEN"},
		{"empty stations dir", func(c *Config) { c.Store.StationsDir = "/" }, "stations directory"},
		{"manifest not json", func(c *Config) { c.Store.ManifestName = "index.txt" }, "invalid manifest name"},
		{"db pool bounds", func(c *Config) {
			c.Database = DatabaseConfig{Enabled: true, MaxConns: 1, MinConns: 5}
		}, "max_conns"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{User: "u", Password: "p", Host: "db", Port: 5432, Database: "stations"}}
	assert.Equal(t, "postgres://u:p@db:5432/stations?sslmode=disable", cfg.DatabaseURL())
}
