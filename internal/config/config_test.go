package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "docs/index.html", cfg.Artifacts.HTMLPath)
	assert.Equal(t, "events.json", cfg.Artifacts.JSONPath)
	assert.Equal(t, "0 21 * * *", cfg.Schedule.Cron)
	assert.Equal(t, "noop", cfg.Runs.Provider)
	assert.Equal(t, 30*time.Second, cfg.Scrape.RequestTimeout)
	assert.True(t, cfg.Git.Push)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
server:
  port: 9090
git:
  branch: master
  push: false
schedule:
  cron: "30 20 * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "master", cfg.Git.Branch)
	assert.False(t, cfg.Git.Push)
	assert.Equal(t, "30 20 * * *", cfg.Schedule.Cron)
}

func TestLoadTokenFromEnv(t *testing.T) {
	t.Setenv("AGENDA_GIT_TOKEN", "secret-token")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Git.Token)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		cfg, err := Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"BadPort", func(c *Config) { c.Server.Port = 0 }},
		{"MissingUserAgent", func(c *Config) { c.Scrape.UserAgent = "" }},
		{"SamePaths", func(c *Config) { c.Artifacts.JSONPath = c.Artifacts.HTMLPath }},
		{"PostgresWithoutDSN", func(c *Config) { c.Runs.Provider = "postgres" }},
		{"UnknownNotify", func(c *Config) { c.Notify.Provider = "kafka" }},
		{"GCSWithoutBucket", func(c *Config) { c.Mirror.Provider = "gcs" }},
		{"HeadlessZeroParallel", func(c *Config) {
			c.Headless.Enabled = true
			c.Headless.MaxParallel = 0
		}},
		{"EmptyCron", func(c *Config) { c.Schedule.Cron = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
