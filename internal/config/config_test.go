package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
keywords:
  - hypersonic
  - airworthiness
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, []string{"hypersonic", "airworthiness"}, cfg.Keywords)
	require.Equal(t, "any", cfg.MatchMode)
	require.Equal(t, 7, cfg.WindowDays)
	require.Equal(t, "Research_Log.md", cfg.LogPath)
	require.Equal(t, "json", cfg.State.Backend)
	require.Equal(t, "seen_ids.json", cfg.State.Path)
	require.True(t, cfg.RespectRobots)
	require.True(t, cfg.Sources.NTRS.Enabled)
	require.True(t, cfg.Sources.FedReg.Enabled)
	require.False(t, cfg.Sources.Brave.Enabled)
	require.Equal(t, 15*time.Second, cfg.Timeout())
	require.Equal(t, 7*24*time.Hour, cfg.Window())
}

func TestLoadRejectsEmptyKeywords(t *testing.T) {
	path := writeConfig(t, `
log_path: Research_Log.md
`)

	_, err := Load(path)
	require.Error(t, err)
	require.Contains(t, err.Error(), "keywords")
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
keywords: [icing]
match_mode: all
window_days: 30
state:
  backend: sqlite
  path: seen.db
sources:
  ntrs:
    enabled: false
  brave:
    enabled: true
    api_key: test-key
    query: "icing certification"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "all", cfg.MatchMode)
	require.Equal(t, 30, cfg.WindowDays)
	require.Equal(t, "sqlite", cfg.State.Backend)
	require.Equal(t, "seen.db", cfg.State.Path)
	require.False(t, cfg.Sources.NTRS.Enabled)
	require.True(t, cfg.Sources.Brave.Enabled)
	require.Equal(t, "test-key", cfg.Sources.Brave.APIKey)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := Config{
		Keywords:   []string{"icing"},
		MatchMode:  "any",
		WindowDays: 7,
		UserAgent:  "Monitor/1.0 (ops@example.com)",
		LogPath:    "Research_Log.md",
		State:      StateConfig{Backend: "json", Path: "seen.json"},
		HTTP:       HTTPConfig{TimeoutSeconds: 15},
		Server:     ServerConfig{Port: 8080},
	}
	require.NoError(t, valid.Validate())

	cases := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"bad match mode", func(c *Config) { c.MatchMode = "some" }, "match_mode"},
		{"zero window", func(c *Config) { c.WindowDays = 0 }, "window_days"},
		{"anonymous user agent", func(c *Config) { c.UserAgent = "Mozilla/5.0" }, "user_agent"},
		{"unknown state backend", func(c *Config) { c.State.Backend = "redis" }, "state.backend"},
		{"brave without key", func(c *Config) { c.Sources.Brave.Enabled = true }, "api_key"},
		{"pages without urls", func(c *Config) { c.Sources.Pages.Enabled = true }, "urls"},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			tc.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.want)
		})
	}
}
