// Package config loads and validates monitor configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all configuration knobs loaded via Viper. Validation runs
// at startup, before any network call; a missing required credential is a
// fatal error, not a partial run.
type Config struct {
	Keywords         []string      `mapstructure:"keywords"`
	MatchMode        string        `mapstructure:"match_mode"`
	WindowDays       int           `mapstructure:"window_days"`
	UserAgent        string        `mapstructure:"user_agent"`
	LogPath          string        `mapstructure:"log_path"`
	RespectRobots    bool          `mapstructure:"respect_robots"`
	RateLimitPerHost float64       `mapstructure:"rate_limit_per_host"`
	State            StateConfig   `mapstructure:"state"`
	HTTP             HTTPConfig    `mapstructure:"http"`
	Verify           VerifyConfig  `mapstructure:"verify"`
	Sources          SourcesConfig `mapstructure:"sources"`
	Server           ServerConfig  `mapstructure:"server"`
	Logging          LoggingConfig `mapstructure:"logging"`
}

// StateConfig selects and locates the dedup store backend.
type StateConfig struct {
	Backend string `mapstructure:"backend"` // "json" or "sqlite"
	Path    string `mapstructure:"path"`
}

// HTTPConfig configures HTTP client timeout and retry behavior.
type HTTPConfig struct {
	TimeoutSeconds   int `mapstructure:"timeout_seconds"`
	MaxRetries       int `mapstructure:"max_retries"`
	BackoffInitialMs int `mapstructure:"backoff_initial_ms"`
	BackoffMaxMs     int `mapstructure:"backoff_max_ms"`
}

// VerifyConfig bounds document verification.
type VerifyConfig struct {
	MaxDocumentBytes int64 `mapstructure:"max_document_bytes"`
	MinReadableChars int   `mapstructure:"min_readable_chars"`
	PreviewChars     int   `mapstructure:"preview_chars"`
}

// SourcesConfig toggles the individual source adapters.
type SourcesConfig struct {
	NTRS   NTRSConfig   `mapstructure:"ntrs"`
	FedReg FedRegConfig `mapstructure:"fedreg"`
	Brave  BraveConfig  `mapstructure:"brave"`
	Pages  PagesConfig  `mapstructure:"pages"`
}

// NTRSConfig configures the NASA NTRS citation search adapter.
type NTRSConfig struct {
	Enabled  bool `mapstructure:"enabled"`
	PageSize int  `mapstructure:"page_size"`
}

// FedRegConfig configures the Federal Register rule-change adapter.
type FedRegConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	Agencies []string `mapstructure:"agencies"`
	Term     string   `mapstructure:"term"`
	PerPage  int      `mapstructure:"per_page"`
}

// BraveConfig configures the Brave web-search fallback adapter.
type BraveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
	Query   string `mapstructure:"query"`
}

// PagesConfig configures the generic single-page adapter.
type PagesConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	URLs    []string `mapstructure:"urls"`
}

// ServerConfig controls the watch-mode HTTP server.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AERO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/aeroresearch/")
		v.AddConfigPath("$HOME/.aeroresearch")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("keywords", []string{})
	v.SetDefault("match_mode", "any")
	v.SetDefault("window_days", 7)
	v.SetDefault("user_agent", "AeroResearchMonitor/1.0 (contact@example.com)")
	v.SetDefault("log_path", "Research_Log.md")
	v.SetDefault("respect_robots", true)
	v.SetDefault("rate_limit_per_host", 1.0)
	v.SetDefault("state.backend", "json")
	v.SetDefault("state.path", "seen_ids.json")
	v.SetDefault("http.timeout_seconds", 15)
	v.SetDefault("http.max_retries", 3)
	v.SetDefault("http.backoff_initial_ms", 250)
	v.SetDefault("http.backoff_max_ms", 5000)
	v.SetDefault("verify.max_document_bytes", 32*1024*1024)
	v.SetDefault("verify.min_readable_chars", 50)
	v.SetDefault("verify.preview_chars", 500)
	v.SetDefault("sources.ntrs.enabled", true)
	v.SetDefault("sources.ntrs.page_size", 25)
	v.SetDefault("sources.fedreg.enabled", true)
	v.SetDefault("sources.fedreg.agencies", []string{"federal-aviation-administration"})
	v.SetDefault("sources.fedreg.term", "Airworthiness Directives")
	v.SetDefault("sources.fedreg.per_page", 20)
	v.SetDefault("sources.brave.enabled", false)
	v.SetDefault("sources.pages.enabled", false)
	v.SetDefault("sources.pages.urls", []string{})
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if len(c.Keywords) == 0 {
		return fmt.Errorf("keywords must not be empty")
	}
	if c.MatchMode != "any" && c.MatchMode != "all" {
		return fmt.Errorf("match_mode must be %q or %q, got %q", "any", "all", c.MatchMode)
	}
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be > 0")
	}
	if !strings.Contains(c.UserAgent, "@") && !strings.Contains(c.UserAgent, "+http") {
		return fmt.Errorf("user_agent must carry contact information")
	}
	if c.LogPath == "" {
		return fmt.Errorf("log_path must be set")
	}
	if c.State.Backend != "json" && c.State.Backend != "sqlite" {
		return fmt.Errorf("state.backend must be %q or %q, got %q", "json", "sqlite", c.State.Backend)
	}
	if c.State.Path == "" {
		return fmt.Errorf("state.path must be set")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if c.Sources.Brave.Enabled && c.Sources.Brave.APIKey == "" {
		return fmt.Errorf("sources.brave.api_key must be set when the brave source is enabled")
	}
	if c.Sources.Pages.Enabled && len(c.Sources.Pages.URLs) == 0 {
		return fmt.Errorf("sources.pages.urls must not be empty when the pages source is enabled")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	return nil
}

// Timeout returns the HTTP timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// Window returns the look-back window for source queries.
func (c Config) Window() time.Duration {
	return time.Duration(c.WindowDays) * 24 * time.Hour
}
