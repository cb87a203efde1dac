// Package config loads and validates explorer configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. EXPLORER_GITHUB_TOKEN.
const EnvPrefix = "EXPLORER"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	MDN      MDNConfig      `mapstructure:"mdn"`
	GitHub   GitHubConfig   `mapstructure:"github"`
	Scraping ScrapingConfig `mapstructure:"scraping"`
	Fallback FallbackConfig `mapstructure:"fallback"`
	Explorer ExplorerConfig `mapstructure:"explorer"`
	Runs     RunsConfig     `mapstructure:"runs"`
	Progress ProgressConfig `mapstructure:"progress"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// LoggingConfig toggles zap development features and the minimum level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// MDNConfig points at the documentation search service and site.
type MDNConfig struct {
	BaseURL        string `mapstructure:"base_url"`
	SiteURL        string `mapstructure:"site_url"`
	Locale         string `mapstructure:"locale"`
	Category       string `mapstructure:"category"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// GitHubConfig configures the issue and repository search client.
type GitHubConfig struct {
	BaseURL           string  `mapstructure:"base_url"`
	SiteURL           string  `mapstructure:"site_url"`
	Token             string  `mapstructure:"token"`
	TimeoutSeconds    int     `mapstructure:"timeout_seconds"`
	ExplainerOrg      string  `mapstructure:"explainer_org"`
	IssueRepo         string  `mapstructure:"issue_repo"`
	MaxResults        int     `mapstructure:"max_results"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// ScrapingConfig configures the HTML scraping tier.
type ScrapingConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	UserAgent      string `mapstructure:"user_agent"`
	RespectRobots  bool   `mapstructure:"respect_robots"`
}

// FallbackConfig toggles optional resolver tiers.
type FallbackConfig struct {
	UseScraping bool `mapstructure:"use_scraping"`
}

// ExplorerConfig tunes the pipeline itself.
type ExplorerConfig struct {
	StepDelayMs int    `mapstructure:"step_delay_ms"`
	Seed        uint64 `mapstructure:"seed"`
}

// RunsConfig sizes the asynchronous run pool.
type RunsConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	QueueDepth  int `mapstructure:"queue_depth"`
}

// ProgressConfig controls progress event fan-out.
type ProgressConfig struct {
	Enabled   bool `mapstructure:"enabled"`
	LogEvents bool `mapstructure:"log_events"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
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
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 120)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.api_key", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("mdn.base_url", "https://developer.mozilla.org/api/v1")
	v.SetDefault("mdn.site_url", "https://developer.mozilla.org")
	v.SetDefault("mdn.locale", "en-US")
	v.SetDefault("mdn.category", "Web APIs")
	v.SetDefault("mdn.timeout_seconds", 5)
	v.SetDefault("github.base_url", "https://api.github.com")
	v.SetDefault("github.site_url", "https://github.com")
	v.SetDefault("github.token", "")
	v.SetDefault("github.timeout_seconds", 5)
	v.SetDefault("github.explainer_org", "WICG")
	v.SetDefault("github.issue_repo", "web-platform-tests/wpt")
	v.SetDefault("github.max_results", 5)
	v.SetDefault("github.requests_per_second", 0)
	v.SetDefault("github.burst", 1)
	v.SetDefault("scraping.timeout_seconds", 10)
	v.SetDefault("scraping.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	v.SetDefault("scraping.respect_robots", false)
	v.SetDefault("fallback.use_scraping", true)
	v.SetDefault("explorer.step_delay_ms", 0)
	v.SetDefault("explorer.seed", 0)
	v.SetDefault("runs.concurrency", 2)
	v.SetDefault("runs.queue_depth", 16)
	v.SetDefault("progress.enabled", true)
	v.SetDefault("progress.log_events", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Server.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("server.request_timeout_seconds must be > 0")
	}
	if c.MDN.TimeoutSeconds <= 0 {
		return fmt.Errorf("mdn.timeout_seconds must be > 0")
	}
	if c.GitHub.TimeoutSeconds <= 0 {
		return fmt.Errorf("github.timeout_seconds must be > 0")
	}
	if c.Scraping.TimeoutSeconds <= 0 {
		return fmt.Errorf("scraping.timeout_seconds must be > 0")
	}
	if c.GitHub.MaxResults < 1 || c.GitHub.MaxResults > 100 {
		return fmt.Errorf("github.max_results must be between 1 and 100")
	}
	if c.GitHub.RequestsPerSecond < 0 {
		return fmt.Errorf("github.requests_per_second must be >= 0")
	}
	if c.Runs.Concurrency <= 0 {
		return fmt.Errorf("runs.concurrency must be > 0")
	}
	if c.Runs.QueueDepth < 0 {
		return fmt.Errorf("runs.queue_depth must be >= 0")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// StepDelay converts the configured pause between steps.
func (c Config) StepDelay() time.Duration {
	return time.Duration(c.Explorer.StepDelayMs) * time.Millisecond
}

// RequestTimeout bounds synchronous API explorations.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeoutSeconds) * time.Second
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// MDNTimeout is the per-request budget for documentation search.
func (c Config) MDNTimeout() time.Duration { return seconds(c.MDN.TimeoutSeconds) }

// GitHubTimeout is the per-request budget for GitHub search.
func (c Config) GitHubTimeout() time.Duration { return seconds(c.GitHub.TimeoutSeconds) }

// ScrapeTimeout is the per-page budget for the scraping tier.
func (c Config) ScrapeTimeout() time.Duration { return seconds(c.Scraping.TimeoutSeconds) }
