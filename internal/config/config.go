// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Logging   LoggingConfig   `mapstructure:"logging"`
	Server    ServerConfig    `mapstructure:"server"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Headless  HeadlessConfig  `mapstructure:"headless"`
	Detector  DetectorConfig  `mapstructure:"detector"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts"`
	Git       GitConfig       `mapstructure:"git"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Runs      RunsConfig      `mapstructure:"runs"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Mirror    MirrorConfig    `mapstructure:"mirror"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// ServerConfig controls the daemon's HTTP surface.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// ScrapeConfig governs page retrieval behavior.
type ScrapeConfig struct {
	UserAgent          string        `mapstructure:"user_agent"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"`
	RateLimitPerDomain int           `mapstructure:"rate_limit_per_domain"`
	Concurrency        int           `mapstructure:"concurrency"`
}

// HeadlessConfig configures the optional chromedp renderer.
type HeadlessConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	MaxParallel int           `mapstructure:"max_parallel"`
	NavTimeout  time.Duration `mapstructure:"nav_timeout"`
}

// DetectorConfig tunes the JS-rendering heuristic.
type DetectorConfig struct {
	MinHTMLBytes int      `mapstructure:"min_html_bytes"`
	SelectorMust string   `mapstructure:"selector_must"`
	Keywords     []string `mapstructure:"keywords"`
}

// ArtifactsConfig names the two tracked output files, relative to Dir.
type ArtifactsConfig struct {
	Dir      string `mapstructure:"dir"`
	HTMLPath string `mapstructure:"html_path"`
	JSONPath string `mapstructure:"json_path"`
}

// GitConfig controls the commit-and-push publisher. Token is normally
// supplied via AGENDA_GIT_TOKEN rather than the config file.
type GitConfig struct {
	Push        bool   `mapstructure:"push"`
	Remote      string `mapstructure:"remote"`
	Branch      string `mapstructure:"branch"`
	AuthorName  string `mapstructure:"author_name"`
	AuthorEmail string `mapstructure:"author_email"`
	Token       string `mapstructure:"token"`
}

// ScheduleConfig holds the cron expression for the daily trigger.
type ScheduleConfig struct {
	Cron string `mapstructure:"cron"`
}

// RunsConfig selects the run-history store.
type RunsConfig struct {
	Provider string        `mapstructure:"provider"`
	DSN      string        `mapstructure:"dsn"`
	Table    string        `mapstructure:"table"`
	MaxConns int32         `mapstructure:"max_conns"`
	ConnTTL  time.Duration `mapstructure:"conn_ttl"`
}

// NotifyConfig selects the update-notification publisher.
type NotifyConfig struct {
	Provider  string `mapstructure:"provider"`
	ProjectID string `mapstructure:"project_id"`
	TopicID   string `mapstructure:"topic_id"`
}

// MirrorConfig selects where rendered artifacts are mirrored after publish.
type MirrorConfig struct {
	Provider string `mapstructure:"provider"`
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	LocalDir string `mapstructure:"local_dir"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("AGENDA")
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
	v.SetDefault("logging.development", false)
	v.SetDefault("server.port", 8080)

	v.SetDefault("scrape.user_agent", "agenda-sync/1.0 (+https://github.com/hfujimori/agenda-sync)")
	v.SetDefault("scrape.request_timeout", "30s")
	v.SetDefault("scrape.rate_limit_per_domain", 2)
	v.SetDefault("scrape.concurrency", 2)

	v.SetDefault("headless.enabled", false)
	v.SetDefault("headless.max_parallel", 1)
	v.SetDefault("headless.nav_timeout", "25s")

	v.SetDefault("detector.min_html_bytes", 2000)
	v.SetDefault("detector.selector_must", "")
	v.SetDefault("detector.keywords", []string{"tribe-events-view", "data-reactroot", "__NEXT_DATA__"})

	v.SetDefault("artifacts.dir", ".")
	v.SetDefault("artifacts.html_path", "docs/index.html")
	v.SetDefault("artifacts.json_path", "events.json")

	v.SetDefault("git.push", true)
	v.SetDefault("git.remote", "origin")
	v.SetDefault("git.branch", "main")
	v.SetDefault("git.author_name", "agenda-sync bot")
	v.SetDefault("git.author_email", "agenda-sync@users.noreply.github.com")
	// An explicit empty default keeps the key visible to AutomaticEnv so
	// AGENDA_GIT_TOKEN reaches Unmarshal.
	v.SetDefault("git.token", "")

	// 21:00 UTC, morning JST, before the first seminar slots of the day.
	v.SetDefault("schedule.cron", "0 21 * * *")

	v.SetDefault("runs.provider", "noop")
	v.SetDefault("runs.table", "agenda_runs")

	v.SetDefault("notify.provider", "noop")
	v.SetDefault("mirror.provider", "noop")
	v.SetDefault("mirror.prefix", "agenda")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scrape.UserAgent == "" {
		return fmt.Errorf("scrape.user_agent must be set")
	}
	if c.Scrape.RequestTimeout <= 0 {
		return fmt.Errorf("scrape.request_timeout must be > 0")
	}
	if c.Scrape.RateLimitPerDomain <= 0 {
		return fmt.Errorf("scrape.rate_limit_per_domain must be > 0")
	}
	if c.Headless.Enabled && c.Headless.MaxParallel <= 0 {
		return fmt.Errorf("headless.max_parallel must be > 0 when headless is enabled")
	}
	if c.Artifacts.HTMLPath == "" || c.Artifacts.JSONPath == "" {
		return fmt.Errorf("artifacts.html_path and artifacts.json_path must be set")
	}
	if c.Artifacts.HTMLPath == c.Artifacts.JSONPath {
		return fmt.Errorf("artifact paths must differ")
	}
	if c.Git.Remote == "" || c.Git.Branch == "" {
		return fmt.Errorf("git.remote and git.branch must be set")
	}
	if c.Schedule.Cron == "" {
		return fmt.Errorf("schedule.cron must be set")
	}
	switch c.Runs.Provider {
	case "noop", "memory":
	case "postgres":
		if c.Runs.DSN == "" {
			return fmt.Errorf("runs.provider is 'postgres' but runs.dsn is not set")
		}
	default:
		return fmt.Errorf("unknown runs provider: %s", c.Runs.Provider)
	}
	switch c.Notify.Provider {
	case "noop":
	case "pubsub":
		if c.Notify.ProjectID == "" || c.Notify.TopicID == "" {
			return fmt.Errorf("notify.provider is 'pubsub' but project_id or topic_id is not set")
		}
	default:
		return fmt.Errorf("unknown notify provider: %s", c.Notify.Provider)
	}
	switch c.Mirror.Provider {
	case "noop":
	case "gcs":
		if c.Mirror.Bucket == "" {
			return fmt.Errorf("mirror.provider is 'gcs' but mirror.bucket is not set")
		}
	case "local":
		if c.Mirror.LocalDir == "" {
			return fmt.Errorf("mirror.provider is 'local' but mirror.local_dir is not set")
		}
	default:
		return fmt.Errorf("unknown mirror provider: %s", c.Mirror.Provider)
	}
	return nil
}
