// Package config loads agent configuration from a YAML file and the
// environment. Every knob has a default; a missing config file is fine.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config stores all configuration of the agent. The values are read by viper
// from a config file or environment variables (TCA_ prefix, dots as
// underscores, e.g. TCA_LOOP_MAX_ROUNDS).
type Config struct {
	Gateway GatewayConfig `mapstructure:"gateway"`
	Loop    LoopConfig    `mapstructure:"loop"`
	Tools   ToolsConfig   `mapstructure:"tools"`
	Harness HarnessConfig `mapstructure:"harness"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Log     LogConfig     `mapstructure:"log"`
}

// GatewayConfig stores the model-service connection details. A missing API
// key is a fatal startup condition, checked by the factory.
type GatewayConfig struct {
	APIKey  string        `mapstructure:"api_key"` // also honors OPENAI_API_KEY
	BaseURL string        `mapstructure:"base_url"`
	Model   string        `mapstructure:"model"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoopConfig stores agent-loop policy knobs.
type LoopConfig struct {
	MaxRounds       int           `mapstructure:"max_rounds"`       // tool-dispatch rounds per user turn
	ToolTimeout     time.Duration `mapstructure:"tool_timeout"`     // per-invocation budget
	ToolConcurrency int           `mapstructure:"tool_concurrency"` // parallel invocations per round
	SystemPrompt    string        `mapstructure:"system_prompt"`    // transcript seed message
}

// ToolsConfig stores per-tool settings.
type ToolsConfig struct {
	Bash  BashToolConfig  `mapstructure:"bash"`
	Clock ClockToolConfig `mapstructure:"clock"`
}

// BashToolConfig stores shell-tool settings.
type BashToolConfig struct {
	WorkDir        string `mapstructure:"work_dir"`         // empty = inherit
	MaxOutputBytes int    `mapstructure:"max_output_bytes"` // captured output cap
}

// ClockToolConfig stores clock-tool settings.
type ClockToolConfig struct {
	ZoneinfoDir string `mapstructure:"zoneinfo_dir"` // empty = system locations
}

// HarnessConfig stores the gateway-side infrastructure knobs.
type HarnessConfig struct {
	CacheEnabled    bool `mapstructure:"cache_enabled"`
	CacheCapacity   int  `mapstructure:"cache_capacity"`
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"`

	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"`

	EnableTracing bool `mapstructure:"enable_tracing"`
}

// ArchiveConfig stores session-archive settings.
type ArchiveConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LogConfig stores logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"` // trace|debug|info|warn|error
}

// v backs LoadConfig and Watch; kept package-local so a reload reads the
// same file the initial load found.
var v = viper.New()

// LoadConfig reads configuration from configPath, or searches the standard
// locations when it is empty. A missing config file falls back to defaults;
// a malformed one is an error.
func LoadConfig(configPath string) (*Config, error) {
	v = viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "tca"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	setDefaults(v)

	v.SetEnvPrefix("TCA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// OPENAI_API_KEY is the conventional name; the prefixed variable wins
	// when both are set.
	_ = v.BindEnv("gateway.api_key", "TCA_GATEWAY_API_KEY", "OPENAI_API_KEY")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Watch re-reads the config file on change and hands the fresh Config to
// onChange. Unparseable edits are ignored; the previous config stays live.
// No-op when no config file was found at load time.
func Watch(onChange func(*Config)) {
	if v.ConfigFileUsed() == "" {
		return
	}
	v.OnConfigChange(func(_ fsnotify.Event) {
		var cfg Config
		if err := v.Unmarshal(&cfg); err != nil {
			return
		}
		onChange(&cfg)
	})
	v.WatchConfig()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("gateway.base_url", "")
	v.SetDefault("gateway.model", "gpt-4o-mini")
	v.SetDefault("gateway.timeout", "60s")

	v.SetDefault("loop.max_rounds", 5)
	v.SetDefault("loop.tool_timeout", "30s")
	v.SetDefault("loop.tool_concurrency", 4)
	v.SetDefault("loop.system_prompt", "You are a helpful assistant.")

	v.SetDefault("tools.bash.work_dir", "")
	v.SetDefault("tools.bash.max_output_bytes", 16384)
	v.SetDefault("tools.clock.zoneinfo_dir", "")

	// Cache off by default: a growing transcript makes repeat hits
	// worthless outside retry-after-failure.
	v.SetDefault("harness.cache_enabled", false)
	v.SetDefault("harness.cache_capacity", 64)
	v.SetDefault("harness.cache_ttl_seconds", 300)
	v.SetDefault("harness.rate_limit_enabled", true)
	v.SetDefault("harness.rate_limit_capacity", 10)
	v.SetDefault("harness.rate_limit_refill_rate", "1s")
	v.SetDefault("harness.enable_tracing", true)

	v.SetDefault("archive.enabled", true)
	v.SetDefault("archive.path", defaultArchivePath())

	v.SetDefault("log.level", "warn")
}

func defaultArchivePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "tca-sessions.db"
	}
	return filepath.Join(home, ".local", "share", "tca", "sessions.db")
}
