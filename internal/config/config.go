package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the market screener application.
type Config struct {
	// ConfigRoot is the directory holding markets/ and symbol lists.
	ConfigRoot string `mapstructure:"config_root"`

	// Markets are the market codes to screen, in display order.
	Markets []string `mapstructure:"markets"`

	// Fetch tuning.
	Concurrency    int           `mapstructure:"concurrency"`
	MaxRetries     int           `mapstructure:"max_retries"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// Output locations.
	SnapshotDir string `mapstructure:"snapshot_dir"`
	PresetDir   string `mapstructure:"preset_dir"`

	// SortMetric orders the filtered view; empty keeps fetch order.
	SortMetric    string `mapstructure:"sort_metric"`
	SortAscending bool   `mapstructure:"sort_ascending"`

	// WatchConfig reloads market descriptors when their files change.
	WatchConfig bool `mapstructure:"watch_config"`
}

// Load reads configuration from environment variables and an optional config
// file. Environment variables take precedence over config file values.
//
// Expected environment variables:
//   - SCREENER_CONFIG_ROOT (optional, defaults to "assets")
//   - SCREENER_SNAPSHOT_DIR (optional)
//   - SCREENER_PRESET_DIR (optional)
//   - SCREENER_CONCURRENCY (optional)
//   - SCREENER_MAX_RETRIES (optional)
func Load() (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix("screener")
	v.AutomaticEnv()

	v.SetDefault("config_root", "assets")
	v.SetDefault("markets", []string{"cn"})
	v.SetDefault("concurrency", 5)
	v.SetDefault("max_retries", 3)
	v.SetDefault("request_timeout", 10*time.Second)
	v.SetDefault("snapshot_dir", "assets/snapshots")
	v.SetDefault("preset_dir", "assets/presets")
	v.SetDefault("sort_metric", "")
	v.SetDefault("sort_ascending", true)
	v.SetDefault("watch_config", false)

	// Optionally read from config file if it exists
	v.SetConfigName("screener")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.marketscreener")
	_ = v.ReadInConfig()

	v.BindEnv("config_root", "SCREENER_CONFIG_ROOT")
	v.BindEnv("snapshot_dir", "SCREENER_SNAPSHOT_DIR")
	v.BindEnv("preset_dir", "SCREENER_PRESET_DIR")
	v.BindEnv("concurrency", "SCREENER_CONCURRENCY")
	v.BindEnv("max_retries", "SCREENER_MAX_RETRIES")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Markets) == 0 {
		return nil, fmt.Errorf("no markets configured")
	}
	if cfg.Concurrency < 1 {
		return nil, fmt.Errorf("concurrency must be at least 1, got %d", cfg.Concurrency)
	}
	if cfg.MaxRetries < 0 {
		return nil, fmt.Errorf("max_retries must not be negative, got %d", cfg.MaxRetries)
	}

	return cfg, nil
}
