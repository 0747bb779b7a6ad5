package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"rate-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App     AppConfig      `mapstructure:"app"`
	Logging logging.Config `mapstructure:"logging"`
	Monitor MonitorConfig  `mapstructure:"monitor"`
	Scraper ScraperConfig  `mapstructure:"scraper"`
	Webhook WebhookConfig  `mapstructure:"webhook"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// MonitorConfig governs the rate check itself.
type MonitorConfig struct {
	URL        string        `mapstructure:"url"`
	Threshold  float64       `mapstructure:"threshold"`
	MaxRetries int           `mapstructure:"max_retries"`
	Delay      time.Duration `mapstructure:"delay"`
	MinRate    float64       `mapstructure:"min_rate"`
	MaxRate    float64       `mapstructure:"max_rate"`
}

// ScraperConfig tunes the headless browser session.
type ScraperConfig struct {
	Selector        string        `mapstructure:"selector"`
	PageLoadTimeout time.Duration `mapstructure:"page_load_timeout"`
	ElementTimeout  time.Duration `mapstructure:"element_timeout"`
	GraceDelay      time.Duration `mapstructure:"grace_delay"`
	DebugHTML       bool          `mapstructure:"debug_html"`
	DebugDir        string        `mapstructure:"debug_dir"`
}

// WebhookConfig captures Discord webhook delivery settings.
type WebhookConfig struct {
	URL      string        `mapstructure:"url"`
	Username string        `mapstructure:"username"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RATEWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "ratewatch")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// AutomaticEnv only surfaces env values for registered keys, so the
	// required settings need empty defaults for env-only configuration.
	v.SetDefault("monitor.url", "")
	v.SetDefault("webhook.url", "")

	v.SetDefault("monitor.threshold", 1700.0)
	v.SetDefault("monitor.max_retries", 3)
	v.SetDefault("monitor.delay", "1s")
	v.SetDefault("monitor.min_rate", 100.0)
	v.SetDefault("monitor.max_rate", 10000.0)

	v.SetDefault("scraper.selector", ".fx-to")
	v.SetDefault("scraper.page_load_timeout", "30s")
	v.SetDefault("scraper.element_timeout", "20s")
	v.SetDefault("scraper.grace_delay", "2s")
	v.SetDefault("scraper.debug_html", false)
	v.SetDefault("scraper.debug_dir", "debug_output")

	v.SetDefault("webhook.username", "EUR/ARS Monitor")
	v.SetDefault("webhook.timeout", "10s")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.Monitor.URL == "" {
		return fmt.Errorf("monitor.url is required")
	}
	if c.Webhook.URL == "" {
		return fmt.Errorf("webhook.url is required")
	}
	if c.Monitor.Threshold <= 0 {
		return fmt.Errorf("monitor.threshold must be greater than zero")
	}
	if c.Monitor.MaxRetries <= 0 {
		return fmt.Errorf("monitor.max_retries must be greater than zero")
	}
	if c.Monitor.Delay < 0 {
		return fmt.Errorf("monitor.delay cannot be negative")
	}
	if c.Monitor.MinRate >= c.Monitor.MaxRate {
		return fmt.Errorf("monitor.min_rate must be below monitor.max_rate")
	}
	if c.Scraper.PageLoadTimeout <= 0 {
		return fmt.Errorf("scraper.page_load_timeout must be greater than zero")
	}
	if c.Scraper.ElementTimeout <= 0 {
		return fmt.Errorf("scraper.element_timeout must be greater than zero")
	}
	return nil
}
