package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string         `mapstructure:"app_env"`
	API      APIConfig      `mapstructure:"api"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Retry    RetryConfig    `mapstructure:"retry"`
	Checkout CheckoutConfig `mapstructure:"checkout"`
	Log      LogConfig      `mapstructure:"log"`
}

// APIConfig points the gateways at the storefront backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	// Rate caps outbound requests per second; Burst is the limiter bucket.
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`
}

// StorageConfig locates the local SQLite file that holds the guest cart,
// the address book, and persisted preferences.
type StorageConfig struct {
	Path string `mapstructure:"path"`
}

// RetryConfig tunes the order-code resolution backoff. It is the only
// remote path that retries.
type RetryConfig struct {
	MaxAttempts   int           `mapstructure:"max_attempts"`
	InitialDelay  time.Duration `mapstructure:"initial_delay"`
	MaxDelay      time.Duration `mapstructure:"max_delay"`
	BackoffFactor float64       `mapstructure:"backoff_factor"`
	Jitter        bool          `mapstructure:"jitter"`
}

type CheckoutConfig struct {
	ShippingType string `mapstructure:"shipping_type"` // Normal or Express
	Currency     string `mapstructure:"currency"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json, text
}

// Load reads configuration from an optional YAML file plus STOREFRONT_*
// environment variables, with defaults for everything.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("STOREFRONT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file is fine; defaults plus env apply.
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", "dev")

	v.SetDefault("api.base_url", "http://localhost:8000/api")
	v.SetDefault("api.timeout", "15s")
	v.SetDefault("api.rate", 10)
	v.SetDefault("api.burst", 20)

	v.SetDefault("storage.path", "storefront.db")

	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_delay", "200ms")
	v.SetDefault("retry.max_delay", "2s")
	v.SetDefault("retry.backoff_factor", 2.0)
	v.SetDefault("retry.jitter", true)

	v.SetDefault("checkout.shipping_type", "Normal")
	v.SetDefault("checkout.currency", "usd")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}
