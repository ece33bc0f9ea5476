package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port             string `mapstructure:"PORT"`
	Env              string `mapstructure:"ENV"`
	StoreBackend     string `mapstructure:"STORE_BACKEND"`
	StorePath        string `mapstructure:"STORE_PATH"`
	ExportCacheDir   string `mapstructure:"EXPORT_CACHE_DIR"`
	DownloadDir      string `mapstructure:"DOWNLOAD_DIR"`
	ExportCooldownMS int    `mapstructure:"EXPORT_COOLDOWN_MS"`
	LocateRetries    int    `mapstructure:"LOCATE_RETRIES"`
	LocateBackoffMS  int    `mapstructure:"LOCATE_BACKOFF_MS"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8600")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", "file")
	v.SetDefault("STORE_PATH", "data")
	v.SetDefault("EXPORT_CACHE_DIR", "exports/cache")
	v.SetDefault("DOWNLOAD_DIR", "exports/download")
	v.SetDefault("EXPORT_COOLDOWN_MS", 350)
	v.SetDefault("LOCATE_RETRIES", 3)
	v.SetDefault("LOCATE_BACKOFF_MS", 150)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("STORE_BACKEND")
	v.BindEnv("STORE_PATH")
	v.BindEnv("EXPORT_CACHE_DIR")
	v.BindEnv("DOWNLOAD_DIR")
	v.BindEnv("EXPORT_COOLDOWN_MS")
	v.BindEnv("LOCATE_RETRIES")
	v.BindEnv("LOCATE_BACKOFF_MS")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ExportCooldown returns the export debounce window as a duration.
func (c *Config) ExportCooldown() time.Duration {
	return time.Duration(c.ExportCooldownMS) * time.Millisecond
}

// LocateBackoff returns the base locate-retry backoff as a duration.
func (c *Config) LocateBackoff() time.Duration {
	return time.Duration(c.LocateBackoffMS) * time.Millisecond
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case "file", "sqlite", "memory":
	default:
		return fmt.Errorf("STORE_BACKEND must be \"file\", \"sqlite\", or \"memory\", got %q", c.StoreBackend)
	}
	if c.StorePath == "" && c.StoreBackend != "memory" {
		return fmt.Errorf("STORE_PATH is required for the %s backend", c.StoreBackend)
	}
	if c.LocateRetries <= 0 {
		return fmt.Errorf("LOCATE_RETRIES must be positive, got %d", c.LocateRetries)
	}
	return nil
}
