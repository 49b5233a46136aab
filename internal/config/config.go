package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	NotifyModeQueue  = "queue"
	NotifyModeDirect = "direct"
	NotifyModeLog    = "log"
)

type Config struct {
	TelegramToken string `mapstructure:"TELEGRAM_TOKEN"`
	DBDSN         string `mapstructure:"DB_DSN"`
	Environment   string `mapstructure:"ENV"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// queue, direct or log
	NotifyMode string `mapstructure:"NOTIFY_MODE"`

	AutomationHour     int           `mapstructure:"AUTOMATION_HOUR"`
	AutomationInterval time.Duration `mapstructure:"AUTOMATION_INTERVAL"`
	AutomationWorkers  int           `mapstructure:"AUTOMATION_WORKERS"`
	Timezone           string        `mapstructure:"TIMEZONE"`
}

func Load() (*Config, error) {
	// .env is optional, real environment variables win
	if err := godotenv.Load(".env"); err != nil {
		log.Println("No .env file found, using environment variables")
	} else {
		log.Println("Loaded configuration from .env file")
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	v.AutomaticEnv()

	v.SetDefault("ENV", "development")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NOTIFY_MODE", NotifyModeQueue)
	v.SetDefault("AUTOMATION_HOUR", 8)
	v.SetDefault("AUTOMATION_INTERVAL", "15m")
	v.SetDefault("AUTOMATION_WORKERS", 4)
	v.SetDefault("TIMEZONE", "Asia/Manila")
	// AutomaticEnv only reaches keys viper knows about
	v.SetDefault("DB_DSN", "")
	v.SetDefault("TELEGRAM_TOKEN", "")

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Printf("Config loaded (env=%s, notify=%s, tz=%s)\n", cfg.Environment, cfg.NotifyMode, cfg.Timezone)
	return cfg, nil
}

func (c *Config) validate() error {
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required but not set")
	}

	c.NotifyMode = strings.ToLower(strings.TrimSpace(c.NotifyMode))
	switch c.NotifyMode {
	case NotifyModeQueue, NotifyModeDirect, NotifyModeLog:
	default:
		return fmt.Errorf("NOTIFY_MODE must be queue, direct or log, got %q", c.NotifyMode)
	}
	if c.NotifyMode != NotifyModeLog && c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is required for NOTIFY_MODE=%s", c.NotifyMode)
	}

	if c.AutomationHour < 0 || c.AutomationHour > 23 {
		return fmt.Errorf("AUTOMATION_HOUR must be between 0 and 23, got %d", c.AutomationHour)
	}
	if c.AutomationInterval <= 0 {
		return fmt.Errorf("AUTOMATION_INTERVAL must be positive")
	}
	if c.AutomationWorkers <= 0 {
		return fmt.Errorf("AUTOMATION_WORKERS must be positive")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}
	return nil
}

func (c *Config) GetDBDSN() string {
	return c.DBDSN
}

// Location resolves Timezone; validate already checked it loads
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
