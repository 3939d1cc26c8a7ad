package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Modes accepted for DEFAULT_MODE.
var Modes = []string{"pvp", "pvc", "minimal"}

type Config struct {
	Addr              string        `mapstructure:"ADDR"`
	ComputerDelay     time.Duration `mapstructure:"COMPUTER_DELAY"`
	HeartbeatInterval time.Duration `mapstructure:"HEARTBEAT_INTERVAL"`
	LogLevel          string        `mapstructure:"LOG_LEVEL"`
	DefaultMode       string        `mapstructure:"DEFAULT_MODE"`
}

var ErrInvalidConfig = errors.New("invalid config")

// Setup reads cfgPath when it exists; environment variables override it.
func Setup(cfgPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("ADDR", ":8080")
	v.SetDefault("COMPUTER_DELAY", "500ms")
	v.SetDefault("HEARTBEAT_INTERVAL", "15s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DEFAULT_MODE", "pvc")
	v.AutomaticEnv()

	if cfgPath != "" {
		if _, err := os.Stat(cfgPath); err == nil {
			v.SetConfigFile(cfgPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read %s: %w", cfgPath, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: ADDR is empty", ErrInvalidConfig)
	}
	if c.ComputerDelay < 0 {
		return fmt.Errorf("%w: COMPUTER_DELAY is negative", ErrInvalidConfig)
	}
	if c.HeartbeatInterval <= 0 {
		return fmt.Errorf("%w: HEARTBEAT_INTERVAL must be positive", ErrInvalidConfig)
	}
	for _, m := range Modes {
		if c.DefaultMode == m {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown DEFAULT_MODE %q", ErrInvalidConfig, c.DefaultMode)
}
