package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the process configuration, loaded from environment variables.
type Config struct {
	BotToken    string  `env:"BOT_TOKEN"`
	DBPath      string  `env:"DB_PATH" envDefault:"data/coinheist.db"`
	ItemsPath   string  `env:"ITEMS_PATH" envDefault:"configs/items.yaml"`
	HTTPPort    string  `env:"PORT" envDefault:"8080"`
	LogLevel    string  `env:"LOG_LEVEL" envDefault:"info"`
	SuperAdmins []int64 `env:"SUPER_ADMINS" envSeparator:","`
}

// Load parses configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN not set")
	}
	return &cfg, nil
}
