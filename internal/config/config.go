// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type ServerConfig struct {
	Port           int    `yaml:"port"`
	OperatorAPIKey string `yaml:"operator_api_key"` // guards the reconcile endpoint
	AuthSecret     string `yaml:"auth_secret"`      // HMAC secret of the externally-issued member tokens
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type PaymentConfig struct {
	Iamport struct {
		BaseURL   string        `yaml:"base_url"`
		APIKey    string        `yaml:"api_key"`
		APISecret string        `yaml:"api_secret"`
		StoreCode string        `yaml:"store_code"` // checkout-module initialization code
		Timeout   time.Duration `yaml:"timeout"`
		Retries   int           `yaml:"retries"`
	} `yaml:"iamport"`
}

type ReconcilerConfig struct {
	Interval   time.Duration `yaml:"interval"`
	StaleAfter time.Duration `yaml:"stale_after"`
}

type Config struct {
	Log        LogConfig        `yaml:"log"`
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Payment    PaymentConfig    `yaml:"payment"`
	Reconciler ReconcilerConfig `yaml:"reconciler"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(configPath string, dev bool) (*Config, error) {
	b, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Payment.Iamport.BaseURL == "" {
		cfg.Payment.Iamport.BaseURL = "https://api.iamport.kr"
	}
	if cfg.Payment.Iamport.Timeout <= 0 {
		cfg.Payment.Iamport.Timeout = 10 * time.Second
	}
	if cfg.Payment.Iamport.Retries <= 0 {
		cfg.Payment.Iamport.Retries = 3
	}
	if cfg.Reconciler.Interval <= 0 {
		cfg.Reconciler.Interval = time.Minute
	}
	if cfg.Reconciler.StaleAfter <= 0 {
		cfg.Reconciler.StaleAfter = 10 * time.Minute
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.Iamport.APIKey == "" || cfg.Payment.Iamport.APISecret == "" {
		return nil, errors.New("payment.iamport.api_key and api_secret are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
