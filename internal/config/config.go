// Package config loads the TOML configuration for the command-line front end.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the resolved client configuration.
type Config struct {
	URL       string
	BankCode  string
	UserID    string
	PIN       string
	ProductID string
	MaxPages  int

	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration

	DecoupledWaitBeforeFirst time.Duration
	DecoupledWaitBetween     time.Duration
	DecoupledMaxRequests     int
	DecoupledTotalTimeout    time.Duration
}

// DefaultConfig returns the defaults a config file overlays.
func DefaultConfig() Config {
	return Config{
		ProductID:  "fints-cli",
		MaxPages:   100,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Second,
	}
}

// fileConfig maps the TOML keys. PIN can come from the file or, preferably,
// from the environment variable named by pin_env.
type fileConfig struct {
	URL            string          `toml:"url"`
	BankCode       string          `toml:"bank_code"`
	UserID         string          `toml:"user_id"`
	PIN            string          `toml:"pin"`
	PINEnv         string          `toml:"pin_env"`
	ProductID      string          `toml:"product_id"`
	MaxPages       int             `toml:"max_pages"`
	TimeoutSeconds int             `toml:"timeout_seconds"`
	MaxRetries     int             `toml:"max_retries"`
	RetryDelayMS   int             `toml:"retry_delay_ms"`
	Decoupled      decoupledConfig `toml:"decoupled"`
}

type decoupledConfig struct {
	WaitBeforeFirstMS   int `toml:"wait_before_first_ms"`
	WaitBetweenMS       int `toml:"wait_between_ms"`
	MaxRequests         int `toml:"max_requests"`
	TotalTimeoutSeconds int `toml:"total_timeout_seconds"`
}

// Load reads the config file and overlays it onto the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("load client config: %w", err)
	}

	cfg.URL = strings.TrimSpace(raw.URL)
	cfg.BankCode = strings.TrimSpace(raw.BankCode)
	cfg.UserID = strings.TrimSpace(raw.UserID)
	cfg.PIN = raw.PIN
	if env := strings.TrimSpace(raw.PINEnv); env != "" {
		if v := os.Getenv(env); v != "" {
			cfg.PIN = v
		}
	}
	if meta.IsDefined("product_id") {
		cfg.ProductID = strings.TrimSpace(raw.ProductID)
	}
	if meta.IsDefined("max_pages") {
		cfg.MaxPages = raw.MaxPages
	}
	if meta.IsDefined("timeout_seconds") {
		cfg.Timeout = time.Duration(raw.TimeoutSeconds) * time.Second
	}
	if meta.IsDefined("max_retries") {
		cfg.MaxRetries = raw.MaxRetries
	}
	if meta.IsDefined("retry_delay_ms") {
		cfg.RetryDelay = time.Duration(raw.RetryDelayMS) * time.Millisecond
	}
	if meta.IsDefined("decoupled", "wait_before_first_ms") {
		cfg.DecoupledWaitBeforeFirst = time.Duration(raw.Decoupled.WaitBeforeFirstMS) * time.Millisecond
	}
	if meta.IsDefined("decoupled", "wait_between_ms") {
		cfg.DecoupledWaitBetween = time.Duration(raw.Decoupled.WaitBetweenMS) * time.Millisecond
	}
	if meta.IsDefined("decoupled", "max_requests") {
		cfg.DecoupledMaxRequests = raw.Decoupled.MaxRequests
	}
	if meta.IsDefined("decoupled", "total_timeout_seconds") {
		cfg.DecoupledTotalTimeout = time.Duration(raw.Decoupled.TotalTimeoutSeconds) * time.Second
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the fields every operation needs.
func Validate(cfg Config) error {
	if cfg.URL == "" {
		return fmt.Errorf("load client config: url is required")
	}
	if cfg.BankCode == "" {
		return fmt.Errorf("load client config: bank_code is required")
	}
	if cfg.UserID == "" {
		return fmt.Errorf("load client config: user_id is required")
	}
	if cfg.PIN == "" {
		return fmt.Errorf("load client config: pin (or pin_env) is required")
	}
	return nil
}
