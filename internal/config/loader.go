package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML file at path over DefaultConfig. An empty path returns
// the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// validate rejects values the client cannot use. Timeouts are passed
// through unchecked.
func validate(cfg *Config) error {
	if cfg.RateLimit.RequestsPerSecond < 0 {
		return errors.New("rate_limit.requests_per_second must not be negative")
	}
	if cfg.Retry.Multiplier != 0 && cfg.Retry.Multiplier < 1 {
		return errors.New("retry.multiplier must be >= 1")
	}
	if cfg.Breaker.RedisAddr != "" && !cfg.Breaker.Enabled {
		return errors.New("breaker.redis_addr requires breaker.enabled")
	}
	return nil
}
