package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *AppConfig) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Resolver.Timeout == 0 {
		cfg.Resolver.Timeout = 5 * time.Second
	}
	if cfg.Resolver.HostRPS == 0 {
		cfg.Resolver.HostRPS = 2
	}
	if cfg.Pool.CooldownMinutes == 0 {
		cfg.Pool.CooldownMinutes = 30
	}
	if cfg.Extract.AttemptTimeout == 0 {
		cfg.Extract.AttemptTimeout = 30 * time.Second
	}
}
