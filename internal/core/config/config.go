package config

import (
	"time"

	redisclient "github.com/vietddude/extractor/internal/infra/redis"
	"github.com/vietddude/extractor/internal/infra/storage/postgres"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server   ServerConfig       `yaml:"server"`
	Logging  LoggingConfig      `yaml:"logging"`
	Redis    redisclient.Config `yaml:"redis"`
	Database postgres.Config    `yaml:"database"`
	Resolver ResolverConfig     `yaml:"resolver"`
	Pool     PoolConfig         `yaml:"pool"`
	Cache    CacheConfig        `yaml:"cache"`
	Extract  ExtractConfig      `yaml:"extract"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// ResolverConfig holds short-link resolution settings.
type ResolverConfig struct {
	Timeout time.Duration `yaml:"timeout"`  // per-resolution budget
	HostRPS float64       `yaml:"host_rps"` // per-host politeness rate
}

// PoolConfig holds credential pool settings.
type PoolConfig struct {
	CooldownMinutes int `yaml:"cooldown_minutes"` // default rest after a rate-limit signal
}

// CacheConfig holds response cache settings. TTL is keyed by platform name;
// platforms without an entry use the cache default.
type CacheConfig struct {
	TTL map[string]time.Duration `yaml:"ttl"`
}

// ExtractConfig holds extraction attempt settings.
type ExtractConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout"`
	YtDlpPath      string        `yaml:"ytdlp_path"`
}
