// Package config loads service and solver settings from an optional YAML
// file, then applies environment overrides.
package config

import (
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete configuration of both binaries.
type Config struct {
	Solver struct {
		Algorithm  string        `yaml:"algorithm"`
		Parallel   bool          `yaml:"parallel"`
		Workers    int           `yaml:"workers"`
		MaxWorkers int           `yaml:"max_workers"`
		TimeLimit  time.Duration `yaml:"time_limit"`
	} `yaml:"solver"`

	Server struct {
		Addr         string  `yaml:"addr"`
		RateRPS      float64 `yaml:"rate_rps"`
		RateBurst    int     `yaml:"rate_burst"`
		MaxBodyBytes int64   `yaml:"max_body_bytes"`
	} `yaml:"server"`

	Store struct {
		DatabaseURL string        `yaml:"database_url"`
		RedisURL    string        `yaml:"redis_url"`
		Migrate     bool          `yaml:"migrate"`
		CacheTTL    time.Duration `yaml:"cache_ttl"`
	} `yaml:"store"`
}

// Default returns the built-in settings.
func Default() *Config {
	var c Config
	c.Solver.Algorithm = "heuristic"
	c.Solver.Workers = runtime.NumCPU()
	c.Solver.MaxWorkers = runtime.NumCPU()
	c.Server.Addr = ":8080"
	c.Server.RateRPS = 10
	c.Server.RateBurst = 20
	c.Server.MaxBodyBytes = 4 << 20
	c.Store.Migrate = true
	c.Store.CacheTTL = time.Hour
	return &c
}

// Load reads path over the defaults when path is non-empty, then applies
// the environment.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}
	if err := cfg.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Server.Addr = ":" + v
	}
	if v := getenv("DATABASE_URL"); strings.TrimSpace(v) != "" {
		c.Store.DatabaseURL = v
	}
	if v := getenv("REDIS_URL"); v != "" {
		c.Store.RedisURL = v
	}
	if v := getenv("DB_MIGRATE"); v != "" {
		c.Store.Migrate = v != "false"
	}
	if v := getenv("VRP_ALGORITHM"); v != "" {
		c.Solver.Algorithm = v
	}
	if v := getenv("VRP_PARALLEL"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("VRP_PARALLEL: %w", err)
		}
		c.Solver.Parallel = b
	}
	if v := getenv("VRP_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VRP_WORKERS: %w", err)
		}
		c.Solver.Workers = n
	}
	if v := getenv("VRP_MAX_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("VRP_MAX_WORKERS: %w", err)
		}
		c.Solver.MaxWorkers = n
	}
	if v := getenv("VRP_TIME_LIMIT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VRP_TIME_LIMIT: %w", err)
		}
		c.Solver.TimeLimit = d
	}
	if v := getenv("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
		c.Store.CacheTTL = d
	}
	if v := getenv("RATE_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("RATE_RPS: %w", err)
		}
		c.Server.RateRPS = f
	}
	if v := getenv("RATE_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("RATE_BURST: %w", err)
		}
		c.Server.RateBurst = n
	}
	return nil
}
