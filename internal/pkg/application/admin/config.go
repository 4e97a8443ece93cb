package admin

import (
	"io"
	"time"

	yaml "gopkg.in/yaml.v2"
)

type Collections struct {
	Stations  string `yaml:"stations"`
	Operators string `yaml:"operators"`
}

type Paging struct {
	DefaultLimit int `yaml:"defaultLimit"`
	MaxLimit     int `yaml:"maxLimit"`
}

type DashboardConfig struct {
	RecentStations int `yaml:"recentStations"`
}

// SessionConfig bounds the editor sessions held in memory. Sessions idle
// for longer than IdleTimeout are closed, and the least recently used
// session is closed when MaxOpen would be exceeded.
type SessionConfig struct {
	IdleTimeout time.Duration `yaml:"idleTimeout"`
	MaxOpen     int           `yaml:"maxOpen"`
}

type Config struct {
	Collections Collections     `yaml:"collections"`
	Paging      Paging          `yaml:"paging"`
	Dashboard   DashboardConfig `yaml:"dashboard"`
	Sessions    SessionConfig   `yaml:"sessions"`
}

func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (cfg *Config) applyDefaults() {
	if cfg.Collections.Stations == "" {
		cfg.Collections.Stations = "stations"
	}

	if cfg.Collections.Operators == "" {
		cfg.Collections.Operators = "toc_operators"
	}

	if cfg.Paging.DefaultLimit <= 0 {
		cfg.Paging.DefaultLimit = 20
	}

	if cfg.Paging.MaxLimit < cfg.Paging.DefaultLimit {
		cfg.Paging.MaxLimit = 100
		if cfg.Paging.MaxLimit < cfg.Paging.DefaultLimit {
			cfg.Paging.MaxLimit = cfg.Paging.DefaultLimit
		}
	}

	if cfg.Dashboard.RecentStations <= 0 {
		cfg.Dashboard.RecentStations = 3
	}

	if cfg.Sessions.IdleTimeout <= 0 {
		cfg.Sessions.IdleTimeout = 30 * time.Minute
	}

	if cfg.Sessions.MaxOpen <= 0 {
		cfg.Sessions.MaxOpen = 100
	}
}

// pageSize clamps a requested page size to the configured limits
func (cfg *Config) pageSize(requested int) int {
	if requested <= 0 {
		return cfg.Paging.DefaultLimit
	}
	if requested > cfg.Paging.MaxLimit {
		return cfg.Paging.MaxLimit
	}
	return requested
}

func LoadConfiguration(data io.Reader) (*Config, error) {
	buf, err := io.ReadAll(data)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	err = yaml.Unmarshal(buf, cfg)
	if err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return cfg, nil
}
