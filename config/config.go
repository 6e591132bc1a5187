package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Parking    ParkingConfig    `yaml:"parking"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Auth       AuthConfig       `yaml:"auth"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// WorkerPoolConfig holds the configuration for the alert worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// AuthConfig holds the signing secret for admin API tokens.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RequestIPHeader string  `yaml:"request_ip_header"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ParkingConfig holds the occupancy ledger configuration.
type ParkingConfig struct {
	TotalSlots           int           `yaml:"total_slots"`
	EnforceCapacityRaw   *bool         `yaml:"enforce_capacity"`
	EnforceCapacity      bool          `yaml:"-"` // Resolved from EnforceCapacityRaw
	Timezone             string        `yaml:"timezone"`
	RetentionDays        int           `yaml:"retention_days"`
	AlertThreshold       float64       `yaml:"alert_threshold"`
	SweepIntervalMinutes int           `yaml:"sweep_interval_minutes"`
	SweepInterval        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.Parking.TotalSlots <= 0 {
		cfg.Parking.TotalSlots = 100
	}

	// Capacity enforcement defaults to on; an explicit false in the config
	// reproduces the legacy admit-over-capacity behaviour.
	cfg.Parking.EnforceCapacity = true
	if cfg.Parking.EnforceCapacityRaw != nil {
		cfg.Parking.EnforceCapacity = *cfg.Parking.EnforceCapacityRaw
	}

	if cfg.Parking.RetentionDays <= 0 {
		cfg.Parking.RetentionDays = 30
	}

	if cfg.Parking.AlertThreshold <= 0 || cfg.Parking.AlertThreshold > 1 {
		cfg.Parking.AlertThreshold = 0.9
	}

	if cfg.Parking.SweepIntervalMinutes <= 0 {
		cfg.Parking.SweepIntervalMinutes = 60
	}
	cfg.Parking.SweepInterval = time.Duration(cfg.Parking.SweepIntervalMinutes) * time.Minute

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 5
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}

// Location resolves the configured timezone, falling back to local time.
func (p *ParkingConfig) Location() *time.Location {
	if p.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		log.Printf("Warning: invalid timezone %q: %v. Falling back to local time.", p.Timezone, err)
		return time.Local
	}
	return loc
}
