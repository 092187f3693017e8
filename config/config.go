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
	Gate       GateConfig       `yaml:"gate"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
}

// DispatcherConfig holds the configuration for the request dispatcher pool.
type DispatcherConfig struct {
	Workers int `yaml:"workers"`
}

// PushConfig holds the VAPID keys for slot-availability web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// ParkingConfig holds the admission limits and facility-local time settings.
// A per-class capacity of zero means that class is not partitioned and
// admission counts against the undifferentiated pool.
type ParkingConfig struct {
	Capacity          int    `yaml:"capacity"`
	TwoWheelCapacity  int    `yaml:"two_wheel_capacity"`
	FourWheelCapacity int    `yaml:"four_wheel_capacity"`
	Timezone          string `yaml:"timezone"`
}

// GateConfig holds the serial barrier-gate settings.
type GateConfig struct {
	Enabled           bool          `yaml:"enabled"`
	ProductID         string        `yaml:"product_id"`
	VendorID          string        `yaml:"vendor_id"`
	BaudRate          int           `yaml:"baud_rate"`
	AckTimeoutSeconds int           `yaml:"ack_timeout_seconds"`
	AckTimeout        time.Duration `yaml:"-"` // Ignored by YAML parser
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

	if cfg.Parking.Capacity <= 0 {
		cfg.Parking.Capacity = 50
	}
	if cfg.Parking.Timezone == "" {
		cfg.Parking.Timezone = "Asia/Manila"
	}

	if cfg.Gate.ProductID == "" {
		cfg.Gate.ProductID = "7523"
	}
	if cfg.Gate.BaudRate <= 0 {
		cfg.Gate.BaudRate = 9600
	}
	if cfg.Gate.AckTimeoutSeconds <= 0 {
		cfg.Gate.AckTimeoutSeconds = 15
	}
	cfg.Gate.AckTimeout = time.Duration(cfg.Gate.AckTimeoutSeconds) * time.Second

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 60
	}

	if cfg.Dispatcher.Workers <= 0 {
		log.Printf("dispatcher.workers is not set or invalid; defaulting to 4")
		cfg.Dispatcher.Workers = 4
	}

	return &cfg, nil
}
