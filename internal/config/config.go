package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	Tracking  TrackingConfig  `yaml:"tracking"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Email     EmailConfig     `yaml:"email"`
	Social    SocialConfig    `yaml:"social"`
	SES       SESConfig       `yaml:"ses"`
	Relay     RelayConfig     `yaml:"relay"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, with container detection
func (c ServerConfig) GetHost() string {
	// In a container, listen on all interfaces
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// DatabaseConfig holds PostgreSQL settings
type DatabaseConfig struct {
	URL          string `yaml:"url"`
	MaxOpenConns int    `yaml:"max_open_conns"`
	MaxIdleConns int    `yaml:"max_idle_conns"`
}

// RedisConfig holds Redis settings for the scheduler lock.
// Redis is optional; without it the scheduler falls back to a
// PostgreSQL advisory lock.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Enabled  bool   `yaml:"enabled"`
}

// TrackingConfig holds open/click tracking settings
type TrackingConfig struct {
	BaseURL    string `yaml:"base_url"`
	SigningKey string `yaml:"signing_key"`
}

// SchedulerConfig holds the periodic dispatch loop settings
type SchedulerConfig struct {
	IntervalSeconds int  `yaml:"interval_seconds"`
	LockTTLSeconds  int  `yaml:"lock_ttl_seconds"`
	RecomputeStats  bool `yaml:"recompute_stats"`
}

// Interval returns the tick interval as a duration
func (c SchedulerConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// LockTTL returns the scheduler lock TTL as a duration
func (c SchedulerConfig) LockTTL() time.Duration {
	return time.Duration(c.LockTTLSeconds) * time.Second
}

// EmailConfig holds email dispatch settings
type EmailConfig struct {
	BatchSize         int    `yaml:"batch_size"`
	BatchDelayMinutes int    `yaml:"batch_delay_minutes"`
	DefaultProvider   string `yaml:"default_provider"`
}

// BatchDelay returns the delay between batches as a duration
func (c EmailConfig) BatchDelay() time.Duration {
	return time.Duration(c.BatchDelayMinutes) * time.Minute
}

// SocialConfig holds social publishing settings
type SocialConfig struct {
	GatewayURL     string `yaml:"gateway_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration
func (c SocialConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// SESConfig holds AWS SES API configuration
type SESConfig struct {
	Region         string `yaml:"region"`
	AccessKey      string `yaml:"access_key"`
	SecretKey      string `yaml:"secret_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c SESConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RelayConfig holds the HTTP relay email provider configuration
type RelayConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Enabled        bool   `yaml:"enabled"`
}

// Timeout returns the configured timeout as a duration
func (c RelayConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	// Set defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Scheduler.IntervalSeconds == 0 {
		cfg.Scheduler.IntervalSeconds = 60
	}
	if cfg.Scheduler.LockTTLSeconds == 0 {
		cfg.Scheduler.LockTTLSeconds = 55
	}
	if cfg.Email.BatchSize == 0 {
		cfg.Email.BatchSize = 10
	}
	if cfg.Email.BatchDelayMinutes == 0 {
		cfg.Email.BatchDelayMinutes = 5
	}
	if cfg.Email.DefaultProvider == "" {
		cfg.Email.DefaultProvider = "relay"
	}
	if cfg.Social.TimeoutSeconds == 0 {
		cfg.Social.TimeoutSeconds = 30
	}
	if cfg.SES.TimeoutSeconds == 0 {
		cfg.SES.TimeoutSeconds = 30
	}
	if cfg.SES.Region == "" {
		cfg.SES.Region = "us-west-2"
	}
	if cfg.Relay.TimeoutSeconds == 0 {
		cfg.Relay.TimeoutSeconds = 30
	}
	if cfg.Tracking.BaseURL == "" {
		cfg.Tracking.BaseURL = "http://localhost:8080"
	}

	return &cfg, nil
}

// LoadFromEnv loads configuration with environment variable overrides.
// It automatically loads a .env file (if present) before reading env
// vars, so secrets can live in .env locally and in real env vars in
// production.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("TRACKING_BASE_URL"); v != "" {
		cfg.Tracking.BaseURL = v
	}
	if v := os.Getenv("TRACKING_SIGNING_KEY"); v != "" {
		cfg.Tracking.SigningKey = v
	}
	if v := os.Getenv("AWS_SES_ACCESS_KEY"); v != "" {
		cfg.SES.AccessKey = v
	}
	if v := os.Getenv("AWS_SES_SECRET_KEY"); v != "" {
		cfg.SES.SecretKey = v
	}
	if v := os.Getenv("AWS_SES_REGION"); v != "" {
		cfg.SES.Region = v
	}
	if v := os.Getenv("RELAY_API_KEY"); v != "" {
		cfg.Relay.APIKey = v
	}
	if v := os.Getenv("RELAY_BASE_URL"); v != "" {
		cfg.Relay.BaseURL = v
	}
	if v := os.Getenv("SOCIAL_GATEWAY_URL"); v != "" {
		cfg.Social.GatewayURL = v
	}
	if v := os.Getenv("SOCIAL_API_KEY"); v != "" {
		cfg.Social.APIKey = v
	}

	return cfg, nil
}
