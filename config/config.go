package config

import (
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	Admin        AdminConfig        `yaml:"admin"`
	Email        EmailConfig        `yaml:"email"`
	Notification NotificationConfig `yaml:"notification"`
	RosterSync   RosterSyncConfig   `yaml:"roster_sync"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// AdminConfig holds the credentials for the admin gate.
type AdminConfig struct {
	Token string `yaml:"token"`
}

// EmailConfig holds the SMTP settings for the notification transport.
// When Host is empty the service falls back to a log-only sender.
type EmailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// NotificationConfig holds the settings for the publish-time fan-out.
type NotificationConfig struct {
	Workers int `yaml:"workers"`
}

// RosterSyncConfig holds the settings for the upstream roster poller.
type RosterSyncConfig struct {
	Enabled         bool          `yaml:"enabled"`
	URL             string        `yaml:"url"`
	AuthToken       string        `yaml:"auth_token"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
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

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
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
	if cfg.Email.Port <= 0 {
		cfg.Email.Port = 587
	}

	if cfg.RosterSync.IntervalSeconds <= 0 {
		cfg.RosterSync.IntervalSeconds = 300
	}
	cfg.RosterSync.Interval = time.Duration(cfg.RosterSync.IntervalSeconds) * time.Second

	if cfg.Notification.Workers <= 0 {
		log.Warn().Msg("notification.workers is not set or invalid; defaulting to 4")
		cfg.Notification.Workers = 4
	}

	return &cfg, nil
}
