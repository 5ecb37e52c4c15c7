// Package config loads the explorer configuration from a YAML file with
// environment-variable expansion, so credentials can stay out of the file.
package config

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the explorer.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Feed    FeedConfig    `mapstructure:"feed"`
	Archive ArchiveConfig `mapstructure:"archive"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig identifies the i3X server and how to authenticate against it.
type ServerConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	AuthKind string `mapstructure:"auth_kind"` // "", "basic" or "bearer"
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Token    string `mapstructure:"token"`
}

// FeedConfig tunes the live feed transports.
type FeedConfig struct {
	Mode                 string        `mapstructure:"mode"` // "stream" or "poll"
	PollInterval         time.Duration `mapstructure:"poll_interval"`
	ReconnectBase        time.Duration `mapstructure:"reconnect_base"`
	MaxReconnectAttempts int           `mapstructure:"max_reconnect_attempts"`
	MaxDepth             int           `mapstructure:"max_depth"`
}

// ArchiveConfig enables the optional trend archive.
type ArchiveConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Name     string `mapstructure:"name"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// ConnString builds the lib/pq connection string.
func (a ArchiveConfig) ConnString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		a.Host, a.Port, a.User, a.Password, a.Name, a.SSLMode,
	)
}

// MetricsConfig enables the optional prometheus debug listener.
type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// LoggingConfig selects log level and format.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables before parsing
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.auth_kind", "")

	v.SetDefault("feed.mode", "stream")
	v.SetDefault("feed.poll_interval", "2s")
	v.SetDefault("feed.reconnect_base", "1s")
	v.SetDefault("feed.max_reconnect_attempts", 5)
	v.SetDefault("feed.max_depth", 1)

	v.SetDefault("archive.enabled", false)
	v.SetDefault("archive.port", 5432)
	v.SetDefault("archive.ssl_mode", "disable")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.port", 9180)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
