package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all client settings. Values come from an optional YAML file
// with ACRO_* environment variables as fallbacks for the common ones.
type Config struct {
	Server struct {
		BaseURL   string `yaml:"base_url"`
		SocketURL string `yaml:"socket_url"`
	} `yaml:"server"`

	Session struct {
		CredentialsFile string        `yaml:"credentials_file"`
		RestoreTimeout  time.Duration `yaml:"restore_timeout"`
	} `yaml:"session"`

	Socket struct {
		DialTimeout   time.Duration `yaml:"dial_timeout"`
		WriteTimeout  time.Duration `yaml:"write_timeout"`
		PongTimeout   time.Duration `yaml:"pong_timeout"`
		PingInterval  time.Duration `yaml:"ping_interval"`
		ReconnectMin  time.Duration `yaml:"reconnect_min"`
		ReconnectMax  time.Duration `yaml:"reconnect_max"`
		MaxMessageKiB int64         `yaml:"max_message_kib"`
	} `yaml:"socket"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Default returns the built-in settings, pointed at the hosted backend.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.BaseURL = getEnv("ACRO_SERVER_URL", "https://acrophobia-backend-2.onrender.com")
	cfg.Server.SocketURL = getEnv("ACRO_SOCKET_URL", "wss://acrophobia-backend-2.onrender.com/ws")
	cfg.Session.CredentialsFile = getEnv("ACRO_CREDENTIALS_FILE", defaultCredentialsFile())
	cfg.Session.RestoreTimeout = getEnvDuration("ACRO_RESTORE_TIMEOUT", 5*time.Second)
	cfg.Socket.DialTimeout = 10 * time.Second
	cfg.Socket.WriteTimeout = 10 * time.Second
	cfg.Socket.PongTimeout = 60 * time.Second
	cfg.Socket.PingInterval = 30 * time.Second
	cfg.Socket.ReconnectMin = time.Second
	cfg.Socket.ReconnectMax = 30 * time.Second
	cfg.Socket.MaxMessageKiB = 64
	cfg.Logging.Level = getEnv("ACRO_LOG_LEVEL", "info")
	return cfg
}

// Load reads a YAML config file over the defaults. A missing path is not an
// error; the defaults already work against the hosted backend.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	if c.Server.BaseURL == "" {
		return errors.New("server.base_url is required")
	}
	if c.Server.SocketURL == "" {
		return errors.New("server.socket_url is required")
	}
	if c.Session.RestoreTimeout <= 0 {
		return fmt.Errorf("session.restore_timeout must be positive, got %s", c.Session.RestoreTimeout)
	}
	if c.Socket.PingInterval >= c.Socket.PongTimeout {
		return fmt.Errorf("socket.ping_interval (%s) must be shorter than socket.pong_timeout (%s)",
			c.Socket.PingInterval, c.Socket.PongTimeout)
	}
	return nil
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".acrophobia-session.json"
	}
	return filepath.Join(home, ".acrophobia-session.json")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
