package config

import (
	"net"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default values applied before the YAML file is read.
const (
	DefaultPort            = "1234"
	DefaultMaxSessions     = 10
	DefaultMaxLineBytes    = 64 * 1024
	DefaultShutdownTimeout = 5 * time.Second
)

type Config struct {
	Server struct {
		Addr            string `yaml:"addr"`
		Port            string `yaml:"port"`
		MaxSessions     int    `yaml:"max_sessions"`
		QueueLimit      int    `yaml:"queue_limit"`
		AnswerTimeout   string `yaml:"answer_timeout"`
		MaxInvalidLines int    `yaml:"max_invalid_lines"`
		MaxLineBytes    int    `yaml:"max_line_bytes"`
		ShutdownTimeout string `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	HTTP struct {
		Port string `yaml:"port"`
	} `yaml:"http"`
	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`
	Bank struct {
		Path string `yaml:"path"`
	} `yaml:"bank"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Default returns a config with every default applied.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = DefaultPort
	cfg.Server.MaxSessions = DefaultMaxSessions
	cfg.Server.MaxLineBytes = DefaultMaxLineBytes
	cfg.Log.Level = "info"
	return cfg
}

// Load reads YAML config from path over the defaults. A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	if cfg.Server.MaxSessions <= 0 {
		return cfg, errors.Errorf("server.max_sessions must be positive, got %d", cfg.Server.MaxSessions)
	}
	if cfg.Server.QueueLimit < 0 || cfg.Server.MaxInvalidLines < 0 {
		return cfg, errors.New("server.queue_limit and server.max_invalid_lines must not be negative")
	}
	for key, raw := range map[string]string{
		"server.answer_timeout":   cfg.Server.AnswerTimeout,
		"server.shutdown_timeout": cfg.Server.ShutdownTimeout,
		"redis.ttl":               cfg.Redis.TTL,
	} {
		if err := validateDuration(raw); err != nil {
			return cfg, errors.Wrapf(err, "%s in %s", key, path)
		}
	}
	return cfg, nil
}

func validateDuration(raw string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return err
	}
	if d < 0 {
		return errors.Errorf("negative duration %q", raw)
	}
	return nil
}

// ListenAddr joins the bind address and port of the quiz listener.
func (c Config) ListenAddr() string {
	return net.JoinHostPort(c.Server.Addr, c.Server.Port)
}

// HTTPAddr joins the bind address and the HTTP port.
func (c Config) HTTPAddr() string {
	return net.JoinHostPort(c.Server.Addr, c.HTTP.Port)
}

// TTLDuration parses a duration string or returns the fallback if empty.
// Values read through Load are already known to parse.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
