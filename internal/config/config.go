// Package config builds the single immutable configuration value that is
// passed to every component.
package config

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/SmitUplenchwar2687/httpcopy/internal/capture"
)

// DefaultPort is used when listen or forward omit a port.
const DefaultPort = 80

// Config is the top-level configuration for an httpcopy run.
type Config struct {
	Listen    string        `json:"listen"`
	Forward   string        `json:"forward"`
	URLPrefix string        `json:"url_prefix"`
	Timeout   time.Duration `json:"timeout"`
	Interval  time.Duration `json:"interval"` // 0 = run once
	DataDir   string        `json:"data_dir"`
	Replay    ReplayConfig  `json:"replay"`
	Watch     bool          `json:"watch"`
	Status    StatusConfig  `json:"status"`
	Journal   string        `json:"journal"`
	Stats     StatsConfig   `json:"stats"`
	Log       LogConfig     `json:"log"`
}

// ReplayConfig controls the shadow server connection and replay bounding.
type ReplayConfig struct {
	ConnectTimeout time.Duration `json:"connect_timeout"`
	ReadTimeout    time.Duration `json:"read_timeout"`
	MaxConcurrent  int           `json:"max_concurrent"` // 0 = unbounded
	Rate           float64       `json:"rate"`           // replays per second, 0 = unpaced
	Burst          int           `json:"burst"`
	ReadBuffer     int           `json:"read_buffer"`
}

// StatusConfig holds the optional status server settings.
type StatusConfig struct {
	Addr string `json:"addr"` // empty = disabled
}

// StatsConfig selects the counter backend.
type StatsConfig struct {
	Backend string      `json:"backend"`
	Redis   RedisConfig `json:"redis"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Host        string        `json:"host"`
	Port        int           `json:"port"`
	Password    string        `json:"password"`
	DB          int           `json:"db"`
	DialTimeout time.Duration `json:"dial_timeout"`
	Prefix      string        `json:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Default returns a Config with the stock defaults. Listen and Forward are
// left empty and must be supplied.
func Default() Config {
	return Config{
		Timeout:  10 * time.Second,
		Interval: time.Second,
		DataDir:  ".",
		Replay: ReplayConfig{
			ConnectTimeout: 2 * time.Second,
			ReadTimeout:    5 * time.Second,
			Burst:          1,
			ReadBuffer:     1024,
		},
		Stats: StatsConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Host:        "localhost",
				Port:        6379,
				DialTimeout: 5 * time.Second,
				Prefix:      "httpcopy:",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if _, err := c.ListenEndpoint(); err != nil {
		return fmt.Errorf("invalid listen address: %w", err)
	}
	if c.Forward == "" {
		return fmt.Errorf("forward address is required")
	}
	if _, err := c.ForwardAddr(); err != nil {
		return fmt.Errorf("invalid forward address: %w", err)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Interval < 0 {
		return fmt.Errorf("interval must not be negative, got %s", c.Interval)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Replay.ConnectTimeout <= 0 {
		return fmt.Errorf("replay.connect_timeout must be positive, got %s", c.Replay.ConnectTimeout)
	}
	if c.Replay.ReadTimeout <= 0 {
		return fmt.Errorf("replay.read_timeout must be positive, got %s", c.Replay.ReadTimeout)
	}
	if c.Replay.MaxConcurrent < 0 {
		return fmt.Errorf("replay.max_concurrent must not be negative, got %d", c.Replay.MaxConcurrent)
	}
	if c.Replay.Rate < 0 {
		return fmt.Errorf("replay.rate must not be negative, got %g", c.Replay.Rate)
	}
	if c.Replay.Rate > 0 && c.Replay.Burst < 1 {
		return fmt.Errorf("replay.burst must be at least 1 when rate is set, got %d", c.Replay.Burst)
	}
	if c.Replay.ReadBuffer <= 0 {
		return fmt.Errorf("replay.read_buffer must be positive, got %d", c.Replay.ReadBuffer)
	}
	switch c.Stats.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Stats.Redis.Host == "" {
			return fmt.Errorf("stats.redis.host is required for the redis backend")
		}
		if c.Stats.Redis.Port <= 0 || c.Stats.Redis.Port > 65535 {
			return fmt.Errorf("stats.redis.port must be between 1 and 65535, got %d", c.Stats.Redis.Port)
		}
	default:
		return fmt.Errorf("unknown stats backend %q, must be one of: memory, redis", c.Stats.Backend)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log.level: %w", err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log.format %q, must be one of: text, json", c.Log.Format)
	}
	return nil
}

// ListenEndpoint parses Listen into the endpoint matched against file names.
func (c Config) ListenEndpoint() (capture.Endpoint, error) {
	return capture.ParseEndpoint(c.Listen, DefaultPort)
}

// ForwardAddr returns the shadow server as host:port.
func (c Config) ForwardAddr() (string, error) {
	host, port := c.Forward, strconv.Itoa(DefaultPort)
	if h, p, err := net.SplitHostPort(c.Forward); err == nil {
		host, port = h, p
	}
	if host == "" {
		return "", fmt.Errorf("missing host in %q", c.Forward)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return "", fmt.Errorf("invalid port in %q", c.Forward)
	}
	return net.JoinHostPort(host, port), nil
}

// LoadFile reads a JSON config file and merges it over base.
// Fields not specified in the file keep their value from base.
func LoadFile(path string, base Config) (Config, error) {
	cfg := base

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config file: %w", err)
	}

	// Use a raw intermediate struct to handle duration parsing.
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return cfg, fmt.Errorf("parsing config file: %w", err)
	}

	setString(&cfg.Listen, raw.Listen)
	setString(&cfg.Forward, raw.Forward)
	if raw.URLPrefix != nil {
		cfg.URLPrefix = *raw.URLPrefix
	}
	setString(&cfg.DataDir, raw.DataDir)
	setString(&cfg.Journal, raw.Journal)
	setString(&cfg.Status.Addr, raw.Status.Addr)
	if raw.Watch != nil {
		cfg.Watch = *raw.Watch
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"timeout", raw.Timeout, &cfg.Timeout},
		{"interval", raw.Interval, &cfg.Interval},
		{"replay.connect_timeout", raw.Replay.ConnectTimeout, &cfg.Replay.ConnectTimeout},
		{"replay.read_timeout", raw.Replay.ReadTimeout, &cfg.Replay.ReadTimeout},
		{"stats.redis.dial_timeout", raw.Stats.Redis.DialTimeout, &cfg.Stats.Redis.DialTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return cfg, fmt.Errorf("parsing %s: %w", d.name, err)
		}
		*d.dst = v
	}

	if raw.Replay.MaxConcurrent != nil {
		cfg.Replay.MaxConcurrent = *raw.Replay.MaxConcurrent
	}
	if raw.Replay.Rate != nil {
		cfg.Replay.Rate = *raw.Replay.Rate
	}
	if raw.Replay.Burst > 0 {
		cfg.Replay.Burst = raw.Replay.Burst
	}
	if raw.Replay.ReadBuffer > 0 {
		cfg.Replay.ReadBuffer = raw.Replay.ReadBuffer
	}

	setString(&cfg.Stats.Backend, raw.Stats.Backend)
	setString(&cfg.Stats.Redis.Host, raw.Stats.Redis.Host)
	if raw.Stats.Redis.Port > 0 {
		cfg.Stats.Redis.Port = raw.Stats.Redis.Port
	}
	setString(&cfg.Stats.Redis.Password, raw.Stats.Redis.Password)
	if raw.Stats.Redis.DB > 0 {
		cfg.Stats.Redis.DB = raw.Stats.Redis.DB
	}
	setString(&cfg.Stats.Redis.Prefix, raw.Stats.Redis.Prefix)

	setString(&cfg.Log.Level, raw.Log.Level)
	setString(&cfg.Log.Format, raw.Log.Format)

	return cfg, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// rawConfig is the JSON-friendly representation with string durations.
// Pointers mark fields whose zero value is meaningful.
type rawConfig struct {
	Listen    string  `json:"listen"`
	Forward   string  `json:"forward"`
	URLPrefix *string `json:"url_prefix"`
	Timeout   string  `json:"timeout"`
	Interval  string  `json:"interval"`
	DataDir   string  `json:"data_dir"`
	Replay    struct {
		ConnectTimeout string   `json:"connect_timeout"`
		ReadTimeout    string   `json:"read_timeout"`
		MaxConcurrent  *int     `json:"max_concurrent"`
		Rate           *float64 `json:"rate"`
		Burst          int      `json:"burst"`
		ReadBuffer     int      `json:"read_buffer"`
	} `json:"replay"`
	Watch  *bool `json:"watch"`
	Status struct {
		Addr string `json:"addr"`
	} `json:"status"`
	Journal string `json:"journal"`
	Stats   struct {
		Backend string `json:"backend"`
		Redis   struct {
			Host        string `json:"host"`
			Port        int    `json:"port"`
			Password    string `json:"password"`
			DB          int    `json:"db"`
			DialTimeout string `json:"dial_timeout"`
			Prefix      string `json:"prefix"`
		} `json:"redis"`
	} `json:"stats"`
	Log struct {
		Level  string `json:"level"`
		Format string `json:"format"`
	} `json:"log"`
}

// WriteExample writes an example config file to the given path.
func WriteExample(path string) error {
	example := `{
  "listen": "192.168.1.132:80",
  "forward": "10.0.0.5:8080",
  "url_prefix": "",
  "timeout": "10s",
  "interval": "1s",
  "data_dir": ".",
  "replay": {
    "connect_timeout": "2s",
    "read_timeout": "5s",
    "max_concurrent": 0,
    "rate": 0,
    "burst": 1,
    "read_buffer": 1024
  },
  "watch": false,
  "status": {
    "addr": ""
  },
  "journal": "",
  "stats": {
    "backend": "memory",
    "redis": {
      "host": "localhost",
      "port": 6379,
      "db": 0,
      "dial_timeout": "5s",
      "prefix": "httpcopy:"
    }
  },
  "log": {
    "level": "info",
    "format": "text"
  }
}
`
	return os.WriteFile(path, []byte(example), 0o644)
}
