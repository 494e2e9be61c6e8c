// Package config loads host configuration for the loop server from YAML
// files and LOOP_* environment variables.
package config

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Sternrassler/loop-pattern/pkg/logging"
	"github.com/Sternrassler/loop-pattern/pkg/scheduler"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the top-level host configuration.
type Config struct {
	Log           LogConfig               `mapstructure:"log" yaml:"log"`
	HTTP          HTTPConfig              `mapstructure:"http" yaml:"http"`
	Store         StoreConfig             `mapstructure:"store" yaml:"store"`
	ViewsDir      string                  `mapstructure:"views_dir" yaml:"views_dir"`
	Pattern       []string                `mapstructure:"pattern" yaml:"pattern"`
	Repetitions   int                     `mapstructure:"repetitions" yaml:"repetitions"`
	FailurePolicy string                  `mapstructure:"failure_policy" yaml:"failure_policy"`
	Streams       map[string]StreamConfig `mapstructure:"streams" yaml:"streams"`
}

// LogConfig controls logging output.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

// HTTPConfig configures the HTTP server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr" yaml:"addr"`
}

// StoreConfig selects and configures the content store.
type StoreConfig struct {
	Backend string      `mapstructure:"backend" yaml:"backend"`
	Redis   RedisConfig `mapstructure:"redis" yaml:"redis"`
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	Addr   string `mapstructure:"addr" yaml:"addr"`
	DB     int    `mapstructure:"db" yaml:"db"`
	Prefix string `mapstructure:"prefix" yaml:"prefix"`
}

// StreamConfig defines one stream.
type StreamConfig struct {
	Template string            `mapstructure:"template" yaml:"template"`
	Ordering string            `mapstructure:"ordering" yaml:"ordering"`
	PerFetch int               `mapstructure:"per_fetch" yaml:"per_fetch"`
	Query    map[string]string `mapstructure:"query" yaml:"query"`
}

// DefaultConfig returns a config with sensible defaults and no streams.
func DefaultConfig() Config {
	return Config{
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
		HTTP: HTTPConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Backend: BackendMemory,
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "loop",
			},
		},
		ViewsDir:      "views",
		Repetitions:   1,
		FailurePolicy: scheduler.SkipFailedBlock.String(),
	}
}

// Logging converts the log section to a logging.Config.
func (c Config) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.LogLevel(c.Log.Level)
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// Scheduler converts the pattern and stream sections to a scheduler.Config.
// Stream names are case-insensitive because config keys are.
func (c Config) Scheduler() (scheduler.Config, error) {
	policy, err := scheduler.ParseFailurePolicy(c.FailurePolicy)
	if err != nil {
		return scheduler.Config{}, err
	}

	streams := make(map[string]scheduler.Stream, len(c.Streams))
	for _, name := range c.StreamNames() {
		sc := c.Streams[name]
		mode, err := scheduler.ParseOrderingMode(sc.Ordering)
		if err != nil {
			return scheduler.Config{}, fmt.Errorf("stream %q: %w", name, err)
		}
		key := strings.ToLower(name)
		streams[key] = scheduler.Stream{
			Name:        key,
			TemplateRef: sc.Template,
			Ordering:    mode,
			PerFetch:    sc.PerFetch,
			Query:       sc.Query,
		}
	}

	pattern := make([]string, len(c.Pattern))
	for i, name := range c.Pattern {
		pattern[i] = strings.ToLower(strings.TrimSpace(name))
	}

	return scheduler.Config{
		Streams:            streams,
		UnitPattern:        pattern,
		RepetitionsPerPage: c.Repetitions,
		FailurePolicy:      policy,
	}, nil
}

// StreamNames returns the configured stream names in sorted order.
func (c Config) StreamNames() []string {
	names := make([]string, 0, len(c.Streams))
	for name := range c.Streams {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks host-level settings. Pattern and stream validation is done
// by scheduler.New.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			return fmt.Errorf("store.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("unsupported store.backend %q", c.Store.Backend)
	}
	if c.HTTP.Addr == "" {
		return fmt.Errorf("http.addr is required")
	}
	return nil
}
