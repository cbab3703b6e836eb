package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultAddr             = ":8080"
	DefaultSteps            = 1000
	DefaultIdleTimeout      = Duration(10 * time.Minute)
	DefaultSubscriberBuffer = 64
)

// Config is the server configuration. Zero values in a loaded file
// keep the defaults.
type Config struct {
	Addr             string   `yaml:"addr"`
	CatalogPath      string   `yaml:"catalog"`
	DefaultSteps     int      `yaml:"default_steps"`
	IdleTimeout      Duration `yaml:"idle_timeout"`
	SubscriberBuffer int      `yaml:"subscriber_buffer"`
	LogLevel         string   `yaml:"log_level"`
}

func Default() *Config {
	return &Config{
		Addr:             DefaultAddr,
		DefaultSteps:     DefaultSteps,
		IdleTimeout:      DefaultIdleTimeout,
		SubscriberBuffer: DefaultSubscriberBuffer,
		LogLevel:         "info",
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Duration marshals as a Go duration string ("10m", "1h30m").
type Duration time.Duration

func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}
