// Package config loads osnctl settings from YAML with environment
// substitution.
package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/obs-ipc/errors"
	"github.com/wippyai/obs-ipc/host"
	"github.com/wippyai/obs-ipc/osn"
)

// Config is the file format of osnctl.yaml.
type Config struct {
	// Name is the host name, a socket path or a ws:// URL.
	Name   string `yaml:"name"`
	Client string `yaml:"client"`

	CallTimeout      time.Duration `yaml:"call_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	LossyDepth       int           `yaml:"lossy_depth"`

	Engine EngineConfig `yaml:"engine"`
	Log    LogConfig    `yaml:"log"`
}

type EngineConfig struct {
	Locale           string        `yaml:"locale"`
	DataPath         string        `yaml:"data_path"`
	VolmeterInterval time.Duration `yaml:"volmeter_interval"`
	ModulePaths      []ModulePath  `yaml:"module_paths"`
}

// ModulePath is a plugin search location. Data may contain %module%.
type ModulePath struct {
	Bin  string `yaml:"bin"`
	Data string `yaml:"data"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Name:             "osn",
		Client:           "osnctl",
		CallTimeout:      5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		LossyDepth:       8,
		Engine: EngineConfig{
			Locale:           "en-US",
			VolmeterInterval: host.DefaultVolmeterInterval,
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadEnv loads variables from a dotenv file. A missing file is ignored.
func LoadEnv(path string) error {
	if path == "" {
		return nil
	}
	err := godotenv.Load(path)
	if stderrors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// Load reads path over the defaults. ${VAR} references are expanded from
// the environment before parsing. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv("OSN_NAME"); v != "" {
		cfg.Name = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required fields.
func (c *Config) Validate() error {
	invalid := func(field, detail string) error {
		return errors.InvalidArgument(errors.PhaseConfig, []string{"config", field}, detail)
	}
	switch {
	case c.Name == "":
		return invalid("name", "name is required")
	case c.HandshakeTimeout < 0:
		return invalid("handshake_timeout", "must not be negative")
	case c.LossyDepth < 0:
		return invalid("lossy_depth", "must not be negative")
	case c.Engine.VolmeterInterval < time.Millisecond:
		return invalid("engine.volmeter_interval", "must be at least 1ms")
	}
	for i, p := range c.Engine.ModulePaths {
		if p.Bin == "" {
			return invalid(fmt.Sprintf("engine.module_paths[%d].bin", i), "bin is required")
		}
	}
	if _, err := zap.ParseAtomicLevel(c.Log.Level); err != nil {
		return invalid("log.level", err.Error())
	}
	return nil
}

// SessionOptions maps the file onto osn.Options.
func (c *Config) SessionOptions() osn.Options {
	return osn.Options{
		Client:           c.Client,
		CallTimeout:      c.CallTimeout,
		HandshakeTimeout: c.HandshakeTimeout,
		LossyDepth:       c.LossyDepth,
		Engine:           host.Options{VolmeterInterval: c.Engine.VolmeterInterval},
	}
}

// Logger builds the process logger.
func (c *Config) Logger() (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if c.Log.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}
	zc.Level = level
	return zc.Build()
}
