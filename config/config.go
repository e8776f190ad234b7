// Package config holds the playground configuration file.
package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Engine names.
const (
	EngineWasm       = "wasm"
	EngineJavaScript = "javascript"
)

// Defaults.
const (
	DefaultEngine  = EngineWasm
	DefaultEntry   = "RUN_SOURCE"
	DefaultTimeout = 30 * time.Second
	DefaultMemory  = "256MB"
	DefaultBaseURL = "http://localhost:8080/"
	DefaultListen  = "localhost:8080"
	DefaultLevel   = "info"
)

// FileName is looked up in the working directory when no --config is given.
const FileName = "cwsplay.yaml"

// Config is the playground configuration.
type Config struct {
	// Engine is wasm or javascript.
	Engine string `yaml:"engine"`
	// Module is the interpreter wasm file.
	Module string `yaml:"module"`
	// Entry is the export a reactor module runs source through.
	Entry string `yaml:"entry"`
	// Timeout bounds one run. Zero disables it.
	Timeout time.Duration `yaml:"timeout"`
	// Memory limits the interpreter, e.g. 64MB or 1GB.
	Memory   string `yaml:"memory"`
	CacheDir string `yaml:"cache_dir"`
	NoCache  bool   `yaml:"no_cache"`
	// BaseURL is the page address share links are built on.
	BaseURL  string `yaml:"base_url"`
	Listen   string `yaml:"listen"`
	LogLevel string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Engine:   DefaultEngine,
		Entry:    DefaultEntry,
		Timeout:  DefaultTimeout,
		Memory:   DefaultMemory,
		BaseURL:  DefaultBaseURL,
		Listen:   DefaultListen,
		LogLevel: DefaultLevel,
	}
}

// Load reads the YAML file at path. A missing file yields the defaults; a
// file that exists but cannot be parsed is an error. Fields the file leaves
// out keep their defaults, and a relative module path is resolved against
// the file's directory.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg.fillDefaults()
	cfg.Module = ResolvePath(cfg.Module, filepath.Dir(path))
	cfg.CacheDir = ResolvePath(cfg.CacheDir, filepath.Dir(path))
	return cfg, cfg.Validate()
}

func (c *Config) fillDefaults() {
	d := Default()
	if c.Engine == "" {
		c.Engine = d.Engine
	}
	if c.Entry == "" {
		c.Entry = d.Entry
	}
	if c.Memory == "" {
		c.Memory = d.Memory
	}
	if c.BaseURL == "" {
		c.BaseURL = d.BaseURL
	}
	if c.Listen == "" {
		c.Listen = d.Listen
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	var errs []error
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %v", c.Timeout))
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if _, err := ParseMemory(c.Memory); err != nil {
		errs = append(errs, fmt.Errorf("memory: %w", err))
	}
	return errors.Join(errs...)
}

// ResolvePath resolves a path relative to baseDir if not absolute.
// Returns path unchanged if empty or already absolute.
func ResolvePath(path, baseDir string) string {
	if path == "" || baseDir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

// ParseMemory converts a size like "64MB" or "1GB" into bytes.
func ParseMemory(raw string) (uint64, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	var multiplier uint64 = 1
	switch {
	case strings.HasSuffix(s, "GB"):
		multiplier = 1024 * 1024 * 1024
		s = strings.TrimSuffix(s, "GB")
	case strings.HasSuffix(s, "MB"):
		multiplier = 1024 * 1024
		s = strings.TrimSuffix(s, "MB")
	case strings.HasSuffix(s, "KB"):
		multiplier = 1024
		s = strings.TrimSuffix(s, "KB")
	}

	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid memory size %q (use e.g. 64MB, 1GB)", raw)
	}
	if n > math.MaxUint64/multiplier {
		return 0, fmt.Errorf("memory size %q is too large", raw)
	}
	return n * multiplier, nil
}

// NewLogger returns a text logger writing to w at the configured level.
func (c Config) NewLogger(w io.Writer) (*logrus.Logger, error) {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return nil, err
	}
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors: true,
		FullTimestamp: true,
	})
	return l, nil
}
