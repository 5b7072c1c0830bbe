// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the config file when no path is passed on the command line.
const EnvConfigPath = "FOODSCAN_CONFIG"

// Loader builds an AppConfig from defaults, an optional YAML file and the environment.
type Loader struct {
	configPath string
	version    string

	lookup     func(string) (string, bool)
	environ    func() []string
	currentKey string
}

// NewLoader creates a loader reading configPath (may be empty) and the process environment.
func NewLoader(configPath, version string) *Loader {
	if configPath == "" {
		configPath = os.Getenv(EnvConfigPath)
	}
	return &Loader{
		configPath: configPath,
		version:    version,
		lookup:     os.LookupEnv,
		environ:    os.Environ,
	}
}

// WithEnv replaces the environment source. Used by tests.
func (l *Loader) WithEnv(env map[string]string) *Loader {
	l.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
	l.environ = func() []string {
		out := make([]string, 0, len(env))
		for k, v := range env {
			out = append(out, k+"="+v)
		}
		return out
	}
	return l
}

// Path returns the config file path, empty when running from ENV only.
func (l *Loader) Path() string { return l.configPath }

func (l *Loader) envLookup(key string) (string, bool) {
	return l.lookup(key)
}

// Load loads configuration with precedence: ENV > File > Defaults.
// Order: defaults -> strict file parse -> env -> normalise -> validate.
func (l *Loader) Load() (AppConfig, error) {
	cfg := Defaults()

	if l.configPath != "" {
		if err := l.loadFile(l.configPath, &cfg); err != nil {
			return cfg, fmt.Errorf("load config file: %w", err)
		}
	}

	l.mergeEnvConfig(&cfg)

	if abs, err := filepath.Abs(cfg.DataDir); err == nil {
		cfg.DataDir = abs
	}
	if cfg.Taxonomy.Path == "" && !cfg.Taxonomy.InMemory {
		cfg.Taxonomy.Path = filepath.Join(cfg.DataDir, "taxonomy")
	}
	if cfg.API.UserAgent == "" {
		cfg.API.UserAgent = userAgent(l.version)
	}
	cfg.Version = l.version

	if err := Validate(&cfg); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func userAgent(version string) string {
	if version == "" {
		version = "dev"
	}
	return "foodscan/" + version
}

// loadFile decodes a YAML file onto cfg with STRICT parsing: unknown fields
// and multiple documents are rejected. Fields absent from the file keep
// their current value.
func (l *Loader) loadFile(path string, cfg *AppConfig) error {
	path = filepath.Clean(path)

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("unsupported config format: %s (only YAML supported)", ext)
	}

	// #nosec G304 -- configuration file paths are provided by the operator via CLI/ENV
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	return decodeStrict(data, cfg)
}

func decodeStrict(data []byte, cfg *AppConfig) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		if isYAMLUnknownFieldError(err) {
			return fmt.Errorf("%w: %v", ErrUnknownConfigField, err)
		}
		return fmt.Errorf("strict config parse error: %w", err)
	}

	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return ErrMultipleDocuments
	}
	return nil
}

func isYAMLUnknownFieldError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "field") && strings.Contains(msg, "not found")
}
