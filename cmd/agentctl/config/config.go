// Package config loads the agentctl configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBackendURL = "http://localhost:8000"
	DefaultRPCURL     = "https://fullnode.testnet.sui.io:443"
	DefaultTimeout    = 30 * time.Second
)

type Config struct {
	BackendURL   string  `yaml:"backend_url"`
	APIKey       string  `yaml:"api_key,omitempty"`
	RPCURL       string  `yaml:"rpc_url"`
	RPCRate      float64 `yaml:"rpc_rate,omitempty"`
	KeystoreKey  string  `yaml:"keystore_key,omitempty"`
	OutputFormat string  `yaml:"output"`
	Timeout      string  `yaml:"timeout,omitempty"`
}

func Default() *Config {
	return &Config{
		BackendURL:   DefaultBackendURL,
		RPCURL:       DefaultRPCURL,
		OutputFormat: "table",
	}
}

// DefaultPath is ~/.agenthub/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".agenthub", "config.yaml")
	}
	return filepath.Join(home, ".agenthub", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if _, err := cfg.RequestTimeout(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration, creating its directory.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

func (c *Config) RequestTimeout() (time.Duration, error) {
	if c.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
