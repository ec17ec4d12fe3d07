package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Config is the top-level huntctl configuration, corresponding to .huntctl.yml.
type Config struct {
	APIBase         string `yaml:"api_base" koanf:"api_base"`
	TimeoutSeconds  int    `yaml:"timeout_seconds" koanf:"timeout_seconds"`
	BlockTTLMinutes int    `yaml:"block_ttl_minutes" koanf:"block_ttl_minutes"`
	DataDir         string `yaml:"data_dir" koanf:"data_dir"`
	DashboardPort   int    `yaml:"dashboard_port" koanf:"dashboard_port"`
	AllowAllOrigins bool   `yaml:"allow_all_origins" koanf:"allow_all_origins"`
}

// DefaultConfig returns the configuration used when no file or
// environment overrides are present.
func DefaultConfig() *Config {
	return &Config{
		APIBase:         "http://localhost:8000",
		TimeoutSeconds:  30,
		BlockTTLMinutes: 60,
		DataDir:         defaultDataDir(),
		DashboardPort:   7700,
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".huntctl"
	}
	return filepath.Join(home, ".huntctl")
}

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (HUNTCTL_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: HUNTCTL_API_BASE -> api_base, etc.
	if err := k.Load(env.Provider("HUNTCTL_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "HUNTCTL_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.APIBase == "" {
		return fmt.Errorf("api_base is required")
	}
	if !strings.HasPrefix(c.APIBase, "http://") && !strings.HasPrefix(c.APIBase, "https://") {
		return fmt.Errorf("api_base %q must be an http(s) URL", c.APIBase)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must be non-negative")
	}
	if c.BlockTTLMinutes <= 0 {
		return fmt.Errorf("block_ttl_minutes must be positive")
	}
	if c.DashboardPort <= 0 || c.DashboardPort > 65535 {
		return fmt.Errorf("dashboard_port %d out of range", c.DashboardPort)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}
