package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.BlockTTLMinutes != 60 {
		t.Errorf("default block TTL = %d, want 60", cfg.BlockTTLMinutes)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "http://localhost:8000" {
		t.Errorf("APIBase = %q, want default", cfg.APIBase)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".huntctl.yml")
	data := "api_base: https://soc.example.com\ntimeout_seconds: 5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HUNTCTL_BLOCK_TTL_MINUTES", "15")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIBase != "https://soc.example.com" {
		t.Errorf("APIBase = %q", cfg.APIBase)
	}
	if cfg.TimeoutSeconds != 5 {
		t.Errorf("TimeoutSeconds = %d, want 5", cfg.TimeoutSeconds)
	}
	if cfg.BlockTTLMinutes != 15 {
		t.Errorf("BlockTTLMinutes = %d, want 15 (env override)", cfg.BlockTTLMinutes)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty api_base", func(c *Config) { c.APIBase = "" }},
		{"non-http api_base", func(c *Config) { c.APIBase = "ftp://x" }},
		{"negative timeout", func(c *Config) { c.TimeoutSeconds = -1 }},
		{"zero ttl", func(c *Config) { c.BlockTTLMinutes = 0 }},
		{"bad port", func(c *Config) { c.DashboardPort = 70000 }},
		{"empty data_dir", func(c *Config) { c.DataDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".huntctl.yml")

	cfg := DefaultConfig()
	cfg.APIBase = "https://api.internal:8443"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.APIBase != cfg.APIBase {
		t.Errorf("APIBase = %q, want %q", loaded.APIBase, cfg.APIBase)
	}
}
