package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type testConfig struct {
	Name   string `yaml:"name"`
	APIKey string `yaml:"api_key"`
	Port   int    `yaml:"port"`
}

type validatedConfig struct {
	Port int `yaml:"port"`
}

func (c *validatedConfig) Validate() error {
	if c.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadExpandsEnv(t *testing.T) {
	t.Setenv("TEST_CONFIG_SECRET", "s3cret")
	path := writeFile(t, "app.yaml", "name: demo\napi_key: ${TEST_CONFIG_SECRET}\nport: 9090\n")

	var cfg testConfig
	if err := Load(path, &cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "s3cret" {
		t.Errorf("api_key = %q, env reference not expanded", cfg.APIKey)
	}
	if cfg.Name != "demo" || cfg.Port != 9090 {
		t.Errorf("cfg = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	var cfg testConfig
	if err := Load(filepath.Join(t.TempDir(), "nope.yaml"), &cfg); err == nil {
		t.Error("missing file accepted")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeFile(t, "bad.yaml", "name: [unterminated")
	var cfg testConfig
	if err := Load(path, &cfg); err == nil {
		t.Error("invalid yaml accepted")
	}
}

func TestLoadRunsValidator(t *testing.T) {
	path := writeFile(t, "app.yaml", "port: 0\n")
	var cfg validatedConfig
	if err := Load(path, &cfg); err == nil {
		t.Error("validation failure not surfaced")
	}

	path = writeFile(t, "ok.yaml", "port: 8080\n")
	if err := Load(path, &cfg); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoadWithDefaults(t *testing.T) {
	fallback := writeFile(t, "default.yaml", "name: fallback\n")

	var cfg testConfig
	err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), fallback, &cfg)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("name = %q, default file not used", cfg.Name)
	}

	if err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"), "", &cfg); err == nil {
		t.Error("missing file with no default accepted")
	}
}
