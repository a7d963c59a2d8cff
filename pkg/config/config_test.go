package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_ConfigFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "DEBUG"
  format: "json"

lifecycle:
  teardown_timeout: 30s

api:
  port: 9000
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected log level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Expected log format 'json', got %q", cfg.Logging.Format)
	}
	if cfg.Lifecycle.TeardownTimeout != 30*time.Second {
		t.Errorf("Expected teardown_timeout 30s, got %v", cfg.Lifecycle.TeardownTimeout)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("Expected API port 9000, got %d", cfg.API.Port)
	}

	// Unspecified fields get defaults
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected default output 'stdout', got %q", cfg.Logging.Output)
	}
	if cfg.Metrics.Server.Port != DefaultMetricsPort {
		t.Errorf("Expected default metrics port %d, got %d", DefaultMetricsPort, cfg.Metrics.Server.Port)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	// Loading with no config file returns a valid default config.
	tmpDir := t.TempDir()
	nonExistentPath := filepath.Join(tmpDir, "nonexistent.yaml")

	cfg, err := Load(nonExistentPath)
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg == nil {
		t.Fatal("Expected default config to be returned")
	}
	if cfg.API.Port != DefaultAPIPort {
		t.Errorf("Expected default API port %d, got %d", DefaultAPIPort, cfg.API.Port)
	}
	if cfg.Lifecycle.TeardownTimeout != DefaultTeardownTimeout {
		t.Errorf("Expected default teardown timeout %v, got %v", DefaultTeardownTimeout, cfg.Lifecycle.TeardownTimeout)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "invalid.yaml")

	configContent := `
logging:
  level: INFO
  invalid yaml here [[[
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "VERBOSE"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	_, err := Load(configPath)
	if err == nil {
		t.Fatal("Expected validation error for invalid log level, got nil")
	}
	if !strings.Contains(err.Error(), "validation") {
		t.Errorf("Expected validation error, got: %v", err)
	}
}

func TestLoad_EnvironmentOverride(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "INFO"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Setenv("LIFELINE_LOGGING_LEVEL", "ERROR")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected env var to override log level with 'ERROR', got %q", cfg.Logging.Level)
	}
}

func TestLoad_NegativeTeardownTimeout(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	// A negative timeout disables the teardown bound and must survive loading.
	configContent := `
lifecycle:
  teardown_timeout: -1ns
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Lifecycle.TeardownTimeout >= 0 {
		t.Errorf("Expected negative teardown timeout to be preserved, got %v", cfg.Lifecycle.TeardownTimeout)
	}
}

func TestMustLoad_MissingExplicitFile(t *testing.T) {
	tmpDir := t.TempDir()
	missingPath := filepath.Join(tmpDir, "missing.yaml")

	_, err := MustLoad(missingPath)
	if err == nil {
		t.Fatal("Expected error for missing explicit config file, got nil")
	}
	if !strings.Contains(err.Error(), "lifeline init") {
		t.Errorf("Expected error to mention 'lifeline init', got: %v", err)
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "sub", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Logging.Level = "WARN"
	cfg.Lifecycle.TeardownTimeout = 42 * time.Second

	if err := SaveConfig(cfg, configPath); err != nil {
		t.Fatalf("Failed to save config: %v", err)
	}

	loaded, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to reload saved config: %v", err)
	}
	if loaded.Logging.Level != "WARN" {
		t.Errorf("Expected reloaded level 'WARN', got %q", loaded.Logging.Level)
	}
	if loaded.Lifecycle.TeardownTimeout != 42*time.Second {
		t.Errorf("Expected reloaded teardown timeout 42s, got %v", loaded.Lifecycle.TeardownTimeout)
	}
}

func TestInitConfigToPath_RefusesOverwrite(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	if err := InitConfigToPath(configPath, false); err != nil {
		t.Fatalf("Failed to create initial config: %v", err)
	}

	if err := InitConfigToPath(configPath, false); err == nil {
		t.Fatal("Expected error when config already exists without force")
	}

	if err := InitConfigToPath(configPath, true); err != nil {
		t.Errorf("Expected force overwrite to succeed, got: %v", err)
	}
}

func TestAPIConfig_IsEnabled(t *testing.T) {
	var cfg APIConfig
	if !cfg.IsEnabled() {
		t.Error("Expected API to be enabled by default")
	}

	disabled := false
	cfg.Enabled = &disabled
	if cfg.IsEnabled() {
		t.Error("Expected API to be disabled when explicitly set to false")
	}

	enabled := true
	cfg.Enabled = &enabled
	if !cfg.IsEnabled() {
		t.Error("Expected API to be enabled when explicitly set to true")
	}
}
