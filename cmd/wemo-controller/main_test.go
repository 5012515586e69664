package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// TestRun_MalformedConfig verifies run fails when the config file
// cannot be parsed.
func TestRun_MalformedConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("api: [not a mapping"), 0o600); err != nil {
		t.Fatal(err)
	}

	originalEnv := os.Getenv("WEMOCTL_CONFIG")
	defer os.Setenv("WEMOCTL_CONFIG", originalEnv)
	os.Setenv("WEMOCTL_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with malformed config")
	}
}

// TestRun_InvalidConfig verifies run fails when validation rejects the config.
func TestRun_InvalidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	configContent := `
api:
  port: 99999
`
	if err := os.WriteFile(configPath, []byte(configContent), 0o600); err != nil {
		t.Fatal(err)
	}

	originalEnv := os.Getenv("WEMOCTL_CONFIG")
	defer os.Setenv("WEMOCTL_CONFIG", originalEnv)
	os.Setenv("WEMOCTL_CONFIG", configPath)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx); err == nil {
		t.Fatal("run() should fail with an out-of-range port")
	}
}

func TestGetConfigPath(t *testing.T) {
	originalEnv := os.Getenv("WEMOCTL_CONFIG")
	defer os.Setenv("WEMOCTL_CONFIG", originalEnv)

	os.Unsetenv("WEMOCTL_CONFIG")
	if got := getConfigPath(); got != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want default", got)
	}

	os.Setenv("WEMOCTL_CONFIG", "/etc/wemoctl.yaml")
	if got := getConfigPath(); got != "/etc/wemoctl.yaml" {
		t.Errorf("getConfigPath() = %q", got)
	}
}
