package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// isolate points XDG_CONFIG_HOME at a temp dir so no real config is read.
func isolate(t *testing.T) string {
	t.Helper()
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, kv := range os.Environ() {
		name, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(name, EnvPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return filepath.Join(xdg, appDirName)
}

func TestLoad_Defaults(t *testing.T) {
	dir := isolate(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "http://localhost:4000" {
		t.Errorf("Expected default API URL, got %s", cfg.APIURL)
	}
	if cfg.RequestTimeout != 20*time.Second {
		t.Errorf("Expected 20s request timeout, got %s", cfg.RequestTimeout)
	}
	if cfg.ProfileTimeout != 8*time.Second {
		t.Errorf("Expected 8s profile timeout, got %s", cfg.ProfileTimeout)
	}
	if !cfg.SendLegacyTokenHeader {
		t.Error("Expected legacy token header to default on")
	}
	if cfg.ConfigDir != dir {
		t.Errorf("Expected config dir %s, got %s", dir, cfg.ConfigDir)
	}
	if cfg.TokenFile != filepath.Join(dir, "session.json") {
		t.Errorf("Expected token file under config dir, got %s", cfg.TokenFile)
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "apiUrl: vault.example.com:4000/\nrequestTimeout: 5s\nsendLegacyTokenHeader: false\nlogLevel: debug\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if cfg.APIURL != "http://vault.example.com:4000" {
		t.Errorf("Expected scheme added and slash trimmed, got %s", cfg.APIURL)
	}
	if cfg.RequestTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.RequestTimeout)
	}
	if cfg.SendLegacyTokenHeader {
		t.Error("Expected legacy token header disabled by file")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("Expected debug log level, got %s", cfg.LogLevel)
	}
	if cfg.ProfileTimeout != 8*time.Second {
		t.Errorf("Expected untouched default profile timeout, got %s", cfg.ProfileTimeout)
	}
}

func TestLoad_DefaultFileInConfigDir(t *testing.T) {
	dir := isolate(t)
	if err := os.MkdirAll(dir, 0700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("apiUrl: https://vault.internal\n"), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "https://vault.internal" {
		t.Errorf("Expected URL from default config file, got %s", cfg.APIURL)
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("apiUrl: http://from-file:4000\n"), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SECUREVAULT_API_URL", "http://from-env:4000")
	t.Setenv("SECUREVAULT_PROFILE_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.APIURL != "http://from-env:4000" {
		t.Errorf("Expected env to win, got %s", cfg.APIURL)
	}
	if cfg.ProfileTimeout != 3*time.Second {
		t.Errorf("Expected 3s profile timeout, got %s", cfg.ProfileTimeout)
	}
}

func TestLoad_ConfigDirMovesTokenFile(t *testing.T) {
	isolate(t)
	custom := t.TempDir()
	t.Setenv("SECUREVAULT_CONFIG_DIR", custom)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if cfg.TokenFile != filepath.Join(custom, "session.json") {
		t.Errorf("Expected token file in %s, got %s", custom, cfg.TokenFile)
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Error("Expected error for missing explicit config file, got nil")
	}
}

func TestLoad_InvalidTimeout(t *testing.T) {
	isolate(t)
	t.Setenv("SECUREVAULT_REQUEST_TIMEOUT", "0s")

	_, err := Load("")
	if err == nil {
		t.Error("Expected error for zero timeout, got nil")
	}
}

func TestEnsureScheme(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"localhost:4000", "http://localhost:4000"},
		{"https://vault.example.com", "https://vault.example.com"},
	}
	for _, tt := range tests {
		if got := ensureScheme(tt.in); got != tt.want {
			t.Errorf("ensureScheme(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
