package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cfg := New()

	if cfg.Devtools.Port != DefaultPort {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, DefaultPort)
	}
	if cfg.Devtools.Host != DefaultHost {
		t.Errorf("Devtools.Host = %q, want %q", cfg.Devtools.Host, DefaultHost)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q, want %q", cfg.Metrics.Namespace, DefaultNamespace)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()

	// Test loading non-existent config
	_, err := Load(tmpDir)
	if err == nil {
		t.Error("Expected error for missing config")
	} else if !strings.Contains(err.Error(), "E141") {
		t.Errorf("Expected E141 error, got: %v", err)
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	configJSON := `{
  "name": "shop",
  "devtools": {
    "port": 8080,
    "host": "0.0.0.0"
  },
  "log": {
    "level": "debug"
  },
  "tracing": {
    "enabled": true
  },
  "stores": [
    {"name": "cart", "state": "state/cart.yaml"},
    {"name": "user"}
  ]
}
`
	if err := os.WriteFile(configPath, []byte(configJSON), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}

	if cfg.Name != "shop" {
		t.Errorf("Name = %q, want shop", cfg.Name)
	}
	if cfg.Devtools.Port != 8080 {
		t.Errorf("Devtools.Port = %d, want %d", cfg.Devtools.Port, 8080)
	}
	if cfg.Devtools.Host != "0.0.0.0" {
		t.Errorf("Devtools.Host = %q, want %q", cfg.Devtools.Host, "0.0.0.0")
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if !cfg.Tracing.Enabled || cfg.Tracing.Name != DefaultTracerName {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if len(cfg.Stores) != 2 {
		t.Fatalf("Stores len = %d, want 2", len(cfg.Stores))
	}
	if got := cfg.StatePath(cfg.Stores[0]); got != filepath.Join(tmpDir, "state", "cart.yaml") {
		t.Errorf("StatePath = %q", got)
	}
	if got := cfg.StatePath(cfg.Stores[1]); got != "" {
		t.Errorf("StatePath without state = %q, want empty", got)
	}
}

func TestLoadFile_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	if err := os.WriteFile(configPath, []byte("not valid json"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := LoadFile(configPath)
	if err == nil {
		t.Fatal("Expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "E120") {
		t.Errorf("Expected E120 error, got: %v", err)
	}
}

func TestSave(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, ConfigFileName)

	cfg := New()
	cfg.Devtools.Port = 9000
	cfg.Name = "saved"

	// Save should fail without configPath set
	if err := cfg.Save(); err == nil {
		t.Error("Expected error when saving without path")
	}

	if err := cfg.SaveTo(configPath); err != nil {
		t.Fatalf("SaveTo error: %v", err)
	}

	loaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if loaded.Devtools.Port != 9000 {
		t.Errorf("Devtools.Port = %d, want %d", loaded.Devtools.Port, 9000)
	}
	if loaded.Name != "saved" {
		t.Errorf("Name = %q, want saved", loaded.Name)
	}

	loaded.Devtools.Port = 9001
	if err := loaded.Save(); err != nil {
		t.Fatalf("Save error: %v", err)
	}

	reloaded, err := LoadFile(configPath)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if reloaded.Devtools.Port != 9001 {
		t.Errorf("Devtools.Port = %d, want %d", reloaded.Devtools.Port, 9001)
	}
	if reloaded.Dir() != tmpDir {
		t.Errorf("Dir() = %q, want %q", reloaded.Dir(), tmpDir)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(*Config) {}, true},
		{"negative port", func(c *Config) { c.Devtools.Port = -1 }, false},
		{"port too large", func(c *Config) { c.Devtools.Port = 70000 }, false},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, false},
		{"warning level", func(c *Config) { c.Log.Level = "WARNING" }, true},
		{"bad format", func(c *Config) { c.Log.Format = "xml" }, false},
		{"unnamed store", func(c *Config) { c.Stores = []StoreConfig{{State: "x.json"}} }, false},
		{"duplicate store", func(c *Config) { c.Stores = []StoreConfig{{Name: "a"}, {Name: "a"}} }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := New()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate() error = %v", err)
			}
			if !tt.ok {
				if err == nil {
					t.Fatal("Validate() should fail")
				}
				if !strings.Contains(err.Error(), "E122") {
					t.Errorf("Expected E122 error, got: %v", err)
				}
			}
		})
	}
}

func TestDevtoolsAddress(t *testing.T) {
	cfg := New()
	cfg.Devtools.Port = 8080
	cfg.Devtools.Host = "0.0.0.0"

	if addr := cfg.DevtoolsAddress(); addr != "0.0.0.0:8080" {
		t.Errorf("DevtoolsAddress = %q, want %q", addr, "0.0.0.0:8080")
	}
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer

	cfg := New()
	cfg.Log.Format = "json"
	logger := cfg.Logger(&buf)

	logger.Debug("hidden")
	logger.Info("shown", "k", "v")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug record written at info level: %s", out)
	}
	if !strings.Contains(out, `"msg":"shown"`) || !strings.Contains(out, `"k":"v"`) {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestExists(t *testing.T) {
	tmpDir := t.TempDir()

	if Exists(tmpDir) {
		t.Error("Exists should be false for empty directory")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	if !Exists(tmpDir) {
		t.Error("Exists should be true after creating config")
	}
}

func TestFindProjectRoot(t *testing.T) {
	tmpDir := t.TempDir()
	nestedDir := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nestedDir, 0755); err != nil {
		t.Fatal(err)
	}

	// Should fail when no config exists
	if _, err := FindProjectRoot(nestedDir); err == nil {
		t.Error("FindProjectRoot should fail when no config exists")
	}

	configPath := filepath.Join(tmpDir, ConfigFileName)
	if err := os.WriteFile(configPath, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	root, err := FindProjectRoot(nestedDir)
	if err != nil {
		t.Fatalf("FindProjectRoot error: %v", err)
	}
	if root != tmpDir {
		t.Errorf("FindProjectRoot = %q, want %q", root, tmpDir)
	}
}

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	if cfg.Devtools.Port != DefaultPort || cfg.Devtools.Host != DefaultHost {
		t.Errorf("Devtools = %+v", cfg.Devtools)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Metrics.Namespace != DefaultNamespace {
		t.Errorf("Metrics.Namespace = %q", cfg.Metrics.Namespace)
	}
	if cfg.Tracing.Name != DefaultTracerName {
		t.Errorf("Tracing.Name = %q", cfg.Tracing.Name)
	}
}
