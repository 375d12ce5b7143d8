package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type testConfig struct {
	ServiceConfig `yaml:",inline" mapstructure:",squash"`
	Stream        struct {
		Heartbeat time.Duration `mapstructure:"heartbeat"`
		AsJSON    bool          `mapstructure:"as_json"`
	} `mapstructure:"stream"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to development", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "development" {
			t.Errorf("expected 'development', got %q", cfg.Environment)
		}
		if !cfg.Debug {
			t.Error("expected debug=true for development")
		}
		if cfg.Logging.ServiceName != "svc" {
			t.Errorf("expected logging service name propagated, got %q", cfg.Logging.ServiceName)
		}
	})

	t.Run("production environment keeps debug false", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Environment: "production"}
		cfg.ApplyDefaults()
		if cfg.Debug {
			t.Error("expected debug=false for production")
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "staging"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "moon"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.Logging.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: evtsrc
environment: staging
stream:
  heartbeat: 2s
  as_json: true
`)

	var cfg testConfig
	if err := LoadConfig("evtsrc", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "evtsrc" {
		t.Errorf("expected name 'evtsrc', got %q", cfg.Name)
	}
	if cfg.Stream.Heartbeat != 2*time.Second {
		t.Errorf("expected 2s heartbeat, got %v", cfg.Stream.Heartbeat)
	}
	if !cfg.Stream.AsJSON {
		t.Error("expected as_json=true")
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: evtsrc\nstream:\n  heartbeat: 1s\n")
	t.Setenv(EnvKey("stream.heartbeat"), "5s")

	var cfg testConfig
	if err := LoadConfig("evtsrc", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Stream.Heartbeat != 5*time.Second {
		t.Errorf("expected env override 5s, got %v", cfg.Stream.Heartbeat)
	}
}

func TestLoadConfigDefaultsWithEnvOverride(t *testing.T) {
	t.Setenv(EnvKey("stream.as_json"), "true")

	var cfg testConfig
	err := LoadConfig("missing-service", &cfg,
		WithConfigFile("/nonexistent/path.yml"),
		WithEnvFile("/nonexistent/.env"),
		WithDefaults(map[string]any{"name": "fallback", "stream.as_json": false}),
	)
	if err != nil {
		t.Fatalf("expected LoadConfig to succeed with missing file, got %v", err)
	}
	if cfg.Name != "fallback" {
		t.Errorf("expected default name, got %q", cfg.Name)
	}
	if !cfg.Stream.AsJSON {
		t.Error("expected env to override default as_json")
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "config.yml", "name: evtsrc\n")
	envPath := writeFile(t, dir, ".env", "EVTSRC_NAME=from-dotenv\n")
	defer os.Unsetenv("EVTSRC_NAME")

	var cfg testConfig
	if err := LoadConfig("evtsrc", &cfg, WithConfigFile(cfgPath), WithEnvFile(envPath)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Name != "from-dotenv" {
		t.Errorf("expected name from .env, got %q", cfg.Name)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool   { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/evtsrc/config.yml": true,
		"./config/.env":           true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("evtsrc", LoaderConfig{})
	if files.ConfigFile != "./cmd/evtsrc/config.yml" {
		t.Errorf("expected config file at ./cmd/evtsrc/config.yml, got %q", files.ConfigFile)
	}
	if files.EnvFile != "./config/.env" {
		t.Errorf("expected env file at ./config/.env, got %q", files.EnvFile)
	}
}

func TestResolverExplicitPathsWin(t *testing.T) {
	resolver := &Resolver{FileSystem: &mockFS{files: map[string]bool{"./config.yml": true}}}
	files := resolver.ResolveFiles("evtsrc", LoaderConfig{ConfigFile: "/etc/evtsrc.yml"})
	if files.ConfigFile != "/etc/evtsrc.yml" {
		t.Errorf("expected explicit path, got %q", files.ConfigFile)
	}
}

func TestEnvKey(t *testing.T) {
	if got := EnvKey("producer.eos_marker.data"); got != "EVTSRC_PRODUCER_EOS_MARKER_DATA" {
		t.Errorf("unexpected env key %q", got)
	}
}
