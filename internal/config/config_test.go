package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadValidConfig(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `socket_path: /tmp/tabmux/ctl.sock
api_addr: 127.0.0.1:9090
lazy_keychain_fallback: true
reorder_on_notify: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SocketPath != "/tmp/tabmux/ctl.sock" {
		t.Errorf("SocketPath = %q, want %q", cfg.SocketPath, "/tmp/tabmux/ctl.sock")
	}
	if cfg.APIAddr != "127.0.0.1:9090" {
		t.Errorf("APIAddr = %q, want %q", cfg.APIAddr, "127.0.0.1:9090")
	}
	if !cfg.LazyKeychainFallback {
		t.Error("LazyKeychainFallback = false, want true")
	}
	if !cfg.ReorderOnNotify {
		t.Error("ReorderOnNotify = false, want true")
	}
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()
	cfg, err := Load("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}
	if cfg.SocketPath != "" {
		t.Errorf("SocketPath = %q, want empty", cfg.SocketPath)
	}
	if cfg.LazyKeychainFallback {
		t.Error("LazyKeychainFallback = true, want false")
	}
}

func TestLoadCommentsOnly(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	content := `# socket_path: /tmp/tabmux/ctl.sock
# api_addr: 127.0.0.1:9090
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SocketPath != "" {
		t.Errorf("SocketPath = %q, want empty", cfg.SocketPath)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	if err := os.WriteFile(path, []byte("socket_path: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestWithDefaults(t *testing.T) {
	t.Parallel()
	cfg := Config{SocketPath: "/custom.sock"}.WithDefaults("/support/tabmux")

	if cfg.SocketPath != "/custom.sock" {
		t.Errorf("SocketPath = %q, want explicit value kept", cfg.SocketPath)
	}
	if cfg.PasswordFile != "/support/tabmux/socket-control-password" {
		t.Errorf("PasswordFile = %q", cfg.PasswordFile)
	}
	if cfg.SettingsFile != "/support/tabmux/settings.yaml" {
		t.Errorf("SettingsFile = %q", cfg.SettingsFile)
	}
	if cfg.AuditLog != "/support/tabmux/audit.log" {
		t.Errorf("AuditLog = %q", cfg.AuditLog)
	}
	if cfg.LogFile != "/support/tabmux/daemon.log" {
		t.Errorf("LogFile = %q", cfg.LogFile)
	}
}

func TestDefaultPathIsUnderDir(t *testing.T) {
	dir := Dir()
	if dir == "" {
		t.Skip("no application support directory")
	}
	if got, want := DefaultPath(), filepath.Join(dir, "config.yaml"); got != want {
		t.Errorf("DefaultPath() = %q, want %q", got, want)
	}
}
