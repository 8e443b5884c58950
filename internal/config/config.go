package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/benaskins/tabmux/internal/secret"
)

// Config holds daemon configuration loaded from
// <appSupportDir>/tabmux/config.yaml. Empty paths are filled by WithDefaults.
type Config struct {
	SocketPath           string `yaml:"socket_path"`
	APIAddr              string `yaml:"api_addr"`
	PasswordFile         string `yaml:"password_file"`
	SettingsFile         string `yaml:"settings_file"`
	AuditLog             string `yaml:"audit_log"`
	LogFile              string `yaml:"log_file"`
	LazyKeychainFallback bool   `yaml:"lazy_keychain_fallback"`
	ReorderOnNotify      bool   `yaml:"reorder_on_notify"`
}

// Dir returns <appSupportDir>/tabmux, or "" if it cannot be determined.
func Dir() string {
	base, err := secret.AppSupportDir()
	if err != nil {
		return ""
	}
	return filepath.Join(base, secret.AppName)
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	dir := Dir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads a YAML config file from path. If the file does not exist,
// it returns an empty Config and no error. An empty or all-comment file
// also returns an empty Config with no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WithDefaults returns a copy of c with every empty path placed under dir.
func (c Config) WithDefaults(dir string) *Config {
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(dir, "tabmux.sock")
	}
	if c.PasswordFile == "" {
		c.PasswordFile = filepath.Join(dir, secret.PasswordFileName)
	}
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(dir, "settings.yaml")
	}
	if c.AuditLog == "" {
		c.AuditLog = filepath.Join(dir, "audit.log")
	}
	if c.LogFile == "" {
		c.LogFile = filepath.Join(dir, "daemon.log")
	}
	return &c
}
