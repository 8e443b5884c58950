// Package secret resolves and persists the control-socket password.
//
// The password can come from three places, checked in order:
//   - the TABMUX_SOCKET_PASSWORD environment variable
//   - a plain-text file under Application Support
//   - a legacy keychain entry, consulted lazily and at most once per Resolver
//
// Legacy keychain entries are copied into the file once by
// MigrateLegacyPasswordIfNeeded and then deleted from the keychain.
package secret

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"unicode/utf8"
)

// ErrIO wraps any filesystem failure other than a missing file.
var ErrIO = errors.New("password file io")

const (
	// AppName is the directory name used under Application Support.
	AppName = "tabmux"

	// PasswordFileName is the file holding the socket control password.
	PasswordFileName = "socket-control-password"
)

// AppSupportDir returns ~/Library/Application Support on macOS and the
// user config dir elsewhere.
func AppSupportDir() (string, error) {
	if runtime.GOOS == "darwin" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support"), nil
	}
	return os.UserConfigDir()
}

// DefaultPasswordPath returns <appSupportDir>/tabmux/socket-control-password.
func DefaultPasswordPath(appSupportDir string) string {
	return filepath.Join(appSupportDir, AppName, PasswordFileName)
}

// SavePassword writes secret to path, creating parent directories as needed.
// Existing content is replaced via temp file and rename.
func SavePassword(secret, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("%w: creating %s: %w", ErrIO, filepath.Dir(path), err)
	}
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, []byte(secret), 0600); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrIO, tmpPath, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: replacing %s: %w", ErrIO, path, err)
	}
	return nil
}

// LoadPassword returns the stored secret exactly as saved. ok is false if
// path does not exist. Content that is not valid UTF-8 is an ErrIO.
func LoadPassword(path string) (secret string, ok bool, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: reading %s: %w", ErrIO, path, err)
	}
	if !utf8.Valid(data) {
		return "", false, fmt.Errorf("%w: decoding %s: invalid UTF-8", ErrIO, path)
	}
	return string(data), true, nil
}

// ClearPassword removes the password file. Missing files are not an error.
func ClearPassword(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: removing %s: %w", ErrIO, path, err)
	}
	return nil
}
