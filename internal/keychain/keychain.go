// Package keychain provides the legacy password source backed by macOS Keychain.
//
// Earlier releases kept the socket control password as a generic password with:
//   - Service: "com.tabmux.socket-control"
//   - Account: "socket-control-password"
//
// The password now lives in a plain file (see internal/secret). The keychain
// entry is only read once, for migration or as a lazy fallback, then deleted.
package keychain

import "errors"

// ErrNotFound is returned when a secret does not exist in the store.
var ErrNotFound = errors.New("secret not found")

// Store is the interface for secret storage operations.
type Store interface {
	Set(key, value string) error
	Get(key string) (string, error)
	Delete(key string) error
}
