//go:build !darwin

package keychain

// NewSystemStore returns a MemoryStore on non-darwin platforms.
// There is no legacy keychain entry to migrate outside of macOS.
func NewSystemStore() Store {
	return NewMemoryStore()
}
