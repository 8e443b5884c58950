package keychain

import (
	"errors"
	"fmt"
)

// LegacyAccount is the account name of the pre-file password entry.
const LegacyAccount = "socket-control-password"

// LegacySource adapts a Store into the loader/deleter pair used by
// secret.MigrateLegacyPasswordIfNeeded and the lazy fallback.
type LegacySource struct {
	store   Store
	account string
}

// NewLegacySource reads the legacy password from store under LegacyAccount.
func NewLegacySource(store Store) *LegacySource {
	return &LegacySource{store: store, account: LegacyAccount}
}

// Load returns the legacy password. A missing entry is reported as ok=false.
func (l *LegacySource) Load() (string, bool, error) {
	val, err := l.store.Get(l.account)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("loading legacy password: %w", err)
	}
	return val, true, nil
}

// Delete removes the legacy password entry.
func (l *LegacySource) Delete() error {
	if err := l.store.Delete(l.account); err != nil {
		return fmt.Errorf("deleting legacy password: %w", err)
	}
	return nil
}
