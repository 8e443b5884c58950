package secret

import (
	"fmt"
	"log/slog"
)

// MigrationFlagKey is the settings key recording that the legacy keychain
// password has been moved into the password file.
const MigrationFlagKey = "legacyPasswordMigrated"

// FlagStore is a persisted boolean settings store.
type FlagStore interface {
	Bool(key string) bool
	SetBool(key string, value bool) error
}

// LegacyLoader reads the legacy password. ok is false when there is nothing stored.
type LegacyLoader func() (secret string, ok bool, err error)

// LegacyDeleter removes the legacy password.
type LegacyDeleter func() error

// MigrationResult reports what MigrateLegacyPasswordIfNeeded did.
type MigrationResult int

const (
	// MigrationSkipped means the flag was already set and nothing was touched.
	MigrationSkipped MigrationResult = iota
	// MigrationNothingToMigrate means the legacy source was empty.
	MigrationNothingToMigrate
	// MigrationCopied means the legacy password was written to the file.
	MigrationCopied
)

func (r MigrationResult) String() string {
	switch r {
	case MigrationSkipped:
		return "skipped"
	case MigrationNothingToMigrate:
		return "nothing-to-migrate"
	case MigrationCopied:
		return "copied"
	}
	return fmt.Sprintf("MigrationResult(%d)", int(r))
}

// MigrateLegacyPasswordIfNeeded copies the legacy password into the file at
// path and deletes the legacy copy, once. After the flag is set, later calls
// return MigrationSkipped without invoking load or del.
//
// A load or write failure leaves the flag unset so the next launch retries.
// A delete failure is logged only: the file already holds the value.
func MigrateLegacyPasswordIfNeeded(flags FlagStore, path string, load LegacyLoader, del LegacyDeleter) (MigrationResult, error) {
	if flags.Bool(MigrationFlagKey) {
		return MigrationSkipped, nil
	}

	logger := slog.With("component", "secret")

	value, ok, err := load()
	if err != nil {
		return MigrationSkipped, fmt.Errorf("loading legacy password: %w", err)
	}
	if !ok {
		if err := flags.SetBool(MigrationFlagKey, true); err != nil {
			return MigrationNothingToMigrate, fmt.Errorf("setting migration flag: %w", err)
		}
		logger.Debug("no legacy password to migrate")
		return MigrationNothingToMigrate, nil
	}

	if err := SavePassword(value, path); err != nil {
		return MigrationSkipped, fmt.Errorf("migrating legacy password: %w", err)
	}
	if err := del(); err != nil {
		logger.Warn("failed to delete legacy password after migration", "error", err)
	}
	if err := flags.SetBool(MigrationFlagKey, true); err != nil {
		return MigrationCopied, fmt.Errorf("setting migration flag: %w", err)
	}

	logger.Info("migrated legacy password", "path", path)
	return MigrationCopied, nil
}
