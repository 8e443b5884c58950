package secret

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memFlags map[string]bool

func (m memFlags) Bool(key string) bool { return m[key] }

func (m memFlags) SetBool(key string, value bool) error {
	m[key] = value
	return nil
}

type legacyCalls struct {
	loads   int
	deletes int
}

func (c *legacyCalls) loader(value string, ok bool) LegacyLoader {
	return func() (string, bool, error) {
		c.loads++
		return value, ok, nil
	}
}

func (c *legacyCalls) deleter() LegacyDeleter {
	return func() error {
		c.deletes++
		return nil
	}
}

func TestMigrateCopiesOnce(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)
	var calls legacyCalls

	res, err := MigrateLegacyPasswordIfNeeded(flags, path, calls.loader("from-keychain", true), calls.deleter())
	require.NoError(t, err)
	assert.Equal(t, MigrationCopied, res)
	assert.Equal(t, 1, calls.loads)
	assert.Equal(t, 1, calls.deletes)
	assert.True(t, flags[MigrationFlagKey])

	got, _, err := LoadPassword(path)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", got)

	var second legacyCalls
	res, err = MigrateLegacyPasswordIfNeeded(flags, path, second.loader("different", true), second.deleter())
	require.NoError(t, err)
	assert.Equal(t, MigrationSkipped, res)
	assert.Zero(t, second.loads)
	assert.Zero(t, second.deletes)

	got, _, err = LoadPassword(path)
	require.NoError(t, err)
	assert.Equal(t, "from-keychain", got)
}

func TestMigrateNothingToMigrateSetsFlag(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)
	var calls legacyCalls

	res, err := MigrateLegacyPasswordIfNeeded(flags, path, calls.loader("", false), calls.deleter())
	require.NoError(t, err)
	assert.Equal(t, MigrationNothingToMigrate, res)
	assert.Equal(t, 1, calls.loads)
	assert.Zero(t, calls.deletes)
	assert.True(t, flags[MigrationFlagKey])

	_, ok, err := LoadPassword(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateOverwritesExistingFile(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)
	require.NoError(t, SavePassword("pre-existing", path))
	var calls legacyCalls

	_, err := MigrateLegacyPasswordIfNeeded(flags, path, calls.loader("legacy", true), calls.deleter())
	require.NoError(t, err)

	got, _, err := LoadPassword(path)
	require.NoError(t, err)
	assert.Equal(t, "legacy", got)
}

func TestMigrateFlagSurvivesClearedFile(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)
	var calls legacyCalls

	_, err := MigrateLegacyPasswordIfNeeded(flags, path, calls.loader("legacy", true), calls.deleter())
	require.NoError(t, err)
	require.NoError(t, ClearPassword(path))

	res, err := MigrateLegacyPasswordIfNeeded(flags, path, calls.loader("legacy", true), calls.deleter())
	require.NoError(t, err)
	assert.Equal(t, MigrationSkipped, res)
	assert.Equal(t, 1, calls.loads)

	_, ok, err := LoadPassword(path)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMigrateLoadErrorLeavesFlagUnset(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)
	boom := errors.New("keychain locked")

	_, err := MigrateLegacyPasswordIfNeeded(flags, path,
		func() (string, bool, error) { return "", false, boom },
		func() error { t.Fatal("delete must not run"); return nil })
	require.ErrorIs(t, err, boom)
	assert.False(t, flags[MigrationFlagKey])
}

func TestMigrateDeleteErrorStillSetsFlag(t *testing.T) {
	flags := memFlags{}
	path := filepath.Join(t.TempDir(), PasswordFileName)

	res, err := MigrateLegacyPasswordIfNeeded(flags, path,
		func() (string, bool, error) { return "legacy", true, nil },
		func() error { return errors.New("delete denied") })
	require.NoError(t, err)
	assert.Equal(t, MigrationCopied, res)
	assert.True(t, flags[MigrationFlagKey])
}
