package secret

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envWith(vars map[string]string) Env {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func countingLoader(n *int, value string, ok bool) LegacyLoader {
	return func() (string, bool, error) {
		*n++
		return value, ok, nil
	}
}

func TestEnvTakesPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	require.NoError(t, SavePassword("from-file", path))
	var loads int

	r := NewResolver()
	got, ok, err := r.ConfiguredPassword(Sources{
		Env:               envWith(map[string]string{PasswordEnvVar: "from-env"}),
		FilePath:          path,
		AllowLazyFallback: true,
		LoadLegacy:        countingLoader(&loads, "from-keychain", true),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-env", got)
	assert.Zero(t, loads)
}

func TestEnvIsNotReadFromFileWhenUnreadable(t *testing.T) {
	// A directory in place of the file would fail to load; env short-circuits first.
	r := NewResolver()
	got, ok, err := r.ConfiguredPassword(Sources{
		Env:      envWith(map[string]string{PasswordEnvVar: "from-env"}),
		FilePath: t.TempDir(),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-env", got)
}

func TestEmptyEnvFallsThroughToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	require.NoError(t, SavePassword("from-file", path))

	r := NewResolver()
	got, ok, err := r.ConfiguredPassword(Sources{
		Env:      envWith(map[string]string{PasswordEnvVar: ""}),
		FilePath: path,
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-file", got)
}

func TestFileSuppressesLegacyFallback(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	require.NoError(t, SavePassword("from-file", path))
	var loads int

	r := NewResolver()
	got, _, err := r.ConfiguredPassword(Sources{
		Env:               envWith(nil),
		FilePath:          path,
		AllowLazyFallback: true,
		LoadLegacy:        countingLoader(&loads, "from-keychain", true),
	})
	require.NoError(t, err)
	assert.Equal(t, "from-file", got)
	assert.Zero(t, loads)
}

func TestLazyFallbackLoadsOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	var first, second int

	r := NewResolver()
	got, ok, err := r.ConfiguredPassword(Sources{
		Env: envWith(nil), FilePath: path, AllowLazyFallback: true,
		LoadLegacy: countingLoader(&first, "from-keychain", true),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-keychain", got)

	got, ok, err = r.ConfiguredPassword(Sources{
		Env: envWith(nil), FilePath: path, AllowLazyFallback: true,
		LoadLegacy: countingLoader(&second, "other", true),
	})
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "from-keychain", got)

	assert.Equal(t, 1, first)
	assert.Zero(t, second)
}

func TestLazyFallbackCachesAbsence(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	var first, second int

	r := NewResolver()
	_, ok, err := r.ConfiguredPassword(Sources{
		Env: envWith(nil), FilePath: path, AllowLazyFallback: true,
		LoadLegacy: countingLoader(&first, "", false),
	})
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = r.ConfiguredPassword(Sources{
		Env: envWith(nil), FilePath: path, AllowLazyFallback: true,
		LoadLegacy: countingLoader(&second, "late-value", true),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 1, first)
	assert.Zero(t, second)
}

func TestLazyFallbackCachesLoaderError(t *testing.T) {
	var loads int
	r := NewResolver()
	src := Sources{
		Env: envWith(nil), AllowLazyFallback: true,
		LoadLegacy: func() (string, bool, error) {
			loads++
			return "", false, errors.New("keychain locked")
		},
	}

	for range 3 {
		_, ok, err := r.ConfiguredPassword(src)
		require.NoError(t, err)
		assert.False(t, ok)
	}
	assert.Equal(t, 1, loads)
}

func TestFallbackDisabledNeverLoads(t *testing.T) {
	var loads int
	r := NewResolver()
	_, ok, err := r.ConfiguredPassword(Sources{
		Env:        envWith(nil),
		FilePath:   filepath.Join(t.TempDir(), PasswordFileName),
		LoadLegacy: countingLoader(&loads, "from-keychain", true),
	})
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, loads)
}

func TestHasConfiguredAndVerifyShareCache(t *testing.T) {
	var loads int
	src := Sources{
		Env:               envWith(nil),
		FilePath:          filepath.Join(t.TempDir(), PasswordFileName),
		AllowLazyFallback: true,
		LoadLegacy:        countingLoader(&loads, "from-keychain", true),
	}

	r := NewResolver()
	has, err := r.HasConfiguredPassword(src)
	require.NoError(t, err)
	assert.True(t, has)

	ok, err := r.Verify("from-keychain", src)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.Verify("wrong", src)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, 1, loads)
}

func TestVerifyWithoutPassword(t *testing.T) {
	r := NewResolver()
	ok, err := r.Verify("", Sources{Env: envWith(nil)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasConfiguredPasswordIgnoresEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), PasswordFileName)
	require.NoError(t, SavePassword("", path))

	r := NewResolver()
	has, err := r.HasConfiguredPassword(Sources{Env: envWith(nil), FilePath: path})
	require.NoError(t, err)
	assert.False(t, has)
}

func TestFileErrorPropagates(t *testing.T) {
	r := NewResolver()
	_, _, err := r.ConfiguredPassword(Sources{Env: envWith(nil), FilePath: t.TempDir()})
	require.ErrorIs(t, err, ErrIO)
}

func TestResetAllowsRequery(t *testing.T) {
	var loads int
	src := Sources{
		Env: envWith(nil), AllowLazyFallback: true,
		LoadLegacy: countingLoader(&loads, "v", true),
	}

	r := NewResolver()
	_, _, _ = r.ConfiguredPassword(src)
	r.Reset()
	_, _, _ = r.ConfiguredPassword(src)
	assert.Equal(t, 2, loads)
}

func TestConcurrentFallbackLoadsOnce(t *testing.T) {
	var mu sync.Mutex
	var loads int
	src := Sources{
		Env: envWith(nil), AllowLazyFallback: true,
		LoadLegacy: func() (string, bool, error) {
			mu.Lock()
			loads++
			mu.Unlock()
			return "v", true, nil
		},
	}

	r := NewResolver()
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = r.ConfiguredPassword(src)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, loads)
}
