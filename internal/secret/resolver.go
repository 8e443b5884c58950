package secret

import (
	"crypto/subtle"
	"log/slog"
	"os"
)

// PasswordEnvVar overrides every other password source when non-empty.
const PasswordEnvVar = "TABMUX_SOCKET_PASSWORD"

// Env looks up an environment variable. os.LookupEnv satisfies it.
type Env func(key string) (string, bool)

// Sources describes where a Resolver looks for the password.
type Sources struct {
	Env               Env
	FilePath          string
	AllowLazyFallback bool
	LoadLegacy        LegacyLoader
}

// DefaultSources reads the process environment and the given password file,
// with the legacy fallback disabled.
func DefaultSources(filePath string) Sources {
	return Sources{Env: os.LookupEnv, FilePath: filePath}
}

// Resolver resolves the configured password. The legacy loader is consulted
// at most once per Resolver until Reset, and a "not found" answer is cached
// like any other.
type Resolver struct {
	fallback probe
	logger   *slog.Logger
}

// NewResolver creates a Resolver with an empty fallback cache.
func NewResolver() *Resolver {
	return &Resolver{logger: slog.With("component", "secret")}
}

// ConfiguredPassword returns the first non-empty password from, in order,
// the environment, the password file, and (if allowed) the cached legacy
// lookup. File errors other than not-found are returned.
func (r *Resolver) ConfiguredPassword(src Sources) (string, bool, error) {
	if src.Env != nil {
		if v, ok := src.Env(PasswordEnvVar); ok && v != "" {
			return v, true, nil
		}
	}

	if src.FilePath != "" {
		v, ok, err := LoadPassword(src.FilePath)
		if err != nil {
			return "", false, err
		}
		if ok && v != "" {
			return v, true, nil
		}
	}

	if !src.AllowLazyFallback || src.LoadLegacy == nil {
		return "", false, nil
	}

	v, ok := r.fallback.get(func() (string, bool) {
		v, ok, err := src.LoadLegacy()
		if err != nil {
			r.logger.Warn("legacy password lookup failed", "error", err)
			return "", false
		}
		return v, ok
	})
	if !ok || v == "" {
		return "", false, nil
	}
	return v, true, nil
}

// HasConfiguredPassword reports whether resolution yields a non-empty password.
func (r *Resolver) HasConfiguredPassword(src Sources) (bool, error) {
	_, ok, err := r.ConfiguredPassword(src)
	return ok, err
}

// Verify reports whether candidate matches the resolved password. It is
// false when no password is configured.
func (r *Resolver) Verify(candidate string, src Sources) (bool, error) {
	v, ok, err := r.ConfiguredPassword(src)
	if err != nil || !ok {
		return false, err
	}
	return subtle.ConstantTimeCompare([]byte(v), []byte(candidate)) == 1, nil
}

// Reset forgets the cached legacy lookup.
func (r *Resolver) Reset() {
	r.fallback.reset()
}
