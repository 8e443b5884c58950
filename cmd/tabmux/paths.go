package main

import (
	"fmt"

	"github.com/benaskins/tabmux/internal/config"
	"github.com/benaskins/tabmux/internal/keychain"
	"github.com/benaskins/tabmux/internal/secret"
)

// loadConfig reads the config file and fills in default paths.
func loadConfig() (*config.Config, error) {
	dir := config.Dir()
	if dir == "" {
		return nil, fmt.Errorf("cannot determine application support directory")
	}

	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config %s: %w", path, err)
	}
	return cfg.WithDefaults(dir), nil
}

// passwordSources builds the lookup chain shared by the daemon and its
// clients. The legacy keychain is consulted only with lazy_keychain_fallback.
func passwordSources(cfg *config.Config, legacy *keychain.LegacySource) secret.Sources {
	src := secret.DefaultSources(cfg.PasswordFile)
	if cfg.LazyKeychainFallback {
		src.AllowLazyFallback = true
		src.LoadLegacy = legacy.Load
	}
	return src
}
