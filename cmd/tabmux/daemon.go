package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/benaskins/tabmux/internal/api"
	"github.com/benaskins/tabmux/internal/audit"
	"github.com/benaskins/tabmux/internal/keychain"
	"github.com/benaskins/tabmux/internal/notify"
	"github.com/benaskins/tabmux/internal/secret"
	"github.com/benaskins/tabmux/internal/settings"
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Run the tabmux control socket daemon",
	Long:  "Migrate the legacy keychain password if needed, then serve the notification API on the control socket.",
	RunE:  runDaemon,
}

var (
	apiAddr string
	verbose bool
)

func init() {
	daemonCmd.Flags().StringVar(&apiAddr, "api-addr", "", "Optional TCP address for API (e.g. 127.0.0.1:9090)")
	daemonCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr at debug level")
	rootCmd.AddCommand(daemonCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if apiAddr != "" {
		cfg.APIAddr = apiAddr
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0700); err != nil {
		return fmt.Errorf("creating log dir: %w", err)
	}
	logCloser := setupLogging(cfg.LogFile, verbose)
	defer logCloser.Close()

	slog.Info("tabmux daemon starting", "socket", cfg.SocketPath)

	flags, err := settings.Open(cfg.SettingsFile)
	if err != nil {
		return fmt.Errorf("opening settings: %w", err)
	}
	slog.Info("settings loaded", "path", flags.Path(), "show_dock_badge", flags.Bool(settings.ShowDockBadgeKey))

	auditLog, err := audit.NewLogger(cfg.AuditLog)
	if err != nil {
		return err
	}
	defer auditLog.Close()

	legacy := keychain.NewLegacySource(keychain.NewSystemStore())
	migrateLegacy(flags, cfg.PasswordFile, legacy, auditLog, "daemon")

	resolver := secret.NewResolver()
	sources := passwordSources(cfg, legacy)
	if ok, err := resolver.HasConfiguredPassword(sources); err != nil {
		return fmt.Errorf("resolving control password: %w", err)
	} else if !ok {
		slog.Warn("no control password configured; every API request will be rejected",
			"env", secret.PasswordEnvVar, "file", cfg.PasswordFile)
	}

	delivery := newLogCollaborator()
	opts := []notify.Option{
		notify.WithSink(delivery),
		notify.WithBadgePublisher(delivery),
		notify.WithShowBadge(func() bool { return flags.Bool(settings.ShowDockBadgeKey) }),
		notify.WithRunTag(os.Getenv(notify.RunTagEnvVar)),
	}
	if cfg.ReorderOnNotify {
		opts = append(opts, notify.WithReorderer(delivery))
	}
	store := notify.NewStore(opts...)

	srv := api.NewServer(store, api.VerifierFunc(func(candidate string) (bool, error) {
		return resolver.Verify(candidate, sources)
	}), auditLog)

	// Remove stale socket
	os.Remove(cfg.SocketPath)
	if err := os.MkdirAll(filepath.Dir(cfg.SocketPath), 0700); err != nil {
		return fmt.Errorf("creating socket dir: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenUnix(cfg.SocketPath)
	})
	if cfg.APIAddr != "" {
		g.Go(func() error {
			return srv.ListenTCP(cfg.APIAddr)
		})
	}
	g.Go(func() error {
		return flags.Watch(gctx, store.RefreshBadge)
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	slog.Info("tabmux daemon ready")

	err = g.Wait()
	os.Remove(cfg.SocketPath)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	slog.Info("tabmux daemon stopped")
	return nil
}

// resetMigration clears the migration flag so the next migrateLegacy call
// copies the legacy entry again.
func resetMigration(flags *settings.Store) error {
	if err := flags.Delete(secret.MigrationFlagKey); err != nil {
		return fmt.Errorf("resetting migration flag in %s: %w", flags.Path(), err)
	}
	return nil
}

// migrateLegacy runs the one-time keychain migration and audits the outcome.
// Failures are logged: the daemon still starts and retries on next launch.
func migrateLegacy(flags secret.FlagStore, path string, legacy *keychain.LegacySource, auditLog *audit.Logger, actor string) (secret.MigrationResult, error) {
	result, err := secret.MigrateLegacyPasswordIfNeeded(flags, path, legacy.Load, legacy.Delete)
	if err != nil {
		slog.Error("legacy password migration failed", "error", err)
		auditLog.Log(audit.Entry{
			Action: audit.ActionPasswordMigrate,
			Path:   path,
			Actor:  actor,
			Error:  err.Error(),
		})
		return result, err
	}
	if result != secret.MigrationSkipped {
		auditLog.Log(audit.Entry{
			Action: audit.ActionPasswordMigrate,
			Path:   path,
			Actor:  actor,
			Result: result.String(),
		})
	}
	return result, nil
}
