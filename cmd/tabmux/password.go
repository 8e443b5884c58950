package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/benaskins/tabmux/internal/audit"
	"github.com/benaskins/tabmux/internal/keychain"
	"github.com/benaskins/tabmux/internal/secret"
	"github.com/benaskins/tabmux/internal/settings"
)

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Manage the control socket password",
}

var passwordSetCmd = &cobra.Command{
	Use:   "set [value]",
	Short: "Store the control socket password",
	Long:  "Store the password in the password file. If value is omitted, reads from stdin (useful for piping).",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		var value string
		if len(args) == 1 {
			value = args[0]
		} else {
			if term.IsTerminal(int(os.Stdin.Fd())) {
				fmt.Print("Enter control password: ")
				b, err := term.ReadPassword(int(os.Stdin.Fd()))
				if err != nil {
					return fmt.Errorf("reading password: %w", err)
				}
				fmt.Println()
				value = string(b)
			} else {
				b, err := os.ReadFile("/dev/stdin")
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				value = strings.TrimRight(string(b), "\n")
			}
		}
		if value == "" {
			return fmt.Errorf("password must not be empty")
		}

		if err := secret.SavePassword(value, cfg.PasswordFile); err != nil {
			return err
		}
		withAudit(cfg.AuditLog, audit.Entry{Action: audit.ActionPasswordWrite, Path: cfg.PasswordFile, Actor: "cli"})
		fmt.Printf("Password stored in %s\n", cfg.PasswordFile)
		return nil
	},
}

var passwordClearCmd = &cobra.Command{
	Use:     "clear",
	Short:   "Remove the stored control socket password",
	Aliases: []string{"rm"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := secret.ClearPassword(cfg.PasswordFile); err != nil {
			return err
		}
		withAudit(cfg.AuditLog, audit.Entry{Action: audit.ActionPasswordClear, Path: cfg.PasswordFile, Actor: "cli"})
		fmt.Println("Password cleared")
		return nil
	},
}

var passwordStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show where the control password is resolved from",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if v, ok := os.LookupEnv(secret.PasswordEnvVar); ok && v != "" {
			fmt.Printf("configured (environment: %s)\n", secret.PasswordEnvVar)
			return nil
		}

		resolver := secret.NewResolver()
		src := passwordSources(cfg, keychain.NewLegacySource(keychain.NewSystemStore()))
		ok, err := resolver.HasConfiguredPassword(src)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Println("not configured")
			return nil
		}
		if _, inFile, _ := secret.LoadPassword(cfg.PasswordFile); inFile {
			fmt.Printf("configured (file: %s)\n", cfg.PasswordFile)
		} else {
			fmt.Println("configured (legacy keychain)")
		}
		return nil
	},
}

var passwordMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Move the legacy keychain password into the password file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		flags, err := settings.Open(cfg.SettingsFile)
		if err != nil {
			return err
		}
		auditLog, err := audit.NewLogger(cfg.AuditLog)
		if err != nil {
			return err
		}
		defer auditLog.Close()

		if forceMigrate {
			if err := resetMigration(flags); err != nil {
				return err
			}
		}
		legacy := keychain.NewLegacySource(keychain.NewSystemStore())
		result, err := migrateLegacy(flags, cfg.PasswordFile, legacy, auditLog, "cli")
		if err != nil {
			return err
		}
		fmt.Printf("Migration: %s\n", result)
		return nil
	},
}

// withAudit records entry, warning on stderr if the audit log is unavailable.
func withAudit(path string, entry audit.Entry) {
	l, err := audit.NewLogger(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return
	}
	defer l.Close()
	if err := l.Log(entry); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}

var forceMigrate bool

func init() {
	passwordMigrateCmd.Flags().BoolVar(&forceMigrate, "force", false, "run again even if a previous migration completed")
	passwordCmd.AddCommand(passwordSetCmd)
	passwordCmd.AddCommand(passwordClearCmd)
	passwordCmd.AddCommand(passwordStatusCmd)
	passwordCmd.AddCommand(passwordMigrateCmd)
	rootCmd.AddCommand(passwordCmd)
}
