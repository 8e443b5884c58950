package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/benaskins/tabmux/internal/api"
	"github.com/benaskins/tabmux/internal/keychain"
	"github.com/benaskins/tabmux/internal/notify"
	"github.com/benaskins/tabmux/internal/secret"
)

// apiCall sends one request to the daemon's control socket, authenticating
// with the password resolved the same way the daemon resolves it.
func apiCall(method, path string, body, v any) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	password, _, err := secret.NewResolver().ConfiguredPassword(
		passwordSources(cfg, keychain.NewLegacySource(keychain.NewSystemStore())))
	if err != nil {
		return err
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
				return net.Dial("unix", cfg.SocketPath)
			},
		},
	}

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
	}
	req, err := http.NewRequest(method, "http://tabmux"+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(api.PasswordHeader, password)

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to daemon: %w (is tabmux daemon running?)", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		return fmt.Errorf("API error %d: %s", resp.StatusCode, b)
	}
	if v == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func surfacePath(base, surface string, set bool) string {
	if !set {
		return base
	}
	return base + "?surface=" + url.QueryEscape(surface)
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Inspect and manage notifications held by the daemon",
}

var notifyAddCmd = &cobra.Command{
	Use:   "add <tab> <title> [body]",
	Short: "Raise a notification for a tab",
	Args:  cobra.RangeArgs(2, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		surface, _ := cmd.Flags().GetString("surface")
		subtitle, _ := cmd.Flags().GetString("subtitle")
		req := map[string]string{
			"tab_id":     args[0],
			"surface_id": surface,
			"title":      args[1],
			"subtitle":   subtitle,
		}
		if len(args) == 3 {
			req["body"] = args[2]
		}

		var result map[string]any
		if err := apiCall(http.MethodPost, "/v1/notifications", req, &result); err != nil {
			return err
		}
		if result["suppressed"] == true {
			fmt.Println("suppressed (surface is focused)")
			return nil
		}
		fmt.Println(result["id"])
		return nil
	},
}

var notifyListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List notifications, most recent first",
	Aliases: []string{"ls"},
	RunE: func(cmd *cobra.Command, args []string) error {
		var resp struct {
			UnreadCount   int                   `json:"unread_count"`
			Notifications []notify.Notification `json:"notifications"`
		}
		if err := apiCall(http.MethodGet, "/v1/notifications", nil, &resp); err != nil {
			return err
		}

		if len(resp.Notifications) == 0 {
			fmt.Println("No notifications")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTAB\tSURFACE\tSTATE\tAGE\tTITLE")
		for _, n := range resp.Notifications {
			surface := n.SurfaceID
			if surface == "" {
				surface = "-"
			}
			state := "unread"
			if n.IsRead {
				state = "read"
			}
			age := time.Since(n.CreatedAt).Truncate(time.Second)
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", n.ID, n.TabID, surface, state, age, n.Title)
		}
		w.Flush()
		fmt.Printf("\n%d unread\n", resp.UnreadCount)
		return nil
	},
}

var notifyReadCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification read (or a whole tab with --tab)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tab, _ := cmd.Flags().GetString("tab")
		if tab == "" {
			if len(args) != 1 {
				return fmt.Errorf("need a notification id or --tab")
			}
			var result map[string]bool
			if err := apiCall(http.MethodPost, "/v1/notifications/"+url.PathEscape(args[0])+"/read", nil, &result); err != nil {
				return err
			}
			fmt.Printf("changed: %v\n", result["changed"])
			return nil
		}

		surface, _ := cmd.Flags().GetString("surface")
		path := surfacePath("/v1/tabs/"+url.PathEscape(tab)+"/read", surface, cmd.Flags().Changed("surface"))
		var result map[string]int
		if err := apiCall(http.MethodPost, path, nil, &result); err != nil {
			return err
		}
		fmt.Printf("%d marked read\n", result["count"])
		return nil
	},
}

var notifyUnreadCmd = &cobra.Command{
	Use:   "unread <tab>",
	Short: "Mark a tab's notifications unread again",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]int
		if err := apiCall(http.MethodPost, "/v1/tabs/"+url.PathEscape(args[0])+"/unread", nil, &result); err != nil {
			return err
		}
		fmt.Printf("%d marked unread\n", result["count"])
		return nil
	},
}

var notifyReadAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification read",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result map[string]int
		if err := apiCall(http.MethodPost, "/v1/notifications/read-all", nil, &result); err != nil {
			return err
		}
		fmt.Printf("%d marked read\n", result["count"])
		return nil
	},
}

var notifyRemoveCmd = &cobra.Command{
	Use:     "rm <id>",
	Short:   "Remove one notification",
	Aliases: []string{"remove"},
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := apiCall(http.MethodDelete, "/v1/notifications/"+url.PathEscape(args[0]), nil, nil); err != nil {
			return err
		}
		fmt.Printf("%s removed\n", args[0])
		return nil
	},
}

var notifyClearCmd = &cobra.Command{
	Use:   "clear [tab]",
	Short: "Remove all notifications, or those of one tab",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/v1/notifications"
		if len(args) == 1 {
			surface, _ := cmd.Flags().GetString("surface")
			path = surfacePath("/v1/tabs/"+url.PathEscape(args[0])+"/notifications", surface, cmd.Flags().Changed("surface"))
		}
		var result map[string]int
		if err := apiCall(http.MethodDelete, path, nil, &result); err != nil {
			return err
		}
		fmt.Printf("%d cleared\n", result["count"])
		return nil
	},
}

var notifyBadgeCmd = &cobra.Command{
	Use:   "badge",
	Short: "Show the current dock badge label",
	RunE: func(cmd *cobra.Command, args []string) error {
		var result struct {
			Label string `json:"label"`
			Shown bool   `json:"shown"`
		}
		if err := apiCall(http.MethodGet, "/v1/badge", nil, &result); err != nil {
			return err
		}
		if !result.Shown {
			fmt.Println("(no badge)")
			return nil
		}
		fmt.Println(result.Label)
		return nil
	},
}

func init() {
	notifyAddCmd.Flags().String("surface", "", "surface id within the tab (default: the whole tab)")
	notifyAddCmd.Flags().String("subtitle", "", "notification subtitle")
	notifyReadCmd.Flags().String("tab", "", "mark every notification of this tab read")
	notifyReadCmd.Flags().String("surface", "", "with --tab, only this surface")
	notifyClearCmd.Flags().String("surface", "", "only clear this surface of the tab")

	notifyCmd.AddCommand(notifyAddCmd)
	notifyCmd.AddCommand(notifyListCmd)
	notifyCmd.AddCommand(notifyReadCmd)
	notifyCmd.AddCommand(notifyUnreadCmd)
	notifyCmd.AddCommand(notifyReadAllCmd)
	notifyCmd.AddCommand(notifyRemoveCmd)
	notifyCmd.AddCommand(notifyClearCmd)
	notifyCmd.AddCommand(notifyBadgeCmd)
	rootCmd.AddCommand(notifyCmd)
}
