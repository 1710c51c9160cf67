package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		jsonOutput bool
		asAdmin    bool
		playerID   string
		playerName string
		count      int
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream live game messages",
		Long: `Stream live messages from the game coordinator.

Without flags the connection only receives broadcasts sent to every
connection. Use --player to join as a player, or --admin to receive the
admin feed (requires --password).

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if asAdmin && cfg.AdminPassword == "" {
				return errors.New("admin password required (--password or BINGOCTL_ADMIN_PASSWORD)")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return watch(ctx, cmd.OutOrStdout(), watchOptions{
				json:       jsonOutput,
				admin:      asAdmin,
				playerID:   playerID,
				playerName: playerName,
				count:      count,
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output messages as JSON lines")
	cmd.Flags().BoolVar(&asAdmin, "admin", false, "Authenticate as admin")
	cmd.Flags().StringVar(&playerID, "player", "", "Connect as this player id")
	cmd.Flags().StringVar(&playerName, "name", "", "Display name when connecting as a player")
	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many messages (0 streams until interrupted)")

	return cmd
}

type watchOptions struct {
	json       bool
	admin      bool
	playerID   string
	playerName string
	count      int
}

// WatchEvent is one streamed message in --json mode
type WatchEvent struct {
	Time time.Time       `json:"time"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

func watch(ctx context.Context, w io.Writer, opts watchOptions) error {
	session, err := client.Dial(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	// Unblock Next when interrupted
	go func() {
		<-ctx.Done()
		_ = session.Close()
	}()

	if opts.admin {
		if err := session.Send(map[string]string{"type": "admin_auth", "password": cfg.AdminPassword}); err != nil {
			return err
		}
	}
	if opts.playerID != "" {
		msg := map[string]string{"type": "player_connect", "playerId": opts.playerID, "playerName": opts.playerName}
		if err := session.Send(msg); err != nil {
			return err
		}
	}

	if !opts.json {
		fmt.Fprintf(w, "Connected to %s\n", client.websocketURL())
	}

	for seen := 0; opts.count == 0 || seen < opts.count; seen++ {
		msg, err := session.Next(0)
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				if !opts.json {
					fmt.Fprintln(w, "Disconnected")
				}
				return nil
			}
			if websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
				return ErrAuthFailed
			}
			return fmt.Errorf("stream error: %w", err)
		}
		printMessage(w, msg, opts.json)
	}

	return nil
}

func printMessage(w io.Writer, msg Message, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		data, _ := json.Marshal(WatchEvent{Time: now, Type: msg.Type, Data: msg.Raw})
		fmt.Fprintln(w, string(data))
		return
	}

	timestamp := now.Format(time.DateTime)
	// Truncate data if it's too long for display
	display := string(msg.Raw)
	if !cfg.Verbose && len(display) > 100 {
		display = display[:100] + "..."
	}
	display = strings.ReplaceAll(display, "\n", " ")
	fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, msg.Type, display)
}

