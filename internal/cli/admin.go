package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// adminAction is one admin command: what to send and which replies confirm it
type adminAction struct {
	use     string
	short   string
	message map[string]any
	replies []string
}

var adminActions = []adminAction{
	{use: "start", short: "Start a new round", message: map[string]any{"type": "start_game"}, replies: []string{"game_started"}},
	{use: "pause", short: "Pause or resume the round", message: map[string]any{"type": "pause_game"}, replies: []string{"game_paused", "game_resumed"}},
	{use: "end", short: "End the round and archive it", message: map[string]any{"type": "end_game"}, replies: []string{"game_ended"}},
	{use: "call", short: "Call the next number", message: map[string]any{"type": "call_number"}, replies: []string{"called_numbers"}},
	{use: "clear", short: "Clear the called numbers", message: map[string]any{"type": "clear_numbers"}, replies: []string{"called_numbers"}},
}

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin commands (require --password)",
	}

	for _, action := range adminActions {
		cmd.AddCommand(newAdminActionCmd(action))
	}
	cmd.AddCommand(newAdminAutoCmd())

	return cmd
}

func newAdminActionCmd(action adminAction) *cobra.Command {
	return &cobra.Command{
		Use:   action.use,
		Short: action.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdmin(cmd, action.message, action.replies...)
		},
	}
}

func newAdminAutoCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "auto <on|off>",
		Short:     "Turn automatic calling on or off",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"on", "off"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var enabled bool
			switch args[0] {
			case "on":
				enabled = true
			case "off":
				enabled = false
			default:
				return fmt.Errorf("expected on or off, got %q", args[0])
			}
			msg := map[string]any{"type": "toggle_auto_call", "enabled": enabled}
			return runAdmin(cmd, msg, "game_state")
		},
	}
}

// runAdmin authenticates, sends msg and prints the first confirming reply
func runAdmin(cmd *cobra.Command, msg map[string]any, replies ...string) error {
	if cfg.AdminPassword == "" {
		return errors.New("admin password required (--password or BINGOCTL_ADMIN_PASSWORD)")
	}

	session, err := client.Dial(cmd.Context())
	if err != nil {
		return err
	}
	defer func() { _ = session.Close() }()

	if err := session.Authenticate(cfg.AdminPassword); err != nil {
		return err
	}

	if err := session.Send(msg); err != nil {
		return fmt.Errorf("failed to send command: %w", err)
	}

	reply, err := session.Await(replies...)
	if err != nil {
		return err
	}

	var result AdminResult
	if err := json.Unmarshal(reply.Raw, &result); err != nil {
		return fmt.Errorf("failed to parse reply: %w", err)
	}

	out := NewOutput(cfg.Output, cmd.OutOrStdout())
	out.Print(result)
	return nil
}
