package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "bingoctl",
		Short: "CLI tool for the bingo hall server",
		Long: `bingoctl is a CLI tool for operating a bingo hall server.

It reads the live game state and the round archive over the JSON API, runs
admin commands over the websocket endpoint, and streams live messages.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.ServerURL, cfg.Timeout)
			return nil
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: BINGOCTL_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminPassword, "password", cfg.AdminPassword, "Admin password (env: BINGOCTL_ADMIN_PASSWORD)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")
	rootCmd.PersistentFlags().DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")

	// Add subcommands
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newRoundsCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHashPasswordCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
