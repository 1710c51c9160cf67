package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the live game state",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Snapshot

			if err := client.Get(cmd.Context(), "/api/v1/state", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newRoundsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "List archived rounds, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}

			var result RoundsResult

			if err := client.Get(cmd.Context(), fmt.Sprintf("/api/v1/rounds?limit=%d", limit), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of rounds to list")

	return cmd
}
