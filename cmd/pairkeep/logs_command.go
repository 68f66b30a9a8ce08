package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pairkeep/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lineCount int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.LogTail(-1, lineCount)
				if err != nil {
					return fmt.Errorf("tail logs: %w", err)
				}
				for _, line := range resp.Lines {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				if !follow {
					return nil
				}

				offset := resp.Offset
				ticker := time.NewTicker(time.Second)
				defer ticker.Stop()
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					case <-ticker.C:
					}
					next, err := client.LogTail(offset, 0)
					if err != nil {
						return fmt.Errorf("tail logs: %w", err)
					}
					for _, line := range next.Lines {
						fmt.Fprintln(cmd.OutOrStdout(), line)
					}
					offset = next.Offset
				}
			})
		},
	}

	cmd.Flags().IntVarP(&lineCount, "lines", "n", 50, "Number of log lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep polling for new log lines")
	return cmd
}
