package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"pairkeep/internal/ipc"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Queue an organization run for ungrouped items",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Organize("manual")
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, resp.Run)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Queued organization run %d\n", resp.Run.ID)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit the queued run as JSON")
	return cmd
}
